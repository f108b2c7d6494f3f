package response

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sirupsen/logrus"
	"github.com/sqltutor/sqltutor-be/internal/pkg/apperrors"
	"github.com/sqltutor/sqltutor-be/internal/pkg/validate"
)

type Response struct {
	StatusCode int    `json:"-"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Error      any    `json:"error,omitempty"`
	Data       any    `json:"data,omitempty"`
	Meta       any    `json:"meta,omitempty"`
}

func NewInternalServerError() *Response {
	res := &Response{
		Success:    false,
		Message:    "Internal Server Error",
		StatusCode: fiber.StatusInternalServerError,
	}
	return res
}

func NewFailed(msg string, err error, logger *logrus.Logger) *Response {
	res := &Response{
		Success:    false,
		Message:    msg,
		StatusCode: fiber.StatusInternalServerError,
	}

	switch e := err.(type) {
	case *fiber.Error:
		res.StatusCode = e.Code
		if e.Message != "" {
			res.Error = e.Message
		}
	case *validate.FieldsError:
		res.StatusCode = fiber.StatusBadRequest
		res.Error = e.Fields
	case *apperrors.ValidationError:
		res.StatusCode = fiber.StatusBadRequest
		res.Error = e.Fields
	case *apperrors.StaleSessionError:
		res.StatusCode = fiber.StatusConflict
		res.Error = e.Error()
	case *apperrors.ConflictError:
		res.StatusCode = fiber.StatusConflict
		res.Error = e.Error()
	case *apperrors.QuotaExceededError:
		res.StatusCode = fiber.StatusInsufficientStorage
		res.Error = e.Error()
	default:
		if err != nil {
			res.Error = err.Error()
		}
	}

	if logger != nil && res.StatusCode >= fiber.StatusInternalServerError {
		logger.Error(err)
	}

	return res
}

func NewSuccess(msg string, data any, meta any) *Response {
	res := &Response{
		Success:    true,
		Message:    msg,
		StatusCode: fiber.StatusOK,
		Data:       data,
		Meta:       meta,
	}

	return res
}

func (r *Response) Send(ctx *fiber.Ctx) error {
	return ctx.Status(r.StatusCode).JSON(r)
}
