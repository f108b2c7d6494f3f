package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/domain"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/entity"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/usecase"
	"github.com/sqltutor/sqltutor-be/internal/pkg/response"
	"github.com/sqltutor/sqltutor-be/internal/pkg/validate"
)

type (
	TutorHandler interface {
		AppendEvent(ctx *fiber.Ctx) error
		GetSessionEvents(ctx *fiber.Ctx) error
		GetActiveSession(ctx *fiber.Ctx) error
		GetLadderState(ctx *fiber.Ctx) error
		GetCoverageStats(ctx *fiber.Ctx) error
		UpdateStrategy(ctx *fiber.Ctx) error
		Replay(ctx *fiber.Ctx) error
		GetLearnerReport(ctx *fiber.Ctx) error
	}

	tutorHandler struct {
		validator *validate.Validator
		logger    *logrus.Logger
		usecase   usecase.TutorEngineUsecase
	}
)

func NewTutorHandler(validator *validate.Validator, logger *logrus.Logger, usecase usecase.TutorEngineUsecase) TutorHandler {
	return &tutorHandler{
		validator: validator,
		logger:    logger,
		usecase:   usecase,
	}
}

// POST /events
func (h *tutorHandler) AppendEvent(ctx *fiber.Ctx) error {
	var req entity.AppendEventRequest

	if err := h.validator.ParseAndValidate(ctx, &req); err != nil {
		return response.NewFailed(domain.TUTOR_EVENT_APPEND_FAILED, err, h.logger).Send(ctx)
	}

	result, err := h.usecase.AppendEvent(ctx.UserContext(), &req)
	if err != nil {
		return response.NewFailed(domain.TUTOR_EVENT_APPEND_FAILED, err, h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.TUTOR_EVENT_APPEND_SUCCESS, result, nil).Send(ctx)
}

// GET /events/sessions/:session_id
func (h *tutorHandler) GetSessionEvents(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.TUTOR_SESSION_EVENTS_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	events, err := h.usecase.GetSessionEvents(ctx.UserContext(), sessionID)
	if err != nil {
		return response.NewFailed(domain.TUTOR_SESSION_EVENTS_FAILED, err, h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.TUTOR_SESSION_EVENTS_SUCCESS, events, nil).Send(ctx)
}

// GET /sessions/active/:learner_id
func (h *tutorHandler) GetActiveSession(ctx *fiber.Ctx) error {
	learnerID := ctx.Params("learner_id")
	if learnerID == "" {
		return response.NewFailed(domain.TUTOR_ACTIVE_SESSION_FAILED, fiber.NewError(fiber.StatusBadRequest, "learner_id is required"), h.logger).Send(ctx)
	}

	session, err := h.usecase.GetActiveSession(ctx.UserContext(), learnerID)
	if err != nil {
		return response.NewFailed(domain.TUTOR_ACTIVE_SESSION_FAILED, err, h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.TUTOR_ACTIVE_SESSION_SUCCESS, session, nil).Send(ctx)
}

// GET /ladder/:session_id/:problem_id
func (h *tutorHandler) GetLadderState(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	problemID := ctx.Params("problem_id")
	if sessionID == "" || problemID == "" {
		return response.NewFailed(domain.TUTOR_LADDER_STATE_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id and problem_id are required"), h.logger).Send(ctx)
	}

	state, err := h.usecase.GetLadderState(ctx.UserContext(), sessionID, problemID)
	if err != nil {
		return response.NewFailed(domain.TUTOR_LADDER_STATE_FAILED, err, h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.TUTOR_LADDER_STATE_SUCCESS, state, nil).Send(ctx)
}

// GET /coverage/:learner_id
func (h *tutorHandler) GetCoverageStats(ctx *fiber.Ctx) error {
	learnerID := ctx.Params("learner_id")
	if learnerID == "" {
		return response.NewFailed(domain.TUTOR_COVERAGE_STATS_FAILED, fiber.NewError(fiber.StatusBadRequest, "learner_id is required"), h.logger).Send(ctx)
	}

	stats, err := h.usecase.GetCoverageStats(ctx.UserContext(), learnerID)
	if err != nil {
		return response.NewFailed(domain.TUTOR_COVERAGE_STATS_FAILED, err, h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.TUTOR_COVERAGE_STATS_SUCCESS, stats, nil).Send(ctx)
}

// PUT /learners/:learner_id/strategy
func (h *tutorHandler) UpdateStrategy(ctx *fiber.Ctx) error {
	learnerID := ctx.Params("learner_id")
	if learnerID == "" {
		return response.NewFailed(domain.TUTOR_UPDATE_STRATEGY_FAILED, fiber.NewError(fiber.StatusBadRequest, "learner_id is required"), h.logger).Send(ctx)
	}

	var req entity.UpdateStrategyRequest
	if err := h.validator.ParseAndValidate(ctx, &req); err != nil {
		return response.NewFailed(domain.TUTOR_UPDATE_STRATEGY_FAILED, err, h.logger).Send(ctx)
	}

	result, err := h.usecase.UpdateStrategy(ctx.UserContext(), learnerID, &req)
	if err != nil {
		return response.NewFailed(domain.TUTOR_UPDATE_STRATEGY_FAILED, err, h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.TUTOR_UPDATE_STRATEGY_SUCCESS, result, nil).Send(ctx)
}

// POST /replay
func (h *tutorHandler) Replay(ctx *fiber.Ctx) error {
	var req entity.ReplayRequest
	if err := h.validator.ParseAndValidate(ctx, &req); err != nil {
		return response.NewFailed(domain.TUTOR_REPLAY_FAILED, err, h.logger).Send(ctx)
	}

	result, err := h.usecase.Replay(ctx.UserContext(), &req)
	if err != nil {
		return response.NewFailed(domain.TUTOR_REPLAY_FAILED, err, h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.TUTOR_REPLAY_SUCCESS, result, nil).Send(ctx)
}

// GET /report/learners/:learner_id
func (h *tutorHandler) GetLearnerReport(ctx *fiber.Ctx) error {
	learnerID := ctx.Params("learner_id")
	if learnerID == "" {
		return response.NewFailed(domain.TUTOR_LEARNER_REPORT_FAILED, fiber.NewError(fiber.StatusBadRequest, "learner_id is required"), h.logger).Send(ctx)
	}

	report, err := h.usecase.LearnerReport(ctx.UserContext(), learnerID)
	if err != nil {
		return response.NewFailed(domain.TUTOR_LEARNER_REPORT_FAILED, err, h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.TUTOR_LEARNER_REPORT_SUCCESS, report, nil).Send(ctx)
}
