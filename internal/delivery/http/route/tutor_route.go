package route

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/handler"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/middleware"
)

func SetupTutorRoute(api *fiber.App, handler handler.TutorHandler, m *middleware.Middleware) {
	eventRouter := api.Group("/events")
	{
		eventRouter.Post("/", handler.AppendEvent)
		eventRouter.Get("/sessions/:session_id", handler.GetSessionEvents)
	}

	sessionRouter := api.Group("/sessions")
	{
		sessionRouter.Get("/active/:learner_id", handler.GetActiveSession)
	}

	ladderRouter := api.Group("/ladder")
	{
		ladderRouter.Get("/:session_id/:problem_id", handler.GetLadderState)
	}

	coverageRouter := api.Group("/coverage")
	{
		coverageRouter.Get("/:learner_id", handler.GetCoverageStats)
	}

	learnerRouter := api.Group("/learners")
	{
		learnerRouter.Put("/:learner_id/strategy", handler.UpdateStrategy)
	}

	api.Post("/replay", handler.Replay)

	reportRouter := api.Group("/report")
	{
		reportRouter.Get("/learners/:learner_id", handler.GetLearnerReport)
	}
}
