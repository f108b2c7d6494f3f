package config

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/sqltutor/sqltutor-be/database"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/handler"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/middleware"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/repository"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/route"
	"github.com/sqltutor/sqltutor-be/internal/delivery/http/usecase"
	"github.com/sqltutor/sqltutor-be/internal/pkg/coverage"
	"github.com/sqltutor/sqltutor-be/internal/pkg/kvstore"
	"github.com/sqltutor/sqltutor-be/internal/pkg/llm"
	"github.com/sqltutor/sqltutor-be/internal/pkg/validate"
	"gorm.io/gorm"
)

type BootstrapConfig struct {
	Api       *fiber.App
	Config    *viper.Viper
	DB        *gorm.DB
	Store     kvstore.Store
	Log       *logrus.Logger
	Validator *validate.Validator
}

func Bootstrap(config *BootstrapConfig) {

	mid := middleware.NewMiddleware(&middleware.MiddlewareConfig{
		Log:    config.Log,
		Config: config.Config,
	})

	var content llm.ContentProvider
	if config.Config != nil && config.Config.GetString("llm.api_key") != "" {
		content = llm.NewClient(
			config.Config.GetString("llm.api_key"),
			config.Config.GetString("llm.model"),
			config.Config.GetString("llm.base_url"),
		)
	}

	// Prefer the seeded concept catalog; fall back to the compiled-in
	// tables when the database copy is empty or unreadable.
	catalog, subtypes, err := database.LoadConceptMapping(config.DB)
	if err != nil {
		config.Log.Warnf("Failed to load concept mapping from database, using defaults: %v", err)
	}
	conceptMapper := coverage.NewMapper(catalog, subtypes)
	coverageEngine := coverage.NewEngine(
		conceptMapper,
		coverage.WeightsFromConfig(config.Config),
		coverage.ThresholdsFromConfig(config.Config),
	)

	eventRepo := repository.NewEventRepository(config.DB)
	profileRepo := repository.NewProfileRepository(config.Store)

	tutorUsecase := usecase.NewTutorEngineUsecase(usecase.TutorEngineConfig{
		DB:        config.DB,
		Events:    eventRepo,
		Profiles:  profileRepo,
		Coverage:  coverageEngine,
		Content:   content,
		Validator: config.Validator,
		Log:       config.Log,
		Config:    config.Config,
	})
	tutorHandler := handler.NewTutorHandler(config.Validator, config.Log, tutorUsecase)

	route.Setup(&route.RouteConfig{
		Api:          config.Api,
		Middleware:   mid,
		TutorHandler: tutorHandler,
	})

}
