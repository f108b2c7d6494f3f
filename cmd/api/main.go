package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sqltutor/sqltutor-be/database"
	"github.com/sqltutor/sqltutor-be/internal/config"
	"github.com/sqltutor/sqltutor-be/internal/pkg/kvstore"
	"github.com/sqltutor/sqltutor-be/internal/pkg/validate"
)

func main() {
	viperConfig := config.NewViper()

	log := config.NewLogger(viperConfig)
	db := database.New(viperConfig)
	validator := validate.NewValidator()
	api := config.NewAPI(viperConfig, log)

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("Migrations completed successfully")

	// Run seeders
	if err := database.SeedConceptCatalog(db); err != nil {
		log.Fatalf("Failed to seed concept catalog: %v", err)
	}
	log.Info("Seeders completed successfully")

	store, err := kvstore.OpenBadger(kvstore.BadgerConfig{
		Path:       viperConfig.GetString("badger.path"),
		InMemory:   viperConfig.GetBool("badger.in_memory"),
		SyncWrites: viperConfig.GetBool("badger.sync_writes"),
	})
	if err != nil {
		log.Fatalf("Failed to open profile store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorf("Profile store close error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	defer stop()

	config.Bootstrap(&config.BootstrapConfig{
		Config:    viperConfig,
		Log:       log,
		Api:       api,
		Validator: validator,
		DB:        db,
		Store:     store,
	})

	listenAddr := ":8080"
	if addr := viperConfig.GetString("api.listen_addr"); addr != "" {
		listenAddr = addr
	}

	go func() {
		if err := api.Listen(listenAddr); err != nil {
			log.Fatalf("Failed to start API server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := api.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("API shutdown error: %v", err)
	}

	log.Info("Shutting down server...")

}
