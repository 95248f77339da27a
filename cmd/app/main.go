package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courtbook/internal/availability"
	"courtbook/internal/config"
	"courtbook/internal/db"
	"courtbook/internal/feed"
	"courtbook/internal/ledger"
	"courtbook/internal/logger"
	"courtbook/internal/notify"
	"courtbook/internal/projection"
	"courtbook/internal/server"
)

func main() {
	logger.Init()
	logger.Info("Starting courtbook")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	backend := ledger.NewPostgres(database, cfg.Pricing())
	index := projection.NewIndex(cfg.FacilityID)

	eventFeed := feed.New(backend, index, 2*time.Second)
	if err := eventFeed.Rebuild(context.Background()); err != nil {
		logger.Fatalf("Failed to rebuild availability index: %v", err)
	}
	logger.Infof("Availability index rebuilt, last sequence %d", index.LastSequence())

	engine := availability.NewEngine(index, availability.Rules{
		OpenHour:       cfg.OpenHour,
		CloseHour:      cfg.CloseHour,
		ClosedWeekdays: cfg.ClosedWeekdays,
		Granularity:    cfg.SlotGranularity,
	})

	notifier := notify.New(cfg.RedisAddr)
	defer notifier.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eventFeed.Start(ctx)
	go notifier.Start(ctx)

	srv := server.New(cfg, server.Deps{
		DB:       database,
		Index:    index,
		Engine:   engine,
		Backend:  backend,
		Notifier: notifier,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
