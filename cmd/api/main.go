package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"yamdb/proj/internal/api/tasks"
	"yamdb/proj/internal/config"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/services"
	"yamdb/proj/internal/storage/postgres"
	"yamdb/proj/internal/storage/postgres/models"
)

const version = "1.0.0"

func main() {
	cfg := config.MustLoad(config.ResolvePath())
	log := logger.SetupLogger(cfg.Debug)
	if err := run(cfg, log); err != nil {
		log.Error("shutting down the server", "reason", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	storage, err := postgres.New(ctx, cfg.DB.Dsn, cfg.DB.MaxConns, cfg.DB.MaxConnIdleTime)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer storage.Close()
	log.Info("database connection established")
	if cfg.DB.Migrate {
		if err := storage.Migrate(); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("database schema is up to date")
	}
	bgTasks := tasks.New(log, cfg.Tasks.Workers, cfg.Tasks.QueueSize)
	bgTasks.Run()
	app := NewApplication(
		cfg,
		log,
		services.PostgresStorage(models.New(storage)),
		services.NewMailer(cfg),
		bgTasks,
	)
	return app.serve()
}
