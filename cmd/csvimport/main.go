package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yamdb/proj/internal/config"
	"yamdb/proj/internal/importer"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/storage/postgres"
)

func main() {
	dir := flag.String("dir", "", "directory holding the CSV files, overrides importer.dir")
	timeout := flag.Duration("timeout", 5*time.Minute, "import deadline")
	cfg := config.MustLoad(config.ResolvePath())
	log := logger.SetupLogger(cfg.Debug)
	if *dir == "" {
		*dir = cfg.Importer.Dir
	}
	if err := run(cfg, log, *dir, *timeout); err != nil {
		log.Error("import failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, dir string, timeout time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	storage, err := postgres.New(ctx, cfg.DB.Dsn, cfg.DB.MaxConns, cfg.DB.MaxConnIdleTime)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer storage.Close()
	if cfg.DB.Migrate {
		if err := storage.Migrate(); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	log.Info("importing csv files", "dir", dir)
	counts, err := importer.New(log, os.DirFS(dir), storage).Run(ctx)
	if err != nil {
		return err
	}
	log.Info("import finished", "rows", counts)
	return nil
}
