package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"splitledger/internal/backend"
	"splitledger/internal/config"
	"splitledger/internal/export"
	expgoogle "splitledger/internal/export/google"
	expmem "splitledger/internal/export/memory"
	applog "splitledger/internal/log"
	"splitledger/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting splitledger-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := backend.Create(cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer be.Cleanup()

	var writer export.SnapshotWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := expgoogle.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets export initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = expmem.New()
		logger.Info("Google Sheets disabled - exporting to memory only")
	}

	exportWorker := worker.NewExportWorker(be.Store, be.Directory, writer, cfg.ExportBatchSize)

	g, ctx := errgroup.WithContext(ctx)

	if be.Events != nil {
		g.Go(func() error {
			return be.Events.ConsumeGroupSync(ctx, exportWorker.HandleSyncMessage)
		})
	} else {
		logger.Info("AMQP unavailable - relying on periodic catch-up only")
	}

	g.Go(func() error {
		return exportWorker.RunCatchUp(ctx, cfg.ExportInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
