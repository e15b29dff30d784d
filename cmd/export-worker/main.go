package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budget/internal/amqp"
	"budget/internal/config"
	"budget/internal/export"
	gsheet "budget/internal/export/google"
	"budget/internal/log"
	"budget/internal/storage"
	"budget/internal/worker"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("Starting export-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(context.Background(), cfg.Backend, cfg.SQLiteDBPath, cfg.PostgresURL)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "backend", cfg.Backend)
		os.Exit(1)
	}
	defer store.Close()

	// Google Sheets is optional; without it the worker only drains AMQP.
	var writer export.EntryWriter
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = sheetsClient
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if writer == nil {
		logger.Info("No export destination configured, consuming and dropping events")
		if err := amqp.ConsumeLedgerEventsWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.EventsQueue, func(*amqp.LedgerEventMessage) error {
			return nil
		}); err != nil && ctx.Err() == nil {
			logger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
		return
	}

	exportWorker := worker.NewExportWorker(store, writer, nil, cfg.ExportBatchSize)

	// Drain anything missed while the worker was down.
	logger.Info("Performing startup sync check...")
	if err := exportWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqp.ConsumeLedgerEventsWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.EventsQueue, func(msg *amqp.LedgerEventMessage) error {
			return exportWorker.HandleLedgerEvent(ctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := exportWorker.ProcessPending(ctx); err != nil {
					logger.Error("Periodic export failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
