package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"budget/internal/amqp"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/storage"
	"budget/internal/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentBills)
	log.SetDefault(logger)

	logger.Info("Starting bills-worker")

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

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.RemindersQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reminderWorker := worker.NewReminderWorker(store, amqpClient, cfg.DueSoonWindow())

	logger.Info("Scanning bills",
		"interval", cfg.BillCheckInterval,
		"due_soon_days", cfg.DueSoonDays)

	if err := reminderWorker.Run(ctx, cfg.BillCheckInterval); err != nil && ctx.Err() == nil {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
