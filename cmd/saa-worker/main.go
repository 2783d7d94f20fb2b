package main

import (
	"context"
	"errors"
	"os"
	"time"

	"saa/internal/cli"
	"saa/internal/backend"
	"saa/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")).Logger)
	logger := cli.SetupLogger(cfg.LogLevel)

	logger.Info("Starting saa-worker")
	if cfg.DataBackend == string(backend.MemoryBackend) {
		logger.Warn("Worker uses an in-memory repository, it will only publish projects it creates itself")
	}

	res := cli.InitBackend(context.Background(), logger.Logger, cfg)
	publisher := cli.InitPublisher(context.Background(), logger.Logger, cfg)
	publishWorker := worker.NewPublishWorker(res.Repository, publisher, cfg.PublishConcurrency)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", "error", err)
		}
	})

	// Publish everything once so changes made while the worker was down
	// reach the spreadsheet.
	logger.Info("Performing startup publish")
	if err := publishWorker.SyncAll(ctx); err != nil {
		logger.Error("Startup publish failed", "error", err)
	}

	if res.Events != nil {
		go func() {
			err := res.Events.ConsumeControlChanged(ctx, publishWorker.HandleControlChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	} else {
		logger.Info("AMQP disabled, relying on periodic publishing only")
	}

	if cfg.PublishInterval > 0 {
		go publishWorker.Run(ctx, cfg.PublishInterval)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
