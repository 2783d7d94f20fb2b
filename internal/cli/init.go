// Package cli holds the process bootstrap shared by cmd/saa and
// cmd/saa-worker: env file, logger, config, backend and shutdown handling.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"saa/internal/backend"
	"saa/internal/config"
	applog "saa/internal/log"
	"saa/internal/sheets"
)

// SetupLogger installs an app-scoped text logger at the given LOG_LEVEL as
// the process default.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile reads .env when present. Deployments set the environment
// directly, so a missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

func fatal(logger *slog.Logger, msg string, err error, args ...any) {
	logger.Error(msg, append([]any{applog.FieldError, err}, args...)...)
	os.Exit(1)
}

// LoadAndValidateConfig exits the process when the environment is invalid.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fatal(logger, "Configuration validation failed", err)
	}
	return cfg
}

func backendConfig(logger *slog.Logger, cfg *config.Config) (backend.Config, backend.Factory) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		fatal(logger, "Invalid backend configuration", err)
	}
	return bc, backend.NewFactory(logger)
}

// InitBackend opens the configured repository and event client, exiting on
// failure.
func InitBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.Result {
	bc, factory := backendConfig(logger, cfg)
	res, err := factory.CreateBackend(ctx, bc)
	if err != nil {
		fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	return res
}

// InitPublisher creates the worker's spreadsheet publisher, exiting on
// failure.
func InitPublisher(ctx context.Context, logger *slog.Logger, cfg *config.Config) sheets.Publisher {
	bc, factory := backendConfig(logger, cfg)
	pub, err := factory.CreatePublisher(ctx, bc)
	if err != nil {
		fatal(logger, "Failed to initialize spreadsheet publisher", err)
	}
	return pub
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. After
// the signal it runs cleanup, waiting at most timeout, and then closes done.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()
		stop()
		logger.Info("Shutdown signal received")

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			if cleanup != nil {
				cleanup()
			}
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached", "timeout", timeout)
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until the shutdown started by GracefulShutdown has
// finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
