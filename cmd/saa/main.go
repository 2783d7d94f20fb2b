package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"saa/internal/cache"
	"saa/internal/cli"
	apphttp "saa/internal/http"
	"saa/internal/middleware/ratelimit"
	"saa/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")).Logger)
	logger := cli.SetupLogger(cfg.LogLevel)

	res := cli.InitBackend(context.Background(), logger.Logger, cfg)

	workbooks := cache.NewLRUCache[[]byte](cfg.ExportCacheSize, cfg.ExportCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(workbooks)
	cacheManager.StartCleanup(10 * time.Minute)

	ledger := services.NewLedgerService(res.Repository, res.EventPublisher())
	exports := services.NewExportService(res.Repository, workbooks)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		Ledger:         ledger,
		Exports:        exports,
		Logger:         logger,
		RateLimit:      ratelimit.DefaultConfig(),
		TrustedProxies: cfg.TrustedProxies,
		WorkbookCache:  workbooks,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", "error", err)
		}
	})

	logger.Info("Starting saa server", "port", cfg.Port, "backend", cfg.DataBackend, "events", cfg.AMQPEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
