package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/remedyhq/remedy/internal/config"
	"github.com/remedyhq/remedy/internal/loader"
	"github.com/remedyhq/remedy/internal/logging"
	"github.com/remedyhq/remedy/internal/recovery"
	"github.com/remedyhq/remedy/internal/store"
	"github.com/remedyhq/remedy/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_driver", cfg.Store.Driver,
		"source_dir", cfg.Loader.SourceDir,
		"loader_max_concurrent", cfg.Loader.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Open the session store
	ctx := context.Background()
	sessions, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN())
	if err != nil {
		slog.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	slog.Info("session store ready", "driver", cfg.Store.Driver)

	// Create the source loader and recovery service
	sources := loader.NewFileLoader(cfg.Loader.SourceDir).WithMaxBytes(cfg.Loader.MaxSourceBytes)
	service := recovery.NewService(sessions, sources, recovery.ServiceConfig{
		LoadTimeout:        cfg.Loader.LoadTimeout,
		MaxConcurrentLoads: cfg.Loader.MaxConcurrent,
		MaxLoadWait:        cfg.Loader.MaxWaitTime,
	})

	// Create server with config
	server := web.NewServer(service, sessions, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for in-flight source loads to drain before dropping sessions
		limiter := service.LimiterStatus()
		if limiter.ActiveLoads > 0 {
			slog.Info("waiting for source loads to complete", "active", limiter.ActiveLoads)
		}
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("source loads did not complete in time", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
