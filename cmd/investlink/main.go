package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/9Skies9/InvestLink/internal/app"
	"github.com/9Skies9/InvestLink/internal/config"
	logpkg "github.com/9Skies9/InvestLink/internal/logger"
	"github.com/9Skies9/InvestLink/internal/metrics"
	chiTransport "github.com/9Skies9/InvestLink/internal/transport/chi"
	"github.com/9Skies9/InvestLink/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting InvestLink API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("snapshot_driver", cfg.Snapshot.Driver),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	// Register metrics explicitly (no init()).
	metrics.Register()

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build engine", zap.Error(err))
	}
	defer a.Close()

	if cfg.Recommend.LoadOnStart {
		if err := a.Encoder.Warm(ctx); err != nil {
			logger.Warn("Embedding warm-up failed", zap.Error(err))
		}
		if err := a.Engine.Load(ctx); err != nil {
			logger.Fatal("Failed to load engine", zap.Error(err))
		}
	}

	server := chiTransport.NewServer(a.Engine, a.Health, logger,
		chiTransport.WithAPIKeys(cfg.Auth.APIKeys),
		chiTransport.WithUsage(a.Usage),
		chiTransport.WithCORS(cfg.HTTP.CORSOrigins),
		chiTransport.WithRateLimit(cfg.HTTP.RateLimitPerMin, time.Minute),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
