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

	"github.com/kailas-cloud/docsync/internal/app"
	"github.com/kailas-cloud/docsync/internal/config"
	logpkg "github.com/kailas-cloud/docsync/internal/logger"
	"github.com/kailas-cloud/docsync/internal/metrics"
	"github.com/kailas-cloud/docsync/internal/telemetry"
	chiTransport "github.com/kailas-cloud/docsync/internal/transport/chi"
	"github.com/kailas-cloud/docsync/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docsync API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("index_addr", cfg.Index.Addr()),
		zap.String("index_name", cfg.Index.Name),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTel, err := telemetry.Setup(ctx, telemetry.Config{
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
		Headers:      cfg.Telemetry.Headers,
	})
	if err != nil {
		logger.Error("Telemetry setup failed, continuing without telemetry", zap.Error(err))
		shutdownTel = func(context.Context) error { return nil }
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTel(flushCtx); err != nil {
			logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}()

	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer a.Close()
	logger.Info("Connected to record store and search index")

	metrics.RegisterSyncMetrics()

	if cfg.Reconcile.Enabled {
		go func() {
			if err := a.Reconcile.Run(ctx, cfg.Reconcile.Interval()); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Reconcile loop stopped", zap.Error(err))
			}
		}()
	}

	server := chiTransport.NewServer(a.Documents, a.Ingestion, a.Health, logger).
		WithMaxUpload(int64(cfg.HTTP.MaxUploadMB) << 20)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chiTransport.NewRouter(server, logger, cfg.Auth.APIKeys),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
