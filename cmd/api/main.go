package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/inhouse-league/internal/app"
	"github.com/riskibarqy/inhouse-league/internal/config"
	"github.com/riskibarqy/inhouse-league/internal/observability"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logging.Logger) error {
	telemetry, err := observability.Start(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()
	logger = telemetry.Logger
	logging.SetDefault(logger)

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resumed, err := application.Orchestrator.Resume(ctx)
	if err != nil {
		logger.Error("resume lobbies failed", "error", err)
	} else if resumed > 0 {
		logger.Info("lobbies resumed", "count", resumed)
	}

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		_ = application.Orchestrator.Run(ctx)
	}()

	if application.Discord != nil {
		if err := application.Discord.Start(ctx); err != nil {
			stop()
			<-sweepDone
			_ = application.Close(context.Background())
			return err
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := application.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		runErr = err
		stop()
	}
	<-sweepDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		runErr = errors.Join(runErr, err)
	}
	if err := application.Close(shutdownCtx); err != nil {
		logger.Error("release resources failed", "error", err)
		runErr = errors.Join(runErr, err)
	}

	logger.Info("http server stopped")
	return runErr
}
