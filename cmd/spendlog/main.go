package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/cli"
	apphttp "spendlog/internal/http"
	"spendlog/internal/log"
	"spendlog/internal/services"
	"spendlog/internal/utils"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.Log.Level)

	ctx, stop := cli.SignalContext()
	defer stop()

	st, backend := cli.OpenStore(ctx, logger, cfg)
	clock := utils.SystemClock{}
	svc := services.NewExpenseService(st, backend.Publisher, clock)

	srv := apphttp.NewServer(":"+cfg.HTTP.Port, svc, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimit.PerMinute,
		Clock:              clock,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting spendlog server",
			"port", cfg.HTTP.Port,
			"backend", cfg.Storage.Backend,
			"amqp", cfg.AMQPEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	if cerr := svc.Close(); cerr != nil {
		logger.Warn("Failed to close publisher", "error", cerr)
	}
	if backend.Cleanup != nil {
		if cerr := backend.Cleanup(); cerr != nil {
			logger.Warn("Backend cleanup failed", "error", cerr)
		}
	}

	if err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
