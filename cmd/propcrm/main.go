package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"propcrm/internal/auth"
	"propcrm/internal/backend"
	"propcrm/internal/cache"
	"propcrm/internal/cli"
	"propcrm/internal/core"
	apphttp "propcrm/internal/http"
	applog "propcrm/internal/log"
	"propcrm/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	months := cache.NewLRU[core.MonthIncome](64, 10*time.Minute)
	dashboards := cache.NewLRU[core.Dashboard](64, 10*time.Minute)
	income := services.NewIncomeService(res.Store, months, dashboards)

	opts := []services.ListingOption{services.WithIncomeInvalidation(income.Invalidate)}
	if res.AMQP != nil {
		opts = append(opts, services.WithEvents(res.AMQP))
	}
	listings := services.NewListingService(res.Store, res.Objects, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Listings:    listings,
		Income:      income,
		Export:      services.NewExportService(res.Store),
		Objects:     res.Objects,
		Ping:        res.Ping,
		Auth:        auth.New(cfg.JWTSecret, cfg.APIKeyHash),
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	go cache.NewJanitor(months, dashboards).Run(ctx, 5*time.Minute)

	logger.Info("Starting propcrm server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"object_store", cfg.ObjectStore,
		"auth_enabled", cfg.AuthEnabled(),
		applog.FieldOperation, applog.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
