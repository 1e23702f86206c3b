package main

import (
	"context"
	"errors"
	"os"
	"time"

	"propcrm/internal/amqp"
	"propcrm/internal/backend"
	"propcrm/internal/cache"
	"propcrm/internal/cli"
	applog "propcrm/internal/log"
	"propcrm/internal/services"
	"propcrm/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting followup-worker")
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

	seen := cache.NewLRU[time.Time](5000, 36*time.Hour)
	notifier := worker.NewNotifier(seen, logger, nil)

	// Without a broker reminders go straight to the notifier.
	var publisher services.ReminderPublisher = notifier
	if res.AMQP != nil {
		publisher = res.AMQP
	}
	scanner := services.NewFollowUpScanner(res.Store, publisher, cfg.ColdAfterDays)
	followUps := worker.NewFollowUpWorker(scanner, cfg.FollowUpInterval, logger)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(context.Context) {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	go cache.NewJanitor(seen).Run(ctx, time.Hour)

	if res.AMQP != nil {
		go consume(ctx, res.AMQP, notifier, logger)
	} else {
		logger.Info("AMQP not configured, reminders are logged in process")
	}

	if err := followUps.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Follow-up worker stopped", applog.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("followup-worker stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}

func consume(ctx context.Context, client *amqp.Client, n *worker.Notifier, logger *applog.Logger) {
	err := client.ConsumeReminders(ctx, n.HandleReminder)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Reminder consumption failed", applog.FieldError, err)
	}
}
