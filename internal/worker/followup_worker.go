// Package worker runs the background follow-up loop: periodic scans that
// publish reminders, and the consumer side that surfaces them.
package worker

import (
	"context"
	"time"

	applog "propcrm/internal/log"
	"propcrm/internal/services"
)

// Scanner is satisfied by *services.FollowUpScanner.
type Scanner interface {
	Scan(ctx context.Context) (services.ScanResult, error)
}

// FollowUpWorker scans the work queue on a fixed interval.
type FollowUpWorker struct {
	scanner  Scanner
	interval time.Duration
	logger   *applog.Logger
}

func NewFollowUpWorker(scanner Scanner, interval time.Duration, logger *applog.Logger) *FollowUpWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &FollowUpWorker{
		scanner:  scanner,
		interval: interval,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// Run scans once at startup, to catch anything missed while the worker was
// down, then every interval until ctx is cancelled.
func (w *FollowUpWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Follow-up worker started", "interval", w.interval.String())
	w.scan(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Follow-up worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *FollowUpWorker) scan(ctx context.Context) {
	start := time.Now()
	res, err := w.scanner.Scan(ctx)
	if err != nil {
		// Partial publish failures still count what was sent.
		w.logger.ErrorContext(ctx, "Follow-up scan failed",
			applog.FieldError, err,
			"published", res.Published,
			applog.FieldDuration, time.Since(start).Milliseconds())
		return
	}
	w.logger.DebugContext(ctx, "Follow-up scan completed",
		"published", res.Published,
		applog.FieldDuration, time.Since(start).Milliseconds())
}
