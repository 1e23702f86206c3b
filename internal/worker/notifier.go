package worker

import (
	"context"
	"errors"
	"time"

	"propcrm/internal/amqp"
	"propcrm/internal/cache"
	applog "propcrm/internal/log"
)

var ErrInvalidReminder = errors.New("reminder without listing id")

// Notifier is the consumer side of follow-up reminders. Deliveries are
// at-least-once, so a reminder already seen for the same listing and day is
// acknowledged without being surfaced again.
type Notifier struct {
	seen   cache.Cache[time.Time]
	logger *applog.Logger
	sink   func(context.Context, *amqp.FollowUpReminder)
}

// NewNotifier surfaces reminders through sink; a nil sink only logs them.
func NewNotifier(seen cache.Cache[time.Time], logger *applog.Logger, sink func(context.Context, *amqp.FollowUpReminder)) *Notifier {
	if seen == nil {
		seen = cache.NewLRU[time.Time](1000, 36*time.Hour)
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Notifier{seen: seen, logger: logger.WithComponent(applog.ComponentWorker), sink: sink}
}

// HandleReminder matches the amqp consumer handler signature.
func (n *Notifier) HandleReminder(ctx context.Context, r *amqp.FollowUpReminder) error {
	if r == nil || r.ListingID == "" {
		return ErrInvalidReminder
	}
	key := r.ListingID + "|" + r.Timestamp.Format("2006-01-02")
	if _, dup := n.seen.Get(key); dup {
		n.logger.DebugContext(ctx, "Duplicate reminder dropped", applog.FieldListingID, r.ListingID)
		return nil
	}
	n.seen.Set(key, r.Timestamp)

	reasons := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		reasons[i] = string(reason)
	}
	n.logger.InfoContext(ctx, "Follow-up reminder",
		applog.FieldListingID, r.ListingID,
		"condo_name", r.Name,
		applog.FieldStatus, r.Status,
		"reasons", reasons,
		"aging_days", r.AgingDays)
	if n.sink != nil {
		n.sink(ctx, r)
	}
	return nil
}

// PublishReminder delivers r in process, for runs without a broker.
func (n *Notifier) PublishReminder(ctx context.Context, r *amqp.FollowUpReminder) error {
	return n.HandleReminder(ctx, r)
}
