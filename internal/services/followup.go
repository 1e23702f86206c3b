package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"propcrm/internal/amqp"
	"propcrm/internal/core"
	applog "propcrm/internal/log"
)

// ReminderPublisher delivers follow-up reminders.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, r *amqp.FollowUpReminder) error
}

// WorkLister is the part of the listing store the scanner reads.
type WorkLister interface {
	ListWork(ctx context.Context, now time.Time) ([]core.WorkItem, error)
}

// FollowUpScanner finds listings whose follow-up is due or which went cold
// and publishes one reminder per listing per day.
type FollowUpScanner struct {
	store     WorkLister
	publisher ReminderPublisher
	coldAfter int
	now       func() time.Time

	mu   sync.Mutex
	sent map[string]string // listing id -> day of the last reminder
}

func NewFollowUpScanner(st WorkLister, pub ReminderPublisher, coldAfterDays int) *FollowUpScanner {
	if coldAfterDays <= 0 {
		coldAfterDays = core.ColdAfterDays
	}
	return &FollowUpScanner{
		store:     st,
		publisher: pub,
		coldAfter: coldAfterDays,
		now:       time.Now,
		sent:      make(map[string]string),
	}
}

func (s *FollowUpScanner) SetClock(now func() time.Time) { s.now = now }

// ScanResult summarizes one scan.
type ScanResult struct {
	Scanned   int
	Due       int
	Cold      int
	Published int
	Skipped   int
}

// Scan checks every open listing. Closed and inactive listings never get
// reminders. Publish failures do not stop the scan; they are joined into
// the returned error and retried on the next scan.
func (s *FollowUpScanner) Scan(ctx context.Context) (ScanResult, error) {
	now := s.now()
	today := core.StartOfDay(now).Format("2006-01-02")
	items, err := s.store.ListWork(ctx, now)
	if err != nil {
		return ScanResult{}, fmt.Errorf("list work queue: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, day := range s.sent {
		if day != today {
			delete(s.sent, id)
		}
	}

	var res ScanResult
	var errs []error
	for _, it := range core.RankWorkQueue(items) {
		if it.Status == core.StatusClosed || it.Status == core.StatusInactive {
			continue
		}
		res.Scanned++
		reasons := s.reasons(it, now)
		if len(reasons) == 0 {
			continue
		}
		for _, r := range reasons {
			if r == amqp.ReasonDue {
				res.Due++
			} else {
				res.Cold++
			}
		}
		if s.sent[it.ID] == today {
			res.Skipped++
			continue
		}
		reminder := &amqp.FollowUpReminder{
			ListingID:    it.ID,
			Name:         it.Name,
			Status:       string(it.Status),
			Reasons:      reasons,
			AgingDays:    it.AgingDays,
			NextFollowUp: it.NextFollowUp,
			Timestamp:    now,
		}
		if err := s.publisher.PublishReminder(ctx, reminder); err != nil {
			errs = append(errs, fmt.Errorf("reminder for %s: %w", it.ID, err))
			continue
		}
		s.sent[it.ID] = today
		res.Published++
	}

	slog.InfoContext(ctx, "Follow-up scan finished",
		"scanned", res.Scanned,
		"due", res.Due,
		"cold", res.Cold,
		"published", res.Published,
		"skipped", res.Skipped,
		applog.FieldOperation, applog.OpScan)
	return res, errors.Join(errs...)
}

func (s *FollowUpScanner) reasons(it core.WorkItem, now time.Time) []amqp.ReminderReason {
	var out []amqp.ReminderReason
	if core.IsFollowUpDue(it.NextFollowUp, now) {
		out = append(out, amqp.ReasonDue)
	}
	if it.AgingDays >= s.coldAfter {
		out = append(out, amqp.ReasonCold)
	}
	return out
}
