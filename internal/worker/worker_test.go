package worker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"propcrm/internal/amqp"
	"propcrm/internal/cache"
	"propcrm/internal/core"
	applog "propcrm/internal/log"
	"propcrm/internal/services"
	"propcrm/internal/store/memory"
)

type countingScanner struct {
	calls atomic.Int32
	err   error
}

func (s *countingScanner) Scan(context.Context) (services.ScanResult, error) {
	s.calls.Add(1)
	return services.ScanResult{Published: 1}, s.err
}

func quietLogger(buf *bytes.Buffer) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Output = buf
	return applog.New(cfg)
}

func TestFollowUpWorkerScansOnStartAndTick(t *testing.T) {
	s := &countingScanner{err: errors.New("broker down")}
	var buf bytes.Buffer
	w := NewFollowUpWorker(s, 10*time.Millisecond, quietLogger(&buf))

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	if err := w.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v", err)
	}
	if n := s.calls.Load(); n < 2 {
		t.Fatalf("scans = %d, want startup scan plus ticks", n)
	}
	if !strings.Contains(buf.String(), "Follow-up scan failed") {
		t.Fatalf("scan errors must be logged, got %q", buf.String())
	}
}

func TestNotifierDropsRedeliveries(t *testing.T) {
	var surfaced []string
	var buf bytes.Buffer
	n := NewNotifier(cache.NewLRU[time.Time](10, time.Hour), quietLogger(&buf), func(_ context.Context, r *amqp.FollowUpReminder) {
		surfaced = append(surfaced, r.ListingID)
	})
	ctx := context.Background()
	day := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	r := &amqp.FollowUpReminder{ListingID: "l1", Name: "Arte", Reasons: []amqp.ReminderReason{amqp.ReasonDue}, Timestamp: day}

	for i := 0; i < 3; i++ {
		if err := n.HandleReminder(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	next := *r
	next.Timestamp = day.AddDate(0, 0, 1)
	n.HandleReminder(ctx, &next)

	if len(surfaced) != 2 {
		t.Fatalf("surfaced = %v", surfaced)
	}
	if err := n.HandleReminder(ctx, &amqp.FollowUpReminder{}); !errors.Is(err, ErrInvalidReminder) {
		t.Fatalf("empty reminder err = %v", err)
	}
}

func TestScannerDeliversInProcess(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.Local)
	overdue := now.AddDate(0, 0, -1)
	if _, err := mem.CreateListing(ctx, core.Listing{Type: core.Rent, Status: core.StatusFollowUp, Name: "Arte", NextFollowUp: &overdue, LastUpdate: &now}); err != nil {
		t.Fatal(err)
	}
	if _, err := mem.CreateListing(ctx, core.Listing{Type: core.Sale, Status: core.StatusClosed, Name: "Done", NextFollowUp: &overdue, LastUpdate: &now}); err != nil {
		t.Fatal(err)
	}

	var got []string
	var buf bytes.Buffer
	n := NewNotifier(nil, quietLogger(&buf), func(_ context.Context, r *amqp.FollowUpReminder) {
		got = append(got, r.Name)
	})
	scanner := services.NewFollowUpScanner(mem, n, 7)
	scanner.SetClock(func() time.Time { return now })

	res, err := scanner.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Published != 1 || len(got) != 1 || got[0] != "Arte" {
		t.Fatalf("result = %+v, surfaced = %v", res, got)
	}
}
