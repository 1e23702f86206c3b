package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"propcrm/internal/core"
	"propcrm/internal/export"
	applog "propcrm/internal/log"
	"propcrm/internal/store"
)

// ExportService builds the CSV backup of every listing.
type ExportService struct {
	store store.Store
	now   func() time.Time
}

func NewExportService(st store.Store) *ExportService {
	return &ExportService{store: st, now: time.Now}
}

func (s *ExportService) SetClock(now func() time.Time) { s.now = now }

// Backup is a rendered CSV export.
type Backup struct {
	Filename string
	Body     string
	Rows     int
}

// Backup loads listings, deals and photo counts concurrently. The first
// failure cancels the other reads.
func (s *ExportService) Backup(ctx context.Context) (Backup, error) {
	var (
		listings []core.Listing
		deals    []core.Deal
		counts   map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listings, err = s.store.ListListings(gctx)
		if err != nil {
			return fmt.Errorf("listings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		deals, err = s.store.ListDeals(gctx, nil)
		if err != nil {
			return fmt.Errorf("deals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		counts, err = s.store.CountPhotos(gctx)
		if err != nil {
			return fmt.Errorf("photo counts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Backup{}, fmt.Errorf("load backup data: %w", err)
	}

	byListing := make(map[string]core.Deal, len(deals))
	for _, d := range deals {
		byListing[d.ListingID] = d
	}
	rows := export.BackupRows(listings, byListing, counts)
	b := Backup{
		Filename: export.BackupFilename(s.now()),
		Body:     export.ToCSV(rows),
		Rows:     len(rows),
	}
	slog.InfoContext(ctx, "Backup exported",
		"rows", b.Rows,
		"deals", len(deals),
		applog.FieldOperation, applog.OpExport)
	return b, nil
}
