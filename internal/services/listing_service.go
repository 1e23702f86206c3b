package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"propcrm/internal/amqp"
	"propcrm/internal/core"
	applog "propcrm/internal/log"
	"propcrm/internal/objectstore"
	"propcrm/internal/store"
)

// EventPublisher receives listing change notifications.
type EventPublisher interface {
	PublishListingEvent(ctx context.Context, e *amqp.ListingEvent) error
}

// ListingService runs the listing workflow over a record store and an
// object store.
type ListingService struct {
	store        store.Store
	objects      objectstore.Store
	events       EventPublisher
	onDealChange func()
	now          func() time.Time
}

type ListingOption func(*ListingService)

// WithEvents publishes a ListingEvent after every successful write.
func WithEvents(p EventPublisher) ListingOption {
	return func(s *ListingService) { s.events = p }
}

// WithIncomeInvalidation registers fn to run whenever deal or listing data
// that income views depend on changes.
func WithIncomeInvalidation(fn func()) ListingOption {
	return func(s *ListingService) { s.onDealChange = fn }
}

func WithClock(now func() time.Time) ListingOption {
	return func(s *ListingService) { s.now = now }
}

func NewListingService(st store.Store, objects objectstore.Store, opts ...ListingOption) *ListingService {
	s := &ListingService{store: st, objects: objects, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// WorkQueue is a ranked, filtered queue plus the unfiltered badge counts.
type WorkQueue struct {
	Items  []core.WorkItem
	Counts core.QueueCounts
}

func (s *ListingService) WorkQueue(ctx context.Context, f core.QueueFilter) (WorkQueue, error) {
	now := s.now()
	items, err := s.store.ListWork(ctx, now)
	if err != nil {
		return WorkQueue{}, fmt.Errorf("list work queue: %w", err)
	}
	return WorkQueue{
		Items:  core.RankWorkQueue(core.FilterWorkQueue(items, f)),
		Counts: core.CountQueue(items, now),
	}, nil
}

// PhotoView is a photo row with its public URL.
type PhotoView struct {
	core.Photo
	URL string
}

// ListingDetail is everything the detail screen shows.
type ListingDetail struct {
	core.Listing
	AgingDays int
	Photos    []PhotoView
	// LegacyPhotoURLs are references stored on the listing row itself.
	LegacyPhotoURLs []string
	Deal            *core.Deal
	Income          *core.Income
}

func (s *ListingService) Get(ctx context.Context, id string) (ListingDetail, error) {
	l, err := s.store.GetListing(ctx, id)
	if err != nil {
		return ListingDetail{}, err
	}
	photos, err := s.store.ListPhotos(ctx, id)
	if err != nil {
		return ListingDetail{}, fmt.Errorf("list photos: %w", err)
	}
	d := ListingDetail{
		Listing:   l,
		AgingDays: core.AgingDays(l, s.now()),
		Photos:    make([]PhotoView, 0, len(photos)),
	}
	for _, p := range photos {
		d.Photos = append(d.Photos, PhotoView{Photo: p, URL: s.objects.PublicURL(p.StoragePath)})
	}
	for _, p := range core.StoragePaths(l.PhotoRefs, s.objects.Bucket()) {
		d.LegacyPhotoURLs = append(d.LegacyPhotoURLs, s.objects.PublicURL(p))
	}

	deal, err := s.store.GetDeal(ctx, id)
	switch {
	case err == nil:
		inc := deal.Income()
		d.Deal, d.Income = &deal, &inc
	case !errors.Is(err, store.ErrNotFound):
		return ListingDetail{}, fmt.Errorf("get deal: %w", err)
	}
	return d, nil
}

// Create stores a listing from the full form.
func (s *ListingService) Create(ctx context.Context, l core.Listing) (core.Listing, error) {
	now := s.now()
	l.ID = ""
	if l.Status == "" {
		l.Status = core.StatusNew
	}
	l.CreatedAt = now
	l.Touch(now)
	l.Normalize()
	if err := l.Validate(); err != nil {
		return core.Listing{}, err
	}
	created, err := s.store.CreateListing(ctx, l)
	if err != nil {
		return core.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	slog.InfoContext(ctx, "Listing created",
		applog.FieldListingID, created.ID,
		applog.FieldStatus, created.Status,
		applog.FieldOperation, applog.OpCreate)
	s.publish(ctx, amqp.EventCreated, created)
	return created, nil
}

// QuickCapture parses pasted listing text and saves the draft straight into
// the inbox.
func (s *ListingService) QuickCapture(ctx context.Context, raw string) (core.Listing, error) {
	draft := core.ParseQuickCapture(raw)
	l := draft.Listing(s.now())
	if err := l.Validate(); err != nil {
		return core.Listing{}, err
	}
	created, err := s.store.CreateListing(ctx, l)
	if err != nil {
		return core.Listing{}, fmt.Errorf("create quick listing: %w", err)
	}
	slog.InfoContext(ctx, "Quick listing captured",
		applog.FieldListingID, created.ID,
		"type", created.Type,
		applog.FieldOperation, applog.OpQuick)
	s.publish(ctx, amqp.EventCreated, created)
	return created, nil
}

// Update applies a partial edit. Every edit refreshes last_update.
func (s *ListingService) Update(ctx context.Context, id string, p ListingPatch) (core.Listing, error) {
	l, err := s.store.GetListing(ctx, id)
	if err != nil {
		return core.Listing{}, err
	}
	if err := p.Apply(&l); err != nil {
		return core.Listing{}, err
	}
	l.Touch(s.now())
	l.Normalize()
	if err := l.Validate(); err != nil {
		return core.Listing{}, err
	}
	updated, err := s.store.UpdateListing(ctx, l)
	if err != nil {
		return core.Listing{}, fmt.Errorf("update listing: %w", err)
	}
	s.invalidateIncome()
	s.publish(ctx, amqp.EventUpdated, updated)
	return updated, nil
}

// MarkProcessed takes a listing out of the inbox.
func (s *ListingService) MarkProcessed(ctx context.Context, id string) (core.Listing, error) {
	l, err := s.store.GetListing(ctx, id)
	if err != nil {
		return core.Listing{}, err
	}
	l.Inbox = false
	l.Touch(s.now())
	updated, err := s.store.UpdateListing(ctx, l)
	if err != nil {
		return core.Listing{}, fmt.Errorf("mark processed: %w", err)
	}
	s.publish(ctx, amqp.EventProcessed, updated)
	return updated, nil
}

func (s *ListingService) TenantText(ctx context.Context, id string) (string, error) {
	l, err := s.store.GetListing(ctx, id)
	if err != nil {
		return "", err
	}
	return core.BuildTenantText(l, s.now()), nil
}

// DealInput carries loosely typed amounts; anything non-numeric counts as 0.
type DealInput struct {
	Gross          any    `json:"gross"`
	CommissionRate any    `json:"commission_rate"`
	Deductions     any    `json:"deductions"`
	Notes          string `json:"notes"`
}

// UpsertDeal stores the deal of a listing with a clamped rate and
// non-negative deductions.
func (s *ListingService) UpsertDeal(ctx context.Context, listingID string, in DealInput) (core.Deal, error) {
	l, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		return core.Deal{}, err
	}
	d := core.Deal{
		ListingID:      listingID,
		Gross:          core.Numeric(in.Gross),
		CommissionRate: core.Numeric(in.CommissionRate),
		Deductions:     core.Numeric(in.Deductions),
		Notes:          in.Notes,
		UpdatedAt:      s.now(),
	}
	d.Clamp()
	saved, err := s.store.UpsertDeal(ctx, d)
	if err != nil {
		return core.Deal{}, fmt.Errorf("upsert deal: %w", err)
	}
	slog.InfoContext(ctx, "Deal saved",
		applog.FieldListingID, listingID,
		"net", saved.Income().Net,
		applog.FieldOperation, applog.OpDeal)
	s.invalidateIncome()
	s.publish(ctx, amqp.EventDealUpdated, l)
	return saved, nil
}

// AddPhoto uploads an image and records it after the existing photos. The
// object is removed again when the metadata write fails.
func (s *ListingService) AddPhoto(ctx context.Context, listingID, filename, contentType string, data []byte) (PhotoView, error) {
	l, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		return PhotoView{}, err
	}
	existing, err := s.store.ListPhotos(ctx, listingID)
	if err != nil {
		return PhotoView{}, fmt.Errorf("list photos: %w", err)
	}

	id := uuid.NewString()
	path, err := s.objects.Upload(ctx, objectstore.PhotoPath(listingID, id, filename), contentType, data)
	if err != nil {
		return PhotoView{}, fmt.Errorf("upload photo: %w", err)
	}
	p, err := s.store.AddPhoto(ctx, core.Photo{
		ID:          id,
		ListingID:   listingID,
		StoragePath: path,
		SortOrder:   len(existing),
		CreatedAt:   s.now(),
	})
	if err != nil {
		if rmErr := s.objects.Remove(ctx, []string{path}); rmErr != nil {
			slog.WarnContext(ctx, "Orphaned photo object", "path", path, applog.FieldError, rmErr)
		}
		return PhotoView{}, fmt.Errorf("record photo: %w", err)
	}
	slog.InfoContext(ctx, "Photo uploaded",
		applog.FieldListingID, listingID,
		"path", path,
		"bytes", len(data),
		applog.FieldOperation, applog.OpUpload)
	s.publish(ctx, amqp.EventPhotoAdded, l)
	return PhotoView{Photo: p, URL: s.objects.PublicURL(path)}, nil
}

// Delete removes a listing and everything hanging off it, in the order
// storage objects, photo rows, deal, listing. It stops at the first failing
// stage and returns a *DeleteError naming it; nothing is rolled back. The
// count is the number of storage objects requested for removal.
func (s *ListingService) Delete(ctx context.Context, id string) (int, error) {
	var (
		l      core.Listing
		photos []core.Photo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		l, err = s.store.GetListing(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		photos, err = s.store.ListPhotos(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, &DeleteError{Stage: StageLookup, Err: err}
	}
	paths := photoPaths(photos, l.PhotoRefs, s.objects.Bucket())

	fail := func(stage string, err error) (int, error) {
		slog.ErrorContext(ctx, "Listing delete stopped",
			applog.FieldListingID, id,
			applog.FieldStage, stage,
			applog.FieldError, err)
		return 0, &DeleteError{Stage: stage, Err: err}
	}

	if len(paths) > 0 {
		if err := s.objects.Remove(ctx, paths); err != nil {
			return fail(StageStorage, err)
		}
	}
	if _, err := s.store.DeletePhotos(ctx, id); err != nil {
		return fail(StagePhotos, err)
	}
	if err := s.store.DeleteDeal(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fail(StageDeal, err)
	}
	if err := s.store.DeleteListing(ctx, id); err != nil {
		return fail(StageListing, err)
	}

	slog.InfoContext(ctx, "Listing deleted",
		applog.FieldListingID, id,
		applog.FieldPhotos, len(paths),
		applog.FieldOperation, applog.OpDelete)
	s.invalidateIncome()
	s.publish(ctx, amqp.EventDeleted, l)
	return len(paths), nil
}

// photoPaths merges photo rows with legacy references, dropping duplicates.
func photoPaths(photos []core.Photo, legacy core.PhotoRefs, bucket string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	for _, p := range photos {
		if path, ok := core.ExtractStoragePath(p.StoragePath, bucket); ok {
			add(path)
		}
	}
	for _, p := range core.StoragePaths(legacy, bucket) {
		add(p)
	}
	return out
}

func (s *ListingService) invalidateIncome() {
	if s.onDealChange != nil {
		s.onDealChange()
	}
}

// publish never fails the caller; a lost event is only logged.
func (s *ListingService) publish(ctx context.Context, typ amqp.EventType, l core.Listing) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishListingEvent(ctx, amqp.NewListingEvent(typ, l.ID, string(l.Status))); err != nil {
		slog.ErrorContext(ctx, "Failed to publish listing event",
			"type", typ,
			applog.FieldListingID, l.ID,
			applog.FieldError, err)
	}
}
