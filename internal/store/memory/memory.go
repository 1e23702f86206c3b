// Package memory is an in-process store used for development and tests.
package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"propcrm/internal/core"
	"propcrm/internal/store"
)

type Store struct {
	mu       sync.Mutex
	listings map[string]core.Listing
	deals    map[string]core.Deal
	photos   []core.Photo
	now      func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		listings: map[string]core.Listing{},
		deals:    map[string]core.Deal{},
		now:      time.Now,
	}
}

// seedListing is the JSON shape of a seed file entry.
type seedListing struct {
	ID      string   `json:"id"`
	Name    string   `json:"condo_name"`
	Area    string   `json:"area"`
	Type    string   `json:"type"`
	Status  string   `json:"status"`
	Price   *float64 `json:"price"`
	Inbox   bool     `json:"inbox"`
	Gross   *float64 `json:"gross"`
	Rate    *float64 `json:"commission_rate"`
	Deduct  *float64 `json:"deductions"`
	Updated string   `json:"updated_at"`
}

// NewFromFile loads listings (and optional deals) from a JSON array.
// A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for i, e := range entries {
		var r seedListing
		if err := json.Unmarshal(e, &r); err != nil {
			return nil, fmt.Errorf("decode seed entry %d: %w", i, err)
		}
		// Photo references may sit under any of the legacy field names.
		var raw map[string]any
		if err := json.Unmarshal(e, &raw); err != nil {
			return nil, fmt.Errorf("decode seed entry %d: %w", i, err)
		}
		typ, err := core.ParseListingType(r.Type)
		if err != nil {
			typ = core.Rent
		}
		status, err := core.ParseStatus(r.Status)
		if err != nil {
			status = core.StatusNew
		}
		updated := s.now()
		if t, err := time.Parse(time.RFC3339, r.Updated); err == nil {
			updated = t
		}
		l := core.Listing{
			ID: r.ID, Name: r.Name, Area: r.Area, Type: typ, Status: status,
			Price: r.Price, Inbox: r.Inbox, CreatedAt: updated,
			PhotoRefs: core.NormalizePhotoRefs(raw),
		}
		l.Touch(updated)
		created, err := s.CreateListing(context.Background(), l)
		if err != nil {
			return nil, err
		}
		if r.Gross != nil {
			d := core.Deal{ListingID: created.ID, Gross: *r.Gross}
			if r.Rate != nil {
				d.CommissionRate = *r.Rate
			}
			if r.Deduct != nil {
				d.Deductions = *r.Deduct
			}
			if _, err := s.UpsertDeal(context.Background(), d); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// SetClock replaces the time source used for defaulted timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Close() error { return nil }

// Listings

func (s *Store) GetListing(_ context.Context, id string) (core.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return core.Listing{}, store.ErrNotFound
	}
	return l, nil
}

func (s *Store) ListListings(_ context.Context) ([]core.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b core.Listing) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) ListWork(ctx context.Context, now time.Time) ([]core.WorkItem, error) {
	ls, err := s.ListListings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.WorkItem, len(ls))
	for i, l := range ls {
		out[i] = core.NewWorkItem(l, now)
	}
	return out, nil
}

func (s *Store) ListListingsByIDs(_ context.Context, ids []string) ([]core.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := s.listings[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *Store) CreateListing(_ context.Context, l core.Listing) (core.Listing, error) {
	if err := l.Validate(); err != nil {
		return core.Listing{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := s.now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = now
	}
	l.Normalize()
	s.listings[l.ID] = l
	return l, nil
}

func (s *Store) UpdateListing(_ context.Context, l core.Listing) (core.Listing, error) {
	if err := l.Validate(); err != nil {
		return core.Listing{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.listings[l.ID]
	if !ok {
		return core.Listing{}, store.ErrNotFound
	}
	l.CreatedAt = prev.CreatedAt
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = s.now()
	}
	l.Normalize()
	s.listings[l.ID] = l
	return l, nil
}

func (s *Store) DeleteListing(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.listings, id)
	return nil
}

// Deals

func (s *Store) GetDeal(_ context.Context, listingID string) (core.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deals[listingID]
	if !ok {
		return core.Deal{}, store.ErrNotFound
	}
	return d, nil
}

func (s *Store) UpsertDeal(_ context.Context, d core.Deal) (core.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[d.ListingID]; !ok {
		return core.Deal{}, store.ErrNotFound
	}
	d.Clamp()
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = s.now()
	}
	inc := d.Income()
	d.StoredCommission = &inc.Commission
	d.StoredNet = &inc.Net
	s.deals[d.ListingID] = d
	return d, nil
}

func (s *Store) ListDeals(_ context.Context, within *core.Period) ([]core.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Deal, 0, len(s.deals))
	for _, d := range s.deals {
		if within != nil && !within.Contains(d.UpdatedAt) {
			continue
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b core.Deal) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ListingID, b.ListingID)
	})
	return out, nil
}

func (s *Store) DeleteDeal(_ context.Context, listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deals, listingID)
	return nil
}

// Photos

func (s *Store) ListPhotos(ctx context.Context, listingID string) ([]core.Photo, error) {
	return s.ListPhotosByListings(ctx, []string{listingID})
}

func (s *Store) ListPhotosByListings(_ context.Context, listingIDs []string) ([]core.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Photo{}
	for _, p := range s.photos {
		if slices.Contains(listingIDs, p.ListingID) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Photo) int {
		if c := cmp.Compare(a.ListingID, b.ListingID); c != 0 {
			return c
		}
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
	return out, nil
}

func (s *Store) AddPhoto(_ context.Context, p core.Photo) (core.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[p.ListingID]; !ok {
		return core.Photo{}, store.ErrNotFound
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.photos = append(s.photos, p)
	return p, nil
}

func (s *Store) DeletePhotos(_ context.Context, listingID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.photos[:0]
	removed := 0
	for _, p := range s.photos {
		if p.ListingID == listingID {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	s.photos = kept
	return removed, nil
}

func (s *Store) CountPhotos(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int{}
	for _, p := range s.photos {
		out[p.ListingID]++
	}
	return out, nil
}
