package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"propcrm/internal/core"
	"propcrm/internal/store"
)

func TestListingCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.CreateListing(ctx, core.Listing{Name: "Arte", Type: core.Rent, Status: core.StatusNew})
	if err != nil || created.ID == "" {
		t.Fatalf("create: %+v %v", created, err)
	}
	if _, err := s.CreateListing(ctx, core.Listing{Type: core.Rent, Status: core.StatusNew}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected validation error, got %v", err)
	}

	created.Status = core.StatusViewing
	if _, err := s.UpdateListing(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetListing(ctx, created.ID)
	if err != nil || got.Status != core.StatusViewing {
		t.Fatalf("get: %+v %v", got, err)
	}

	if err := s.DeleteListing(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetListing(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteListing(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestDealsAndPhotos(t *testing.T) {
	ctx := context.Background()
	s := New()
	l, _ := s.CreateListing(ctx, core.Listing{Name: "Vortex", Type: core.Sale, Status: core.StatusNew})

	if _, err := s.UpsertDeal(ctx, core.Deal{ListingID: "missing"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("deal for unknown listing: %v", err)
	}
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	d, err := s.UpsertDeal(ctx, core.Deal{ListingID: l.ID, Gross: 1000, CommissionRate: 150, Deductions: 50, UpdatedAt: feb})
	if err != nil || d.CommissionRate != 100 || d.StoredNet == nil || *d.StoredNet != 950 {
		t.Fatalf("upsert: %+v %v", d, err)
	}
	if _, err := s.UpsertDeal(ctx, core.Deal{ListingID: l.ID, Gross: 2000, CommissionRate: 10, UpdatedAt: feb}); err != nil {
		t.Fatal(err)
	}
	all, _ := s.ListDeals(ctx, nil)
	if len(all) != 1 || all[0].Gross != 2000 {
		t.Fatalf("upsert must replace, got %+v", all)
	}
	march, _ := core.ParseMonthKey("2026-03", time.UTC)
	if in, _ := s.ListDeals(ctx, &march); len(in) != 0 {
		t.Fatalf("range filter leaked %+v", in)
	}

	for i := 3; i > 0; i-- {
		if _, err := s.AddPhoto(ctx, core.Photo{ListingID: l.ID, StoragePath: "p", SortOrder: i}); err != nil {
			t.Fatal(err)
		}
	}
	photos, _ := s.ListPhotos(ctx, l.ID)
	if len(photos) != 3 || photos[0].SortOrder != 1 || photos[2].SortOrder != 3 {
		t.Fatalf("photos not ordered: %+v", photos)
	}
	counts, _ := s.CountPhotos(ctx)
	if counts[l.ID] != 3 {
		t.Fatalf("counts = %v", counts)
	}
	n, err := s.DeletePhotos(ctx, l.ID)
	if err != nil || n != 3 {
		t.Fatalf("delete photos = %d %v", n, err)
	}
}

func TestListWorkComputesAging(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2026, 1, 20, 12, 0, 0, 0, time.Local)
	l := core.Listing{Name: "Old", Type: core.Rent, Status: core.StatusNew}
	l.Touch(now.AddDate(0, 0, -9))
	if _, err := s.CreateListing(ctx, l); err != nil {
		t.Fatal(err)
	}
	items, err := s.ListWork(ctx, now)
	if err != nil || len(items) != 1 || items[0].AgingDays != 9 {
		t.Fatalf("work = %+v %v", items, err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing file should be fine: %v", err)
	}
	if ls, _ := s.ListListings(context.Background()); len(ls) != 0 {
		t.Fatalf("expected empty store")
	}

	seed := `[
	  {"condo_name":"Arte","type":"rent","status":"pending","price":1800,"gross":1800,"commission_rate":50},
	  {"condo_name":"Vortex","type":"bogus","status":"","updated_at":"2026-01-02T03:04:05Z"}
	]`
	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	ls, _ := s.ListListings(context.Background())
	if len(ls) != 2 {
		t.Fatalf("listings = %+v", ls)
	}
	deals, _ := s.ListDeals(context.Background(), nil)
	if len(deals) != 1 || deals[0].Income().Net != 900 {
		t.Fatalf("deals = %+v", deals)
	}
	for _, l := range ls {
		if l.Name == "Arte" && l.Status != core.StatusFollowUp {
			t.Fatalf("legacy status not mapped: %s", l.Status)
		}
		if l.Name == "Vortex" && (l.Type != core.Rent || l.Status != core.StatusNew) {
			t.Fatalf("defaults not applied: %+v", l)
		}
	}

	legacy := filepath.Join(dir, "legacy.json")
	_ = os.WriteFile(legacy, []byte(`[{"id":"l1","condo_name":"Sentral","type":"sale",
	  "photo_urls":"x/1.jpg,x/2.jpg","images":["y/3.jpg"]}]`), 0o600)
	s, err = NewFromFile(legacy)
	if err != nil {
		t.Fatal(err)
	}
	l, err := s.GetListing(context.Background(), "l1")
	if err != nil {
		t.Fatal(err)
	}
	if paths := core.StoragePaths(l.PhotoRefs, "listing-photos"); len(paths) != 2 || paths[1] != "x/2.jpg" {
		t.Fatalf("legacy photo refs = %+v", l.PhotoRefs)
	}

	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte("{"), 0o600)
	if _, err := NewFromFile(bad); err == nil {
		t.Fatalf("expected decode error")
	}
}
