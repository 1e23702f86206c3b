package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"propcrm/internal/core"
	"propcrm/internal/store"
)

func TestToCoreListingMapsLegacyValues(t *testing.T) {
	avail := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	m := Listing{
		ID:            "b7f0",
		Type:          "sale",
		Status:        "follow_up",
		CondoName:     "Vortex",
		AvailableFrom: &avail,
		Photos:        pq.StringArray{"https://h/storage/v1/object/public/listing-photos/a.jpg", "b.jpg"},
	}
	l := toCoreListing(m)
	if l.Status != core.StatusFollowUp {
		t.Fatalf("status = %s", l.Status)
	}
	if l.AvailableFrom == nil || l.AvailableFrom.String() != "2026-03-05" {
		t.Fatalf("available_from = %v", l.AvailableFrom)
	}
	if got := core.StoragePaths(l.PhotoRefs, "listing-photos"); len(got) != 2 || got[0] != "a.jpg" {
		t.Fatalf("photo paths = %v", got)
	}

	m.Status = "???"
	if toCoreListing(m).Status != core.StatusNew {
		t.Fatalf("unknown status must fall back to New")
	}
}

func TestToCoreListingReadsLegacyPhotoColumns(t *testing.T) {
	csv, arr := "x/1.jpg, x/2.jpg", `["y/3.jpg"]`
	tests := []struct {
		name string
		m    Listing
		want []string
	}{
		{"photo_urls only", Listing{PhotoURLs: &csv}, []string{"x/1.jpg", "x/2.jpg"}},
		{"images json", Listing{Images: &arr}, []string{"y/3.jpg"}},
		{"photos wins", Listing{Photos: pq.StringArray{"p.jpg"}, PhotoURLs: &csv}, []string{"p.jpg"}},
		{"none", Listing{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.StoragePaths(toCoreListing(tt.m).PhotoRefs, "listing-photos")
			if len(got) != len(tt.want) {
				t.Fatalf("paths = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("paths[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFromCoreListing(t *testing.T) {
	d := core.NewDate(2026, 2, 1)
	l := core.Listing{
		ID: "x", Name: "Arte", Type: core.Rent, Status: core.StatusAvailable,
		AvailableFrom: &d,
		PhotoRefs:     core.PhotoRefs{Kind: core.RefsPaths, Paths: []string{"a.jpg"}},
	}
	m := fromCoreListing(l)
	if m.CondoName != "Arte" || m.Status != "Available" || m.AvailableFrom == nil || len(m.Photos) != 1 {
		t.Fatalf("model = %+v", m)
	}
	if fromCoreListing(core.Listing{}).Photos != nil {
		t.Fatalf("no refs must map to NULL photos")
	}
}

func TestNotFoundMapping(t *testing.T) {
	if !errors.Is(notFound(gorm.ErrRecordNotFound), store.ErrNotFound) {
		t.Fatalf("record not found must map to store.ErrNotFound")
	}
	other := errors.New("boom")
	if notFound(other) != other {
		t.Fatalf("other errors pass through")
	}
}
