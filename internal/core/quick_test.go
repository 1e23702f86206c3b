package core

import (
	"testing"
	"time"
)

func TestParseQuickCapture(t *testing.T) {
	raw := `Arte Mont Kiara
Mont Kiara
RM 2,300 fully furnished
3R 2B 1 parking
1100 sqft
Available 2026/3/5`
	d := ParseQuickCapture(raw)

	if d.Name != "Arte Mont Kiara" || d.Area != "Mont Kiara" {
		t.Fatalf("name/area = %q/%q", d.Name, d.Area)
	}
	if d.Type != Rent || d.Status != StatusAvailable || d.Furnish != FurnishFully {
		t.Fatalf("type/status/furnish = %s/%s/%s", d.Type, d.Status, d.Furnish)
	}
	if d.Price == nil || *d.Price != 2300 {
		t.Fatalf("price = %v", d.Price)
	}
	if d.Sqft == nil || *d.Sqft != 1100 {
		t.Fatalf("sqft = %v", d.Sqft)
	}
	if d.Bedrooms == nil || *d.Bedrooms != 3 || d.Bathrooms == nil || *d.Bathrooms != 2 {
		t.Fatalf("rooms = %v/%v", d.Bedrooms, d.Bathrooms)
	}
	if d.Carparks == nil || *d.Carparks != 1 {
		t.Fatalf("carparks = %v", d.Carparks)
	}
	if d.AvailableFrom == nil || d.AvailableFrom.String() != "2026-03-05" {
		t.Fatalf("available_from = %v", d.AvailableFrom)
	}
}

func TestParseQuickCaptureVariants(t *testing.T) {
	d := ParseQuickCapture("Sunway Velocity\nfor sale 650000\n2 bedroom 1 bathroom partial")
	if d.Type != Sale {
		t.Fatalf("type = %s", d.Type)
	}
	if d.Area != "" {
		t.Fatalf("area must be skipped when second line has digits, got %q", d.Area)
	}
	if d.Price == nil || *d.Price != 650000 {
		t.Fatalf("bare price = %v", d.Price)
	}
	if *d.Bedrooms != 2 || *d.Bathrooms != 1 || d.Furnish != FurnishPartial {
		t.Fatalf("rooms/furnish = %v/%v/%s", *d.Bedrooms, *d.Bathrooms, d.Furnish)
	}
	if d.Status != StatusNew || d.AvailableFrom != nil {
		t.Fatalf("status/date = %s/%v", d.Status, d.AvailableFrom)
	}

	empty := ParseQuickCapture("   \n  ")
	if empty.Name != "" || empty.Price != nil || empty.Type != Rent {
		t.Fatalf("empty draft = %+v", empty)
	}
}

func TestQuickDraftListing(t *testing.T) {
	now := time.Date(2026, 1, 20, 10, 0, 0, 0, time.Local)

	booked := ParseQuickCapture("Vortex Suites\nbooked 2026-02-01")
	l := booked.Listing(now)
	if l.Status != StatusNew || l.AvailableFrom != nil {
		t.Fatalf("non-available drafts start as New without date: %s %v", l.Status, l.AvailableFrom)
	}
	if !l.Inbox || l.EffectivePriority() != DefaultPriority {
		t.Fatalf("inbox/priority = %v/%d", l.Inbox, l.EffectivePriority())
	}
	if l.NextFollowUp == nil || !l.NextFollowUp.Equal(now.AddDate(0, 0, 1)) {
		t.Fatalf("follow-up = %v", l.NextFollowUp)
	}
	if l.LastUpdate == nil || !l.LastUpdate.Equal(now) {
		t.Fatalf("last_update = %v", l.LastUpdate)
	}

	avail := ParseQuickCapture("Vortex Suites\navailable 2026-02-01").Listing(now)
	if avail.Status != StatusAvailable || avail.AvailableFrom == nil {
		t.Fatalf("available draft keeps status and date: %s %v", avail.Status, avail.AvailableFrom)
	}
}
