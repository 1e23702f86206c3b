package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseStatusLegacy(t *testing.T) {
	cases := map[string]Status{
		"New":         StatusNew,
		"available":   StatusAvailable,
		"follow_up":   StatusFollowUp,
		"pending":     StatusFollowUp,
		" Follow-up ": StatusFollowUp,
		"NEGOTIATION": StatusNegotiating,
		"done":        StatusClosed,
		"archived":    StatusInactive,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		if err != nil || got != want {
			t.Fatalf("ParseStatus(%q) = %q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseStatus("sold-ish"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if len(Statuses()) != 8 {
		t.Fatalf("Statuses() = %v", Statuses())
	}
}

func TestListingValidate(t *testing.T) {
	good := Listing{Name: "Vortex", Type: Rent, Status: StatusNew}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []struct {
		l    Listing
		want error
	}{
		{Listing{Name: " ", Type: Rent, Status: StatusNew}, ErrEmptyName},
		{Listing{Name: "a", Type: "lease", Status: StatusNew}, ErrInvalidType},
		{Listing{Name: "a", Type: Sale, Status: "pending"}, ErrInvalidStatus},
		{Listing{Name: "a", Type: Sale, Status: StatusNew, Furnish: "semi"}, ErrInvalidFurnish},
		{Listing{Name: "a", Type: Sale, Status: StatusNew, Priority: ptrInt(9)}, ErrInvalidPriority},
	}
	for i, tc := range bads {
		if err := tc.l.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestNormalizeDropsAvailableFrom(t *testing.T) {
	d := NewDate(2026, 2, 1)
	l := Listing{Name: "  Vortex ", Status: StatusViewing, AvailableFrom: &d}
	l.Normalize()
	if l.AvailableFrom != nil || l.Name != "Vortex" {
		t.Fatalf("normalize = %+v", l)
	}
	l = Listing{Status: StatusAvailable, AvailableFrom: &d}
	l.Normalize()
	if l.AvailableFrom == nil {
		t.Fatalf("available listing must keep its date")
	}
}

func TestParseHelpers(t *testing.T) {
	if ty, err := ParseListingType(" SALE "); err != nil || ty != Sale {
		t.Fatalf("ParseListingType = %s,%v", ty, err)
	}
	if _, err := ParseListingType("lease"); err == nil {
		t.Fatalf("expected error")
	}
	if f, err := ParseFurnish("Fully Furnished"); err != nil || f != FurnishFully {
		t.Fatalf("ParseFurnish = %s,%v", f, err)
	}
	if f, err := ParseFurnish(""); err != nil || f != FurnishNone {
		t.Fatalf("ParseFurnish empty = %s,%v", f, err)
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2026-03-05"`), &d); err != nil {
		t.Fatal(err)
	}
	if d.Year() != 2026 || d.Month() != time.March || d.Day() != 5 {
		t.Fatalf("parsed %v", d)
	}
	b, err := json.Marshal(d)
	if err != nil || string(b) != `"2026-03-05"` {
		t.Fatalf("marshal = %s,%v", b, err)
	}
	if err := json.Unmarshal([]byte(`"05/03/2026"`), &d); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := ParseDate("2026-03-05T10:00:00Z"); err != nil {
		t.Fatalf("RFC3339 should parse: %v", err)
	}
}
