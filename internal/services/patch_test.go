package services

import (
	"encoding/json"
	"errors"
	"testing"

	"propcrm/internal/core"
)

func TestListingPatchDistinguishesAbsentAndNull(t *testing.T) {
	var p ListingPatch
	body := `{"bedrooms":3,"bathrooms":null,"status":"Pending","furnish":"fully furnished"}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatal(err)
	}
	two := 2
	price := 1500.0
	l := core.Listing{Name: "Arte", Bathrooms: &two, Price: &price}
	if err := p.Apply(&l); err != nil {
		t.Fatal(err)
	}
	if l.Bedrooms == nil || *l.Bedrooms != 3 {
		t.Fatalf("bedrooms = %v", l.Bedrooms)
	}
	if l.Bathrooms != nil {
		t.Fatalf("null must clear bathrooms")
	}
	if l.Price == nil || *l.Price != 1500 {
		t.Fatalf("absent price must be kept")
	}
	if l.Status != core.StatusFollowUp || l.Furnish != core.FurnishFully {
		t.Fatalf("enums = %s %s", l.Status, l.Furnish)
	}
}

func TestListingPatchRejectsUnknownEnums(t *testing.T) {
	tests := []struct {
		name  string
		patch ListingPatch
		want  error
	}{
		{"type", ListingPatch{Type: SetTo("lease")}, core.ErrInvalidType},
		{"status", ListingPatch{Status: Cleared[string]()}, core.ErrInvalidStatus},
		{"furnish", ListingPatch{Furnish: SetTo("bare")}, core.ErrInvalidFurnish},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l core.Listing
			if err := tt.patch.Apply(&l); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
