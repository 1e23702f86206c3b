package services

import (
	"encoding/json"
	"strings"
	"time"

	"propcrm/internal/core"
)

// Patch is one optional field of a partial update. Set reports whether the
// key was present; Set with a nil Value clears the column.
type Patch[T any] struct {
	Set   bool
	Value *T
}

func (p *Patch[T]) UnmarshalJSON(b []byte) error {
	p.Set = true
	if string(b) == "null" {
		p.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.Value = &v
	return nil
}

func SetTo[T any](v T) Patch[T] { return Patch[T]{Set: true, Value: &v} }

func Cleared[T any]() Patch[T] { return Patch[T]{Set: true} }

// ListingPatch is the body of a listing edit. Absent keys keep the stored
// value.
type ListingPatch struct {
	Type          Patch[string]    `json:"type"`
	Status        Patch[string]    `json:"status"`
	Name          Patch[string]    `json:"condo_name"`
	Area          Patch[string]    `json:"area"`
	Price         Patch[float64]   `json:"price"`
	Sqft          Patch[float64]   `json:"sqft"`
	Bedrooms      Patch[int]       `json:"bedrooms"`
	Bathrooms     Patch[int]       `json:"bathrooms"`
	Carparks      Patch[int]       `json:"carparks"`
	Furnish       Patch[string]    `json:"furnish"`
	Inbox         Patch[bool]      `json:"inbox"`
	Priority      Patch[int]       `json:"priority"`
	NextFollowUp  Patch[time.Time] `json:"next_follow_up"`
	AvailableFrom Patch[core.Date] `json:"available_from"`
	Link          Patch[string]    `json:"link"`
	RawText       Patch[string]    `json:"raw_text"`
}

// Apply writes the present fields onto l. Enumerations go through the
// lenient parsers so legacy spellings are accepted.
func (p ListingPatch) Apply(l *core.Listing) error {
	if p.Type.Set {
		t, err := core.ParseListingType(deref(p.Type.Value))
		if err != nil {
			return err
		}
		l.Type = t
	}
	if p.Status.Set {
		st, err := core.ParseStatus(deref(p.Status.Value))
		if err != nil {
			return err
		}
		l.Status = st
	}
	if p.Furnish.Set {
		f, err := core.ParseFurnish(deref(p.Furnish.Value))
		if err != nil {
			return err
		}
		l.Furnish = f
	}
	if p.Name.Set {
		l.Name = strings.TrimSpace(deref(p.Name.Value))
	}
	if p.Area.Set {
		l.Area = deref(p.Area.Value)
	}
	if p.Link.Set {
		l.Link = deref(p.Link.Value)
	}
	if p.RawText.Set {
		l.RawText = deref(p.RawText.Value)
	}
	if p.Inbox.Set {
		l.Inbox = deref(p.Inbox.Value)
	}
	assign(&l.Price, p.Price)
	assign(&l.Sqft, p.Sqft)
	assign(&l.Bedrooms, p.Bedrooms)
	assign(&l.Bathrooms, p.Bathrooms)
	assign(&l.Carparks, p.Carparks)
	assign(&l.Priority, p.Priority)
	assign(&l.NextFollowUp, p.NextFollowUp)
	assign(&l.AvailableFrom, p.AvailableFrom)
	return nil
}

func assign[T any](dst **T, p Patch[T]) {
	if p.Set {
		*dst = p.Value
	}
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
