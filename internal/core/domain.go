package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Rent ListingType = "rent"
	Sale ListingType = "sale"
)

const (
	StatusNew         Status = "New"
	StatusAvailable   Status = "Available"
	StatusFollowUp    Status = "Follow-up"
	StatusViewing     Status = "Viewing"
	StatusNegotiating Status = "Negotiating"
	StatusBooked      Status = "Booked"
	StatusClosed      Status = "Closed"
	StatusInactive    Status = "Inactive"
)

const (
	FurnishNone    Furnish = ""
	FurnishFully   Furnish = "Fully"
	FurnishPartial Furnish = "Partial"
)

// DefaultPriority applies when a listing carries no explicit priority.
const DefaultPriority = 2

type (
	ListingType string
	Status      string
	Furnish     string

	// Date is a calendar date without time-of-day, in local time.
	Date struct {
		time.Time
	}

	Listing struct {
		ID            string
		Type          ListingType
		Status        Status
		Name          string // condo / building name
		Area          string
		Price         *float64
		Sqft          *float64
		Bedrooms      *int
		Bathrooms     *int
		Carparks      *int
		Furnish       Furnish
		Inbox         bool
		Priority      *int
		NextFollowUp  *time.Time
		LastUpdate    *time.Time
		AvailableFrom *Date
		RawText       string
		Link          string
		CreatedAt     time.Time
		UpdatedAt     time.Time

		// Photo references stored on the listing row itself by older
		// revisions, before listing_photos existed.
		PhotoRefs PhotoRefs
	}

	Deal struct {
		ListingID      string
		Gross          float64
		CommissionRate float64
		Deductions     float64
		Notes          string
		UpdatedAt      time.Time

		// Stored copies of the derived amounts. Never authoritative, see Income.
		StoredCommission *float64
		StoredNet        *float64
	}

	Photo struct {
		ID          string
		ListingID   string
		StoragePath string
		SortOrder   int
		CreatedAt   time.Time
	}
)

var (
	ErrEmptyName       = errors.New("empty listing name")
	ErrInvalidType     = errors.New("invalid listing type")
	ErrInvalidStatus   = errors.New("invalid listing status")
	ErrInvalidFurnish  = errors.New("invalid furnish value")
	ErrInvalidPriority = errors.New("priority must be between 1 and 5")
	ErrInvalidDate     = errors.New("invalid date")
)

var statuses = []Status{
	StatusNew, StatusAvailable, StatusFollowUp, StatusViewing,
	StatusNegotiating, StatusBooked, StatusClosed, StatusInactive,
}

// legacyStatuses maps lowercase and older spellings found in stored rows
// onto the canonical enumeration.
var legacyStatuses = map[string]Status{
	"new":         StatusNew,
	"available":   StatusAvailable,
	"follow-up":   StatusFollowUp,
	"follow_up":   StatusFollowUp,
	"followup":    StatusFollowUp,
	"follow up":   StatusFollowUp,
	"pending":     StatusFollowUp,
	"viewing":     StatusViewing,
	"negotiating": StatusNegotiating,
	"negotiation": StatusNegotiating,
	"booked":      StatusBooked,
	"closed":      StatusClosed,
	"done":        StatusClosed,
	"inactive":    StatusInactive,
	"archived":    StatusInactive,
}

// Statuses returns the canonical statuses in workflow order.
func Statuses() []Status {
	return append([]Status(nil), statuses...)
}

// ParseStatus maps any known spelling to the canonical status.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range statuses {
		if s == string(st) {
			return st, nil
		}
	}
	if st, ok := legacyStatuses[strings.ToLower(s)]; ok {
		return st, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) IsValid() bool {
	for _, st := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

func ParseListingType(s string) (ListingType, error) {
	switch ListingType(strings.ToLower(strings.TrimSpace(s))) {
	case Rent:
		return Rent, nil
	case Sale:
		return Sale, nil
	}
	return "", ErrInvalidType
}

func ParseFurnish(s string) (Furnish, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "unfurnished":
		return FurnishNone, nil
	case "fully", "full", "fully furnished":
		return FurnishFully, nil
	case "partial", "partially", "partial furnished", "partially furnished":
		return FurnishPartial, nil
	}
	return "", ErrInvalidFurnish
}

// NewDate creates a local calendar date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.Local)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// ParseDate accepts YYYY-MM-DD and also full RFC 3339 timestamps.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t.In(time.Local)), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// EffectivePriority returns the listing priority, defaulting to DefaultPriority.
func (l Listing) EffectivePriority() int {
	if l.Priority == nil {
		return DefaultPriority
	}
	return *l.Priority
}

// Normalize enforces the listing invariants before a write: available_from
// only survives on Available listings.
func (l *Listing) Normalize() {
	l.Name = strings.TrimSpace(l.Name)
	l.Area = strings.TrimSpace(l.Area)
	if l.Status != StatusAvailable {
		l.AvailableFrom = nil
	}
}

func (l Listing) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if l.Type != Rent && l.Type != Sale {
		return ErrInvalidType
	}
	if !l.Status.IsValid() {
		return ErrInvalidStatus
	}
	switch l.Furnish {
	case FurnishNone, FurnishFully, FurnishPartial:
	default:
		return ErrInvalidFurnish
	}
	if l.Priority != nil && (*l.Priority < 1 || *l.Priority > 5) {
		return ErrInvalidPriority
	}
	return nil
}

// Touch records an edit at now.
func (l *Listing) Touch(now time.Time) {
	l.LastUpdate = &now
	l.UpdatedAt = now
}

// Clamp bounds the deal inputs the way they are persisted: rate within
// [0,100], deductions never negative.
func (d *Deal) Clamp() {
	d.CommissionRate = ClampPercent(d.CommissionRate)
	d.Gross = Numeric(d.Gross)
	d.Deductions = Numeric(d.Deductions)
	if d.Deductions < 0 {
		d.Deductions = 0
	}
	d.Notes = strings.TrimSpace(d.Notes)
}
