package http

import (
	"strings"
	"time"

	"propcrm/internal/core"
	"propcrm/internal/services"
)

// listingJSON is the wire shape of a listing.
type listingJSON struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Name          string     `json:"condo_name"`
	Area          string     `json:"area,omitempty"`
	Price         *float64   `json:"price"`
	Sqft          *float64   `json:"sqft"`
	Bedrooms      *int       `json:"bedrooms"`
	Bathrooms     *int       `json:"bathrooms"`
	Carparks      *int       `json:"carparks"`
	Furnish       string     `json:"furnish,omitempty"`
	Inbox         bool       `json:"inbox"`
	Priority      int        `json:"priority"`
	NextFollowUp  *time.Time `json:"next_follow_up"`
	LastUpdate    *time.Time `json:"last_update"`
	AvailableFrom *core.Date `json:"available_from"`
	RawText       string     `json:"raw_text,omitempty"`
	Link          string     `json:"link,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	AgingDays     *int       `json:"aging_days,omitempty"`
}

func toListingJSON(l core.Listing) listingJSON {
	return listingJSON{
		ID:            l.ID,
		Type:          string(l.Type),
		Status:        string(l.Status),
		Name:          l.Name,
		Area:          l.Area,
		Price:         l.Price,
		Sqft:          l.Sqft,
		Bedrooms:      l.Bedrooms,
		Bathrooms:     l.Bathrooms,
		Carparks:      l.Carparks,
		Furnish:       string(l.Furnish),
		Inbox:         l.Inbox,
		Priority:      l.EffectivePriority(),
		NextFollowUp:  l.NextFollowUp,
		LastUpdate:    l.LastUpdate,
		AvailableFrom: l.AvailableFrom,
		RawText:       l.RawText,
		Link:          l.Link,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func toWorkItemJSON(it core.WorkItem) listingJSON {
	out := toListingJSON(it.Listing)
	aging := it.AgingDays
	out.AgingDays = &aging
	return out
}

type workQueueJSON struct {
	Items  []listingJSON    `json:"items"`
	Counts core.QueueCounts `json:"counts"`
}

func toWorkQueueJSON(q services.WorkQueue) workQueueJSON {
	out := workQueueJSON{Items: make([]listingJSON, 0, len(q.Items)), Counts: q.Counts}
	for _, it := range q.Items {
		out.Items = append(out.Items, toWorkItemJSON(it))
	}
	return out
}

type photoJSON struct {
	ID          string    `json:"id"`
	StoragePath string    `json:"storage_path"`
	URL         string    `json:"url"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPhotoJSON(p services.PhotoView) photoJSON {
	return photoJSON{
		ID:          p.ID,
		StoragePath: p.StoragePath,
		URL:         p.URL,
		SortOrder:   p.SortOrder,
		CreatedAt:   p.CreatedAt,
	}
}

type dealJSON struct {
	ListingID      string    `json:"listing_id"`
	Gross          float64   `json:"gross"`
	CommissionRate float64   `json:"commission_rate"`
	Deductions     float64   `json:"deductions"`
	Notes          string    `json:"notes,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toDealJSON(d core.Deal) dealJSON {
	return dealJSON{
		ListingID:      d.ListingID,
		Gross:          d.Gross,
		CommissionRate: d.CommissionRate,
		Deductions:     d.Deductions,
		Notes:          d.Notes,
		UpdatedAt:      d.UpdatedAt,
	}
}

type dealWithIncomeJSON struct {
	Deal   dealJSON    `json:"deal"`
	Income core.Income `json:"income"`
}

type listingDetailJSON struct {
	listingJSON
	Photos          []photoJSON  `json:"photos"`
	LegacyPhotoURLs []string     `json:"legacy_photo_urls,omitempty"`
	Deal            *dealJSON    `json:"deal"`
	Income          *core.Income `json:"income"`
}

func toListingDetailJSON(d services.ListingDetail) listingDetailJSON {
	out := listingDetailJSON{
		listingJSON:     toListingJSON(d.Listing),
		Photos:          make([]photoJSON, 0, len(d.Photos)),
		LegacyPhotoURLs: d.LegacyPhotoURLs,
		Income:          d.Income,
	}
	aging := d.AgingDays
	out.AgingDays = &aging
	for _, p := range d.Photos {
		out.Photos = append(out.Photos, toPhotoJSON(p))
	}
	if d.Deal != nil {
		dj := toDealJSON(*d.Deal)
		out.Deal = &dj
	}
	return out
}

// createListingRequest is the body of the full listing form. Enumerations
// are strings so legacy spellings go through the lenient parsers.
type createListingRequest struct {
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Name          string     `json:"condo_name"`
	Area          string     `json:"area"`
	Price         *float64   `json:"price"`
	Sqft          *float64   `json:"sqft"`
	Bedrooms      *int       `json:"bedrooms"`
	Bathrooms     *int       `json:"bathrooms"`
	Carparks      *int       `json:"carparks"`
	Furnish       string     `json:"furnish"`
	Inbox         bool       `json:"inbox"`
	Priority      *int       `json:"priority"`
	NextFollowUp  *time.Time `json:"next_follow_up"`
	AvailableFrom *core.Date `json:"available_from"`
	RawText       string     `json:"raw_text"`
	Link          string     `json:"link"`
}

func (req createListingRequest) toListing() (core.Listing, error) {
	l := core.Listing{
		Name:          sanitizeInput(req.Name),
		Area:          sanitizeInput(req.Area),
		Price:         req.Price,
		Sqft:          req.Sqft,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
		Carparks:      req.Carparks,
		Inbox:         req.Inbox,
		Priority:      req.Priority,
		NextFollowUp:  req.NextFollowUp,
		AvailableFrom: req.AvailableFrom,
		RawText:       req.RawText,
		Link:          strings.TrimSpace(req.Link),
	}
	t, err := core.ParseListingType(req.Type)
	if err != nil {
		return core.Listing{}, err
	}
	l.Type = t
	if strings.TrimSpace(req.Status) != "" {
		st, err := core.ParseStatus(req.Status)
		if err != nil {
			return core.Listing{}, err
		}
		l.Status = st
	}
	f, err := core.ParseFurnish(req.Furnish)
	if err != nil {
		return core.Listing{}, err
	}
	l.Furnish = f
	return l, nil
}

type quickCaptureRequest struct {
	Text string `json:"text"`
}

// sanitizeInput drops control characters other than tab and newlines, then
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
