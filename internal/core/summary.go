package core

import (
	"slices"
	"time"
)

// ListingRef is the slice of a listing that income views need.
type ListingRef struct {
	ID   string      `json:"id"`
	Name string      `json:"condo_name"`
	Type ListingType `json:"type"`
}

// IncomeLine is one deal with its recomputed income.
type IncomeLine struct {
	Listing   ListingRef `json:"listing"`
	Notes     string     `json:"notes,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
	Income    Income     `json:"income"`
}

// MonthIncome lists the deals touched during one month.
type MonthIncome struct {
	Month           string       `json:"month"`
	Lines           []IncomeLine `json:"lines"`
	TotalCommission float64      `json:"total_commission"`
	TotalNet        float64      `json:"total_net"`
}

// MonthBar is a single bar of the monthly net chart.
type MonthBar struct {
	Month string  `json:"month"`
	Net   float64 `json:"net"`
}

// Dashboard aggregates income over a month range.
type Dashboard struct {
	From       string      `json:"from"`
	To         string      `json:"to"`
	Type       ListingType `json:"type,omitempty"`
	RangeNet   float64     `json:"range_net"`
	RangeDeals int         `json:"range_deals"`
	Rent       int         `json:"rent"`
	Sale       int         `json:"sale"`
	AllTimeNet float64     `json:"all_time_net"`
	Bars       []MonthBar  `json:"bars"`
}

// BarMonths is the length of the dashboard chart.
const BarMonths = 12

// BuildMonthIncome keeps the deals updated inside month, newest first.
func BuildMonthIncome(month string, p Period, deals []Deal, listings map[string]ListingRef) MonthIncome {
	out := MonthIncome{Month: month, Lines: []IncomeLine{}}
	for _, d := range deals {
		if !p.Contains(d.UpdatedAt) {
			continue
		}
		ref, ok := listings[d.ListingID]
		if !ok {
			ref = ListingRef{ID: d.ListingID}
		}
		inc := d.Income()
		out.Lines = append(out.Lines, IncomeLine{
			Listing:   ref,
			Notes:     d.Notes,
			UpdatedAt: d.UpdatedAt,
			Income:    inc,
		})
		out.TotalCommission += inc.Commission
		out.TotalNet += inc.Net
	}
	slices.SortStableFunc(out.Lines, func(a, b IncomeLine) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

// SummarizeIncome computes the dashboard figures. typ filters the range
// figures and the bars; the all-time net ignores both range and type.
// Deals whose listing is unknown never match a type filter.
func SummarizeIncome(fromKey, toKey string, p Period, typ ListingType, deals []Deal, listings map[string]ListingRef, now time.Time) Dashboard {
	dash := Dashboard{From: fromKey, To: toKey, Type: typ}

	keys := LastMonths(now, BarMonths)
	bars := make(map[string]float64, len(keys))
	for _, k := range keys {
		bars[k] = 0
	}

	for _, d := range deals {
		net := d.Income().Net
		dash.AllTimeNet += net

		ref, known := listings[d.ListingID]
		if typ != "" && (!known || ref.Type != typ) {
			continue
		}

		if k := MonthKey(d.UpdatedAt.In(now.Location())); hasKey(bars, k) {
			bars[k] += net
		}

		if !p.Contains(d.UpdatedAt) {
			continue
		}
		dash.RangeNet += net
		dash.RangeDeals++
		switch ref.Type {
		case Rent:
			dash.Rent++
		case Sale:
			dash.Sale++
		}
	}

	dash.Bars = make([]MonthBar, 0, len(keys))
	for _, k := range keys {
		dash.Bars = append(dash.Bars, MonthBar{Month: k, Net: bars[k]})
	}
	return dash
}

func hasKey(m map[string]float64, k string) bool {
	_, ok := m[k]
	return ok
}
