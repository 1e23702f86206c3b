package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"propcrm/internal/cache"
	"propcrm/internal/core"
	applog "propcrm/internal/log"
	"propcrm/internal/store"
)

// IncomeStore is the read side the income views need.
type IncomeStore interface {
	ListDeals(ctx context.Context, within *core.Period) ([]core.Deal, error)
	ListListingsByIDs(ctx context.Context, ids []string) ([]core.Listing, error)
}

var _ IncomeStore = (store.Store)(nil)

// IncomeService derives month income and dashboard summaries from deals.
// Results are cached until Invalidate is called or their TTL runs out.
type IncomeService struct {
	store      IncomeStore
	months     cache.Cache[core.MonthIncome]
	dashboards cache.Cache[core.Dashboard]
	now        func() time.Time
	loc        *time.Location
}

func NewIncomeService(st IncomeStore, months cache.Cache[core.MonthIncome], dashboards cache.Cache[core.Dashboard]) *IncomeService {
	return &IncomeService{store: st, months: months, dashboards: dashboards, now: time.Now, loc: time.Local}
}

func (s *IncomeService) SetClock(now func() time.Time) { s.now = now }

// SetLocation sets the zone month keys are interpreted in.
func (s *IncomeService) SetLocation(loc *time.Location) { s.loc = loc }

// Invalidate drops every cached view.
func (s *IncomeService) Invalidate() {
	if s.months != nil {
		s.months.Purge()
	}
	if s.dashboards != nil {
		s.dashboards.Purge()
	}
}

// Month lists the deals updated during month (YYYY-MM, empty for the
// current month) with their recomputed income.
func (s *IncomeService) Month(ctx context.Context, month string) (core.MonthIncome, error) {
	if month == "" {
		month = core.MonthKey(s.now().In(s.loc))
	}
	p, err := core.ParseMonthKey(month, s.loc)
	if err != nil {
		return core.MonthIncome{}, err
	}
	month = core.MonthKey(p.Start)
	if s.months != nil {
		if v, ok := s.months.Get(month); ok {
			slog.DebugContext(ctx, "Income month cache hit", applog.FieldMonth, month)
			return v, nil
		}
	}

	deals, err := s.store.ListDeals(ctx, &p)
	if err != nil {
		return core.MonthIncome{}, fmt.Errorf("list deals for %s: %w", month, err)
	}
	refs, err := s.listingRefs(ctx, deals)
	if err != nil {
		return core.MonthIncome{}, err
	}
	out := core.BuildMonthIncome(month, p, deals, refs)
	if s.months != nil {
		s.months.Set(month, out)
	}
	return out, nil
}

// Dashboard summarizes the month range [from, to] with an optional type
// filter. Empty keys default to the current month.
func (s *IncomeService) Dashboard(ctx context.Context, from, to string, typ core.ListingType) (core.Dashboard, error) {
	now := s.now().In(s.loc)
	current := core.MonthKey(now)
	if from == "" {
		from = current
	}
	if to == "" {
		to = current
	}
	p, err := core.MonthRange(from, to, s.loc)
	if err != nil {
		return core.Dashboard{}, err
	}
	key := from + "|" + to + "|" + string(typ) + "|" + current
	if s.dashboards != nil {
		if v, ok := s.dashboards.Get(key); ok {
			return v, nil
		}
	}

	deals, err := s.store.ListDeals(ctx, nil)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("list deals: %w", err)
	}
	refs, err := s.listingRefs(ctx, deals)
	if err != nil {
		return core.Dashboard{}, err
	}
	out := core.SummarizeIncome(from, to, p, typ, deals, refs, now)
	if s.dashboards != nil {
		s.dashboards.Set(key, out)
	}
	return out, nil
}

// DealsBetween lists the deals updated between two calendar dates, both
// inclusive. from after to is rejected with core.ErrInvalidRange.
func (s *IncomeService) DealsBetween(ctx context.Context, from, to core.Date) (core.MonthIncome, error) {
	p, err := core.DateRangeBounds(from, to)
	if err != nil {
		return core.MonthIncome{}, err
	}
	deals, err := s.store.ListDeals(ctx, &p)
	if err != nil {
		return core.MonthIncome{}, fmt.Errorf("list deals: %w", err)
	}
	refs, err := s.listingRefs(ctx, deals)
	if err != nil {
		return core.MonthIncome{}, err
	}
	return core.BuildMonthIncome(from.String()+"/"+to.String(), p, deals, refs), nil
}

func (s *IncomeService) listingRefs(ctx context.Context, deals []core.Deal) (map[string]core.ListingRef, error) {
	ids := make([]string, 0, len(deals))
	seen := make(map[string]bool, len(deals))
	for _, d := range deals {
		if !seen[d.ListingID] {
			seen[d.ListingID] = true
			ids = append(ids, d.ListingID)
		}
	}
	refs := make(map[string]core.ListingRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}
	listings, err := s.store.ListListingsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load deal listings: %w", err)
	}
	for _, l := range listings {
		refs[l.ID] = core.ListingRef{ID: l.ID, Name: l.Name, Type: l.Type}
	}
	return refs, nil
}
