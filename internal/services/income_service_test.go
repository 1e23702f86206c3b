package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"propcrm/internal/cache"
	"propcrm/internal/core"
	"propcrm/internal/store/memory"
)

type countingIncomeStore struct {
	IncomeStore
	dealCalls int
}

func (c *countingIncomeStore) ListDeals(ctx context.Context, within *core.Period) ([]core.Deal, error) {
	c.dealCalls++
	return c.IncomeStore.ListDeals(ctx, within)
}

func seedIncome(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()
	rent, _ := mem.CreateListing(ctx, core.Listing{ID: "r1", Type: core.Rent, Status: core.StatusClosed, Name: "Arte"})
	sale, _ := mem.CreateListing(ctx, core.Listing{ID: "s1", Type: core.Sale, Status: core.StatusClosed, Name: "Vortex"})
	deals := []core.Deal{
		{ListingID: rent.ID, Gross: 2000, CommissionRate: 50, Deductions: 100, UpdatedAt: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)},
		{ListingID: sale.ID, Gross: 500000, CommissionRate: 2, UpdatedAt: time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)},
	}
	for _, d := range deals {
		if _, err := mem.UpsertDeal(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	return mem
}

func newIncomeService(st IncomeStore) *IncomeService {
	svc := NewIncomeService(st, cache.NewLRU[core.MonthIncome](10, time.Minute), cache.NewLRU[core.Dashboard](10, time.Minute))
	svc.SetLocation(time.UTC)
	svc.SetClock(func() time.Time { return time.Date(2026, 2, 20, 8, 0, 0, 0, time.UTC) })
	return svc
}

func TestMonthIncome(t *testing.T) {
	st := &countingIncomeStore{IncomeStore: seedIncome(t)}
	svc := newIncomeService(st)
	ctx := context.Background()

	jan, err := svc.Month(ctx, "2026-1")
	if err != nil {
		t.Fatal(err)
	}
	if jan.Month != "2026-01" || len(jan.Lines) != 1 {
		t.Fatalf("january = %+v", jan)
	}
	if jan.TotalCommission != 1000 || jan.TotalNet != 900 {
		t.Fatalf("january totals = %v / %v", jan.TotalCommission, jan.TotalNet)
	}
	if jan.Lines[0].Listing.Name != "Arte" {
		t.Fatalf("line listing = %+v", jan.Lines[0].Listing)
	}

	current, err := svc.Month(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if current.Month != "2026-02" || current.TotalNet != 10000 {
		t.Fatalf("current month = %+v", current)
	}

	if _, err := svc.Month(ctx, "2026-01"); err != nil {
		t.Fatal(err)
	}
	if st.dealCalls != 2 {
		t.Fatalf("cached month reloaded deals, calls = %d", st.dealCalls)
	}
	svc.Invalidate()
	svc.Month(ctx, "2026-01")
	if st.dealCalls != 3 {
		t.Fatalf("invalidate did not purge, calls = %d", st.dealCalls)
	}

	if _, err := svc.Month(ctx, "January"); !errors.Is(err, core.ErrInvalidMonthKey) {
		t.Fatalf("bad key err = %v", err)
	}
}

func TestDashboardSummaries(t *testing.T) {
	svc := newIncomeService(seedIncome(t))
	ctx := context.Background()

	all, err := svc.Dashboard(ctx, "2026-01", "2026-02", "")
	if err != nil {
		t.Fatal(err)
	}
	if all.RangeDeals != 2 || all.Rent != 1 || all.Sale != 1 || all.RangeNet != 10900 {
		t.Fatalf("dashboard = %+v", all)
	}
	if len(all.Bars) != core.BarMonths || all.Bars[len(all.Bars)-1].Month != "2026-02" {
		t.Fatalf("bars = %+v", all.Bars)
	}

	rentOnly, _ := svc.Dashboard(ctx, "2026-01", "2026-02", core.Rent)
	if rentOnly.RangeNet != 900 || rentOnly.AllTimeNet != 10900 {
		t.Fatalf("rent dashboard = %+v", rentOnly)
	}

	current, _ := svc.Dashboard(ctx, "", "", "")
	if current.From != "2026-02" || current.RangeDeals != 1 {
		t.Fatalf("default range = %+v", current)
	}

	if _, err := svc.Dashboard(ctx, "2026-03", "2026-01", ""); !errors.Is(err, core.ErrInvalidRange) {
		t.Fatalf("reversed range err = %v", err)
	}
}

func TestDealsBetween(t *testing.T) {
	svc := newIncomeService(seedIncome(t))
	ctx := context.Background()

	got, err := svc.DealsBetween(ctx, core.NewDate(2026, 1, 1), core.NewDate(2026, 1, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Lines) != 1 || got.Month != "2026-01-01/2026-01-31" {
		t.Fatalf("range = %+v", got)
	}
	if _, err := svc.DealsBetween(ctx, core.NewDate(2026, 2, 1), core.NewDate(2026, 1, 1)); !errors.Is(err, core.ErrInvalidRange) {
		t.Fatalf("reversed dates err = %v", err)
	}
}
