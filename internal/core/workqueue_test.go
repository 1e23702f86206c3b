package core

import (
	"testing"
	"time"
)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrInt(n int) *int              { return &n }
func ptrFloat(f float64) *float64    { return &f }

func ids(items []WorkItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRankInboxDominates(t *testing.T) {
	now := time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)
	a := WorkItem{Listing: Listing{ID: "A", Inbox: true}}
	b := WorkItem{Listing: Listing{ID: "B", NextFollowUp: ptrTime(now.AddDate(0, 0, -1))}}
	got := ids(RankWorkQueue([]WorkItem{b, a}))
	if !equalIDs(got, []string{"A", "B"}) {
		t.Fatalf("order = %v, want [A B]", got)
	}
}

func TestRankKeys(t *testing.T) {
	base := time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)
	items := []WorkItem{
		{Listing: Listing{ID: "no-followup"}},
		{Listing: Listing{ID: "later", NextFollowUp: ptrTime(base.AddDate(0, 0, 2))}},
		{Listing: Listing{ID: "sooner", NextFollowUp: ptrTime(base.AddDate(0, 0, 1))}},
		{Listing: Listing{ID: "p1", NextFollowUp: ptrTime(base.AddDate(0, 0, 3)), Priority: ptrInt(1)}},
		{Listing: Listing{ID: "p-default", NextFollowUp: ptrTime(base.AddDate(0, 0, 3))}},
		{Listing: Listing{ID: "p3", NextFollowUp: ptrTime(base.AddDate(0, 0, 3)), Priority: ptrInt(3)}},
		{Listing: Listing{ID: "stale", Priority: ptrInt(1)}, AgingDays: 9},
		{Listing: Listing{ID: "fresh-new", Priority: ptrInt(1), LastUpdate: ptrTime(base)}, AgingDays: 1},
		{Listing: Listing{ID: "fresh-old", Priority: ptrInt(1), LastUpdate: ptrTime(base.Add(-time.Hour))}, AgingDays: 1},
	}
	want := []string{"sooner", "later", "p1", "p-default", "p3", "stale", "fresh-new", "fresh-old", "no-followup"}
	got := ids(RankWorkQueue(items))
	if !equalIDs(got, want) {
		t.Fatalf("order = %v\nwant    %v", got, want)
	}
}

func TestRankIsStableAndPure(t *testing.T) {
	items := []WorkItem{
		{Listing: Listing{ID: "1"}},
		{Listing: Listing{ID: "2"}},
		{Listing: Listing{ID: "3", Inbox: true}},
		{Listing: Listing{ID: "4"}},
	}
	before := ids(items)
	got := ids(RankWorkQueue(items))
	if !equalIDs(got, []string{"3", "1", "2", "4"}) {
		t.Fatalf("order = %v", got)
	}
	if !equalIDs(ids(items), before) {
		t.Fatalf("input mutated: %v", ids(items))
	}
}

func TestFilterAndCount(t *testing.T) {
	today := time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)
	items := []WorkItem{
		{Listing: Listing{ID: "a", Inbox: true, Type: Rent, Status: StatusNew, NextFollowUp: ptrTime(today)}},
		{Listing: Listing{ID: "b", Type: Sale, Status: StatusViewing, NextFollowUp: ptrTime(today.AddDate(0, 0, -2))}},
		{Listing: Listing{ID: "c", Type: Rent, Status: StatusViewing, NextFollowUp: ptrTime(today.AddDate(0, 0, 1))}},
	}
	cases := []struct {
		f    QueueFilter
		want []string
	}{
		{QueueFilter{}, []string{"a", "b", "c"}},
		{QueueFilter{View: ViewInbox}, []string{"a"}},
		{QueueFilter{View: ViewActive}, []string{"b", "c"}},
		{QueueFilter{Type: Rent}, []string{"a", "c"}},
		{QueueFilter{View: ViewActive, Status: StatusViewing, Type: Rent}, []string{"c"}},
	}
	for _, tc := range cases {
		if got := ids(FilterWorkQueue(items, tc.f)); !equalIDs(got, tc.want) {
			t.Fatalf("filter %+v = %v, want %v", tc.f, got, tc.want)
		}
	}
	c := CountQueue(items, today)
	if c.Inbox != 1 || c.Due != 2 {
		t.Fatalf("counts = %+v", c)
	}
}

func TestParseView(t *testing.T) {
	if ParseView("inbox") != ViewInbox || ParseView("active") != ViewActive || ParseView("bogus") != ViewAll {
		t.Fatalf("ParseView mapping broken")
	}
}
