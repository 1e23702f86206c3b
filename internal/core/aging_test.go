package core

import (
	"testing"
	"time"
)

func TestAgingDays(t *testing.T) {
	now := time.Date(2026, 1, 20, 15, 30, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}
	cases := []struct {
		name string
		l    Listing
		want int
	}{
		{"seven days same time", Listing{LastUpdate: at(-7 * 24 * time.Hour)}, 7},
		{"six days", Listing{LastUpdate: at(-6 * 24 * time.Hour)}, 6},
		{"same day earlier", Listing{LastUpdate: at(-15 * time.Hour)}, 0},
		{"yesterday late night", Listing{LastUpdate: at(-16 * time.Hour)}, 1},
		{"future", Listing{LastUpdate: at(48 * time.Hour)}, 0},
		{"falls back to updated_at", Listing{UpdatedAt: now.AddDate(0, 0, -3)}, 3},
		{"last_update wins", Listing{LastUpdate: at(-24 * time.Hour), UpdatedAt: now.AddDate(0, 0, -30)}, 1},
		{"no timestamps", Listing{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AgingDays(tc.l, now); got != tc.want {
				t.Fatalf("AgingDays = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestColdBoundary(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.Local)
	seven := now.AddDate(0, 0, -7)
	six := now.AddDate(0, 0, -6)
	if !IsCold(AgingDays(Listing{LastUpdate: &seven}, now)) {
		t.Fatalf("7 days must be cold")
	}
	if IsCold(AgingDays(Listing{LastUpdate: &six}, now)) {
		t.Fatalf("6 days must not be cold")
	}
}

func TestAgingAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 2026-03-29 is the spring-forward day in Europe.
	last := time.Date(2026, 3, 28, 10, 0, 0, 0, loc)
	now := time.Date(2026, 3, 30, 10, 0, 0, 0, loc)
	if got := AgingDays(Listing{LastUpdate: &last}, now); got != 2 {
		t.Fatalf("AgingDays across DST = %d, want 2", got)
	}
}

func TestIsFollowUpDue(t *testing.T) {
	today := time.Date(2026, 1, 20, 8, 0, 0, 0, time.UTC)
	ts := func(y int, m time.Month, d, h int) *time.Time {
		v := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
		return &v
	}
	cases := []struct {
		name string
		next *time.Time
		want bool
	}{
		{"nil", nil, false},
		{"overdue", ts(2026, 1, 18, 12), true},
		{"later today", ts(2026, 1, 20, 23), true},
		{"tomorrow", ts(2026, 1, 21, 0), false},
	}
	for _, tc := range cases {
		if got := IsFollowUpDue(tc.next, today); got != tc.want {
			t.Fatalf("%s: IsFollowUpDue = %v, want %v", tc.name, got, tc.want)
		}
	}
}
