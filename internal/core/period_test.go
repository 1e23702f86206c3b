package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseMonthKeyBoundaries(t *testing.T) {
	loc := time.UTC
	p, err := ParseMonthKey("2026-02", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := time.Date(2026, 2, 28, 23, 59, 59, 0, loc)
	out := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)
	first := time.Date(2026, 2, 1, 0, 0, 0, 0, loc)
	if !p.Contains(in) {
		t.Fatalf("expected %v inside %v", in, p)
	}
	if !p.Contains(first) {
		t.Fatalf("month start must be included")
	}
	if p.Contains(out) {
		t.Fatalf("expected %v outside %v", out, p)
	}

	start, next, err := MonthBounds("2026-12", loc)
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, loc)) || !next.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("december bounds = %v..%v", start, next)
	}
}

func TestParseMonthKeyInvalid(t *testing.T) {
	for _, k := range []string{"", "2026", "2026-13", "2026-00", "26-01", "abcd-01", "2026-01-01"} {
		if _, err := ParseMonthKey(k, nil); !errors.Is(err, ErrInvalidMonthKey) {
			t.Fatalf("ParseMonthKey(%q) err = %v", k, err)
		}
	}
	if _, err := ParseMonthKey("2026-3", nil); err != nil {
		t.Fatalf("single digit month should parse: %v", err)
	}
}

func TestMonthRange(t *testing.T) {
	p, err := MonthRange("2025-11", "2026-01", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Start.Equal(time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)) || !p.End.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("range = %v", p)
	}
	if _, err := MonthRange("2026-02", "2026-01", time.UTC); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestDateRangeBounds(t *testing.T) {
	from := NewDate(2026, 1, 10)
	to := NewDate(2026, 1, 12)
	p, err := DateRangeBounds(from, to)
	if err != nil {
		t.Fatal(err)
	}
	lastMinute := time.Date(2026, 1, 12, 23, 59, 0, 0, time.Local)
	if !p.Contains(lastMinute) {
		t.Fatalf("toDate must be inclusive")
	}
	if p.Contains(time.Date(2026, 1, 13, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("day after toDate must be excluded")
	}
	if p.Contains(time.Date(2026, 1, 9, 23, 59, 0, 0, time.Local)) {
		t.Fatalf("day before fromDate must be excluded")
	}

	same, err := DateRangeBounds(from, from)
	if err != nil || same.Start.Day() != 10 || same.End.Day() != 11 {
		t.Fatalf("single-day range = %v, %v", same, err)
	}

	if _, err := DateRangeBounds(to, from); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("from > to must be rejected, got %v", err)
	}
}

func TestMonthKeyAndLastMonths(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	if got := MonthKey(now); got != "2026-03" {
		t.Fatalf("MonthKey = %q", got)
	}
	if got := MonthKey(AddMonths(now, -1)); got != "2026-02" {
		t.Fatalf("AddMonths must not overflow into March, got %q", got)
	}
	keys := LastMonths(now, 12)
	if len(keys) != 12 || keys[0] != "2025-04" || keys[11] != "2026-03" {
		t.Fatalf("LastMonths = %v", keys)
	}
}
