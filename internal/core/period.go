package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidMonthKey = errors.New("invalid month key, expected YYYY-MM")
	ErrInvalidRange    = errors.New("range start is after range end")
)

// Period is the half-open interval [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether Start <= t < End.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// MonthKey formats t as "YYYY-MM" in t's own location.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// StartOfDay zeroes the time-of-day of t in its location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseMonthKey returns the bounds of the month named by key:
// its first instant and the first instant of the following month.
// A nil loc means time.Local.
func ParseMonthKey(key string, loc *time.Location) (Period, error) {
	if loc == nil {
		loc = time.Local
	}
	y, m, err := splitMonthKey(key)
	if err != nil {
		return Period{}, err
	}
	start := time.Date(y, time.Month(m), 1, 0, 0, 0, 0, loc)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// MonthBounds is ParseMonthKey split into monthStart and nextMonthStart.
func MonthBounds(key string, loc *time.Location) (time.Time, time.Time, error) {
	p, err := ParseMonthKey(key, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return p.Start, p.End, nil
}

func splitMonthKey(key string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(key), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) < 1 || len(parts[1]) > 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthKey, key)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthKey, key)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthKey, key)
	}
	return y, m, nil
}

// MonthRange spans fromKey's first instant up to the start of the month
// after toKey. fromKey after toKey is rejected.
func MonthRange(fromKey, toKey string, loc *time.Location) (Period, error) {
	from, err := ParseMonthKey(fromKey, loc)
	if err != nil {
		return Period{}, err
	}
	to, err := ParseMonthKey(toKey, loc)
	if err != nil {
		return Period{}, err
	}
	if from.Start.After(to.Start) {
		return Period{}, ErrInvalidRange
	}
	return Period{Start: from.Start, End: to.End}, nil
}

// DateRangeBounds turns two calendar dates into [startOfDay(from),
// startOfDay(to + 1 day)), so toDate is inclusive.
func DateRangeBounds(from, to Date) (Period, error) {
	start := StartOfDay(from.Time)
	end := StartOfDay(to.Time)
	if start.After(end) {
		return Period{}, ErrInvalidRange
	}
	return Period{Start: start, End: end.AddDate(0, 0, 1)}, nil
}

// AddMonths returns the first day of the month delta months away from t.
func AddMonths(t time.Time, delta int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(delta), 1, 0, 0, 0, 0, t.Location())
}

// LastMonths returns the n month keys ending with now's month, oldest first.
func LastMonths(now time.Time, n int) []string {
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, MonthKey(AddMonths(now, -i)))
	}
	return keys
}
