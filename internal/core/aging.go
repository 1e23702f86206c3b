package core

import "time"

// ColdAfterDays is the staleness threshold at which a listing counts as cold.
const ColdAfterDays = 7

// AgingDays counts whole calendar days between the listing's last touch
// (LastUpdate, else UpdatedAt) and now. Both ends are truncated to midnight
// in now's location, so the same calendar day yields 0. A reference in the
// future yields 0.
func AgingDays(l Listing, now time.Time) int {
	ref := l.UpdatedAt
	if l.LastUpdate != nil {
		ref = *l.LastUpdate
	}
	if ref.IsZero() {
		return 0
	}
	return daysBetween(ref.In(now.Location()), now)
}

func daysBetween(from, to time.Time) int {
	a := StartOfDay(from)
	b := StartOfDay(to)
	if !a.Before(b) {
		return 0
	}
	// Re-anchor in UTC so DST transitions cannot shave an hour off a day.
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	start := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	end := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// IsCold reports whether a listing aged this many days needs attention.
func IsCold(agingDays int) bool {
	return agingDays >= ColdAfterDays
}

// IsFollowUpDue reports whether next falls on or before today's date.
// Time of day is ignored. A nil follow-up is never due.
func IsFollowUpDue(next *time.Time, today time.Time) bool {
	if next == nil || next.IsZero() {
		return false
	}
	due := StartOfDay(next.In(today.Location()))
	return !due.After(StartOfDay(today))
}
