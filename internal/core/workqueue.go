package core

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// View selects a slice of the work queue.
type View string

const (
	ViewAll    View = "all"
	ViewInbox  View = "inbox"
	ViewActive View = "active"
)

// WorkItem is a listing as read from the listings_work view, with its
// computed staleness.
type WorkItem struct {
	Listing
	AgingDays int
}

// QueueFilter narrows a work queue. Zero values mean "all".
type QueueFilter struct {
	View   View
	Type   ListingType
	Status Status
}

// QueueCounts are the badge numbers shown next to the queue tabs.
type QueueCounts struct {
	Inbox int `json:"inbox"`
	Due   int `json:"due"`
}

// NewWorkItem computes the aging of l at now.
func NewWorkItem(l Listing, now time.Time) WorkItem {
	return WorkItem{Listing: l, AgingDays: AgingDays(l, now)}
}

// RankWorkQueue returns a new slice ordered by urgency:
//  1. inbox before processed
//  2. earliest next follow-up first, listings without one last
//  3. lower priority number first (missing = DefaultPriority)
//  4. staler listings first
//  5. most recently updated first
//
// Items equal on all keys keep their input order.
func RankWorkQueue(items []WorkItem) []WorkItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, compareWork)
	return out
}

func compareWork(a, b WorkItem) int {
	if a.Inbox != b.Inbox {
		if a.Inbox {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(followUpKey(a.NextFollowUp), followUpKey(b.NextFollowUp)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.EffectivePriority(), b.EffectivePriority()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.AgingDays, a.AgingDays); c != 0 {
		return c
	}
	return cmp.Compare(lastUpdateKey(b.LastUpdate), lastUpdateKey(a.LastUpdate))
}

func followUpKey(t *time.Time) float64 {
	if t == nil || t.IsZero() {
		return math.Inf(1)
	}
	return float64(t.UnixMilli())
}

func lastUpdateKey(t *time.Time) int64 {
	if t == nil || t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FilterWorkQueue keeps the items matching f, preserving order.
func FilterWorkQueue(items []WorkItem, f QueueFilter) []WorkItem {
	out := make([]WorkItem, 0, len(items))
	for _, it := range items {
		switch f.View {
		case ViewInbox:
			if !it.Inbox {
				continue
			}
		case ViewActive:
			if it.Inbox {
				continue
			}
		}
		if f.Type != "" && it.Type != f.Type {
			continue
		}
		if f.Status != "" && it.Status != f.Status {
			continue
		}
		out = append(out, it)
	}
	return out
}

// CountQueue tallies inbox items and follow-ups due on or before today.
func CountQueue(items []WorkItem, today time.Time) QueueCounts {
	var c QueueCounts
	for _, it := range items {
		if it.Inbox {
			c.Inbox++
		}
		if IsFollowUpDue(it.NextFollowUp, today) {
			c.Due++
		}
	}
	return c
}

// ParseView maps a query value to a View, defaulting to ViewAll.
func ParseView(s string) View {
	switch View(s) {
	case ViewInbox, ViewActive:
		return View(s)
	}
	return ViewAll
}
