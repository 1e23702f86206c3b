package core

import (
	"strconv"
	"strings"
	"time"
)

const placeholder = "—"

// BuildTenantText renders the shareable plain-text block sent to
// prospective tenants. Every attribute is optional; absent ones are left
// out. today decides whether the unit is ready to move in.
func BuildTenantText(l Listing, today time.Time) string {
	lines := make([]string, 0, 10)

	name := strings.TrimSpace(l.Name)
	if name == "" {
		name = placeholder
	}
	lines = append(lines, name, "")

	if l.Sqft != nil && *l.Sqft > 0 {
		lines = append(lines, formatQuantity(*l.Sqft)+" sqft")
	}
	if l.Bedrooms != nil || l.Bathrooms != nil {
		lines = append(lines, countOrPlaceholder(l.Bedrooms)+" bedroom "+countOrPlaceholder(l.Bathrooms)+" bathroom")
	}
	switch l.Furnish {
	case FurnishFully:
		lines = append(lines, "Fully Furnished")
	case FurnishPartial:
		lines = append(lines, "Partial Furnished")
	}
	if l.Carparks != nil {
		if *l.Carparks == 0 {
			lines = append(lines, "no parking")
		} else {
			lines = append(lines, strconv.Itoa(*l.Carparks)+" parking")
		}
	}
	if l.Price != nil && *l.Price > 0 {
		lines = append(lines, FormatRM(*l.Price))
	}

	lines = append(lines, "", AvailabilityLabel(l.AvailableFrom, today))
	return strings.Join(lines, "\n")
}

// AvailabilityLabel describes when a unit frees up: "Ready move in" when
// the date is absent or not after today, otherwise the early/mid/end bucket
// of its month, e.g. "Available mid Mar".
func AvailabilityLabel(from *Date, today time.Time) string {
	if from == nil || from.IsZero() {
		return "Ready move in"
	}
	if !StartOfDay(from.Time).After(StartOfDay(today)) {
		return "Ready move in"
	}
	var bucket string
	switch day := from.Day(); {
	case day <= 10:
		bucket = "early"
	case day <= 20:
		bucket = "mid"
	default:
		bucket = "end"
	}
	return "Available " + bucket + " " + from.Format("Jan")
}

func countOrPlaceholder(n *int) string {
	if n == nil {
		return placeholder
	}
	return strconv.Itoa(*n)
}

func formatQuantity(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
