package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// QuickDraft is what the quick-capture parser recognized in a pasted
// owner or agent message.
type QuickDraft struct {
	Name          string      `json:"condo_name"`
	Area          string      `json:"area,omitempty"`
	Type          ListingType `json:"type"`
	Status        Status      `json:"status"`
	Furnish       Furnish     `json:"furnish,omitempty"`
	Price         *float64    `json:"price,omitempty"`
	Sqft          *float64    `json:"sqft,omitempty"`
	Bedrooms      *int        `json:"bedrooms,omitempty"`
	Bathrooms     *int        `json:"bathrooms,omitempty"`
	Carparks      *int        `json:"carparks,omitempty"`
	AvailableFrom *Date       `json:"available_from,omitempty"`
	RawText       string      `json:"raw_text"`
}

var (
	reSale      = regexp.MustCompile(`(?i)(sale|sell|for sale|出售|卖)`)
	reFully     = regexp.MustCompile(`(?i)(fully|full furnish|fully furnished|全配)`)
	rePartial   = regexp.MustCompile(`(?i)(partial|partly|semi|部分)`)
	reAvailable = regexp.MustCompile(`(?i)\bavailable\b|可入住|现房`)
	reBooked    = regexp.MustCompile(`(?i)\bbooked\b|已订`)
	reClosed    = regexp.MustCompile(`(?i)\bclosed\b|完成|成交`)
	reInactive  = regexp.MustCompile(`(?i)\binactive\b|下架`)
	rePriceRM   = regexp.MustCompile(`(?i)RM\s*([\d,]{3,})`)
	rePriceBare = regexp.MustCompile(`(?:^|\s)(\d{4,6})(?:\s|$)`)
	reSqft      = regexp.MustCompile(`(?i)(\d{3,5})\s*(sqft|sq\.?ft)`)
	reRoomsR    = regexp.MustCompile(`(?i)(\d)\s*R\b`)
	reBathsB    = regexp.MustCompile(`(?i)(\d)\s*B\b`)
	reRoomsWord = regexp.MustCompile(`(?i)(\d)\s*(bedroom|bed)\b`)
	reBathsWord = regexp.MustCompile(`(?i)(\d)\s*(bathroom|bath)\b`)
	reCarparks  = regexp.MustCompile(`(?i)(\d)\s*(parking|park|cp)\b`)
	reDate      = regexp.MustCompile(`(20\d{2})[-/](\d{1,2})[-/](\d{1,2})`)
	reDigit     = regexp.MustCompile(`\d`)
)

// ParseQuickCapture extracts listing attributes from free text. The first
// non-blank line is the building name; everything else is best effort.
func ParseQuickCapture(raw string) QuickDraft {
	lines := nonBlankLines(raw)
	d := QuickDraft{
		Type:    Rent,
		Status:  guessStatus(raw),
		Furnish: guessFurnish(raw),
		RawText: strings.TrimSpace(raw),
	}
	if len(lines) > 0 {
		d.Name = lines[0]
	}
	if len(lines) > 1 && len(lines[1]) <= 40 && !reDigit.MatchString(lines[1]) {
		d.Area = lines[1]
	}
	if reSale.MatchString(raw) {
		d.Type = Sale
	}
	d.Price = extractPrice(raw)
	if m := reSqft.FindStringSubmatch(raw); m != nil {
		d.Sqft = nullableFloat(m[1])
	}
	d.Bedrooms = firstInt(raw, reRoomsR, reRoomsWord)
	d.Bathrooms = firstInt(raw, reBathsB, reBathsWord)
	d.Carparks = firstInt(raw, reCarparks)
	d.AvailableFrom = extractDate(raw)
	return d
}

// Listing turns the draft into a new inbox listing: follow-up tomorrow,
// default priority. Only a draft recognized as Available keeps its status
// and move-in date; everything else starts as New.
func (d QuickDraft) Listing(now time.Time) Listing {
	status := StatusNew
	if d.Status == StatusAvailable {
		status = StatusAvailable
	}
	prio := DefaultPriority
	tomorrow := now.AddDate(0, 0, 1)
	l := Listing{
		Type:          d.Type,
		Status:        status,
		Name:          d.Name,
		Area:          d.Area,
		Price:         d.Price,
		Sqft:          d.Sqft,
		Bedrooms:      d.Bedrooms,
		Bathrooms:     d.Bathrooms,
		Carparks:      d.Carparks,
		Furnish:       d.Furnish,
		Inbox:         true,
		Priority:      &prio,
		NextFollowUp:  &tomorrow,
		AvailableFrom: d.AvailableFrom,
		RawText:       d.RawText,
		CreatedAt:     now,
	}
	l.Touch(now)
	l.Normalize()
	return l
}

func nonBlankLines(raw string) []string {
	var out []string
	for _, ln := range strings.Split(raw, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

func guessFurnish(raw string) Furnish {
	switch {
	case reFully.MatchString(raw):
		return FurnishFully
	case rePartial.MatchString(raw):
		return FurnishPartial
	}
	return FurnishNone
}

func guessStatus(raw string) Status {
	switch {
	case reAvailable.MatchString(raw):
		return StatusAvailable
	case reBooked.MatchString(raw):
		return StatusBooked
	case reClosed.MatchString(raw):
		return StatusClosed
	case reInactive.MatchString(raw):
		return StatusInactive
	}
	return StatusNew
}

func extractPrice(raw string) *float64 {
	if m := rePriceRM.FindStringSubmatch(raw); m != nil {
		if p := nullableFloat(m[1]); p != nil {
			return p
		}
	}
	if m := rePriceBare.FindStringSubmatch(raw); m != nil {
		return nullableFloat(m[1])
	}
	return nil
}

func extractDate(raw string) *Date {
	m := reDate.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	dd, _ := strconv.Atoi(m[3])
	d, err := ParseDate(fmt.Sprintf("%04d-%02d-%02d", y, mo, dd))
	if err != nil {
		return nil
	}
	return &d
}

func firstInt(raw string, res ...*regexp.Regexp) *int {
	for _, re := range res {
		if m := re.FindStringSubmatch(raw); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return &n
			}
		}
	}
	return nil
}

func nullableFloat(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
