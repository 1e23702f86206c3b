// Package core holds the listing domain and the pure derivation rules the
// CRM applies to rows fetched from the store.
//
// This file contains the commission arithmetic and ringgit formatting.
// Every function here is total: malformed input degrades to 0 instead of
// returning an error.
package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Income is the derived money view of a deal.
type Income struct {
	Gross          float64 `json:"gross"`
	CommissionRate float64 `json:"commission_rate"`
	Commission     float64 `json:"commission_amount"`
	Deductions     float64 `json:"deductions"`
	Net            float64 `json:"net"`
}

// Numeric coerces v to a finite float64, falling back to 0.
//
// Accepted: every Go integer and float kind, pointers to them, bool,
// json.Number and numeric strings (surrounding spaces and thousands commas
// are ignored).
func Numeric(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case bool:
		if n {
			f = 1
		}
	case *float64:
		if n == nil {
			return 0
		}
		f = *n
	case *int:
		if n == nil {
			return 0
		}
		f = float64(*n)
	case json.Number:
		f = parseNumeric(string(n))
	case string:
		f = parseNumeric(n)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseNumeric(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// ClampPercent bounds a rate to [0,100].
func ClampPercent(v any) float64 {
	return math.Min(100, math.Max(0, Numeric(v)))
}

// CommissionAmount is gross × clamped rate / 100.
func CommissionAmount(gross, rate any) float64 {
	return Numeric(gross) * ClampPercent(rate) / 100
}

// NetAmount is the commission minus deductions, floored at 0.
func NetAmount(gross, rate, deductions any) float64 {
	return math.Max(0, CommissionAmount(gross, rate)-Numeric(deductions))
}

// Income recomputes the deal's commission and net from its inputs. The
// stored commission/net columns are ignored on purpose. Negative stored
// deductions read as 0.
func (d Deal) Income() Income {
	deductions := math.Max(0, Numeric(d.Deductions))
	return Income{
		Gross:          Numeric(d.Gross),
		CommissionRate: ClampPercent(d.CommissionRate),
		Commission:     CommissionAmount(d.Gross, d.CommissionRate),
		Deductions:     deductions,
		Net:            NetAmount(d.Gross, d.CommissionRate, deductions),
	}
}

// FormatRM renders an amount as Malaysian ringgit with no decimals,
// e.g. 1800 -> "RM1,800".
func FormatRM(amount float64) string {
	amount = Numeric(amount)
	neg := amount < 0
	whole := int64(math.Round(math.Abs(amount)))

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg && whole != 0 {
		return "-RM" + b.String()
	}
	return "RM" + b.String()
}
