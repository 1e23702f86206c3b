// Package export turns listing data into flat CSV backups.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field is one named column value.
type Field struct {
	Key   string
	Value any
}

// Record is a flat row whose field order is its column order.
type Record []Field

// Keys returns the column names of r.
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// ToCSV renders records with a header taken from the first record. Every
// value is quoted; nil renders as an empty quoted field. Newlines inside
// values are kept as-is. No records means no output at all.
func ToCSV(records []Record) string {
	if len(records) == 0 {
		return ""
	}
	headers := records[0].Keys()
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(headers, ","))
	for _, r := range records {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = quote(formatValue(r.Get(h)))
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n")
}

// Get returns the value stored under key, or nil.
func (r Record) Get(key string) any {
	for _, f := range r {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case *int:
		if x == nil {
			return ""
		}
		return strconv.Itoa(*x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	case *time.Time:
		if x == nil || x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
