package export

import (
	"fmt"
	"time"

	"propcrm/internal/core"
)

// BackupColumns is the column order of the listings backup.
var BackupColumns = []string{
	"listing_id", "condo_name", "area", "type", "status",
	"price", "sqft", "bedrooms", "bathrooms", "carparks",
	"gross", "commission_rate", "deductions", "commission_amount", "net", "notes",
	"photos_count", "listing_updated_at", "deal_updated_at",
}

// BackupRows joins every listing with its deal (if any) and photo count.
// Deal money columns are recomputed from the deal inputs; a listing
// without a deal gets empty deal columns.
func BackupRows(listings []core.Listing, deals map[string]core.Deal, photoCounts map[string]int) []Record {
	rows := make([]Record, 0, len(listings))
	for _, l := range listings {
		values := map[string]any{
			"listing_id":         l.ID,
			"condo_name":         l.Name,
			"area":               l.Area,
			"type":               string(l.Type),
			"status":             string(l.Status),
			"price":              l.Price,
			"sqft":               l.Sqft,
			"bedrooms":           l.Bedrooms,
			"bathrooms":          l.Bathrooms,
			"carparks":           l.Carparks,
			"photos_count":       photoCounts[l.ID],
			"listing_updated_at": l.UpdatedAt,
		}
		if d, ok := deals[l.ID]; ok {
			inc := d.Income()
			values["gross"] = inc.Gross
			values["commission_rate"] = inc.CommissionRate
			values["deductions"] = inc.Deductions
			values["commission_amount"] = inc.Commission
			values["net"] = inc.Net
			values["notes"] = d.Notes
			values["deal_updated_at"] = d.UpdatedAt
		}

		r := make(Record, len(BackupColumns))
		for i, col := range BackupColumns {
			r[i] = Field{Key: col, Value: values[col]}
		}
		rows = append(rows, r)
	}
	return rows
}

// BackupFilename names a backup taken at now.
func BackupFilename(now time.Time) string {
	return fmt.Sprintf("property-backup-%d.csv", now.UnixMilli())
}
