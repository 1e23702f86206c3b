// Package postgres stores listings in a hosted Postgres database via gorm.
package postgres

import (
	"time"

	"github.com/lib/pq"
)

type Listing struct {
	ID            string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type          string `gorm:"not null"`
	Status        string `gorm:"not null"`
	CondoName     string `gorm:"column:condo_name;not null"`
	Area          string
	Price         *float64
	Sqft          *float64
	Bedrooms      *int
	Bathrooms     *int
	Carparks      *int
	Furnish       string
	Inbox         bool `gorm:"not null"`
	Priority      *int
	NextFollowUp  *time.Time `gorm:"column:next_follow_up"`
	LastUpdate    *time.Time `gorm:"column:last_update"`
	AvailableFrom *time.Time `gorm:"column:available_from;type:date"`
	RawText       string     `gorm:"column:raw_text"`
	Link          string
	Photos        pq.StringArray `gorm:"type:text[]"`
	// Older imports kept references as raw text in one of these columns.
	PhotoURLs *string `gorm:"column:photo_urls;type:text"`
	Images    *string `gorm:"column:images;type:text"`
	ImageURLs *string `gorm:"column:image_urls;type:text"`
	CreatedAt     time.Time      `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime:false"`
}

func (Listing) TableName() string { return "listings" }

// legacyPhotoColumns are read but never written by the repository.
var legacyPhotoColumns = []string{"photo_urls", "images", "image_urls"}

// photoFields collects every non-null photo column keyed by its column name.
func (m Listing) photoFields() map[string]any {
	row := make(map[string]any, 4)
	if len(m.Photos) > 0 {
		row["photos"] = []string(m.Photos)
	}
	for col, v := range map[string]*string{
		"photo_urls": m.PhotoURLs,
		"images":     m.Images,
		"image_urls": m.ImageURLs,
	} {
		if v != nil {
			row[col] = *v
		}
	}
	return row
}

// WorkRow is a row of the listings_work view.
type WorkRow struct {
	Listing
	AgingRef time.Time `gorm:"column:aging_ref"`
}

type Deal struct {
	ListingID        string  `gorm:"type:uuid;primaryKey"`
	Gross            float64 `gorm:"not null;default:0"`
	CommissionRate   float64 `gorm:"not null;default:0"`
	Deductions       float64 `gorm:"not null;default:0"`
	CommissionAmount *float64
	Net              *float64
	Notes            string
	UpdatedAt        time.Time `gorm:"not null;index;autoUpdateTime:false"`
}

func (Deal) TableName() string { return "deals" }

type Photo struct {
	ID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ListingID   string `gorm:"type:uuid;not null;index:idx_listing_photos_listing"`
	StoragePath string `gorm:"not null"`
	SortOrder   int    `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
}

func (Photo) TableName() string { return "listing_photos" }

const createWorkView = `CREATE OR REPLACE VIEW listings_work AS
SELECT l.*, COALESCE(l.last_update, l.updated_at) AS aging_ref
FROM listings l`
