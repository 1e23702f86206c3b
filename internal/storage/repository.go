package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"propcrm/internal/core"
	"propcrm/internal/store"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexicographically, which the range queries rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Listings

func (r *SQLiteRepository) GetListing(ctx context.Context, id string) (core.Listing, error) {
	row, err := r.queries.GetListing(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Listing{}, store.ErrNotFound
	}
	if err != nil {
		return core.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return listingFromRow(row), nil
}

func (r *SQLiteRepository) ListListings(ctx context.Context) ([]core.Listing, error) {
	rows, err := r.queries.ListListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listingsFromRows(rows), nil
}

func (r *SQLiteRepository) ListWork(ctx context.Context, now time.Time) ([]core.WorkItem, error) {
	rows, err := r.queries.ListWork(ctx)
	if err != nil {
		return nil, fmt.Errorf("list work queue: %w", err)
	}
	items := make([]core.WorkItem, len(rows))
	for i, row := range rows {
		l := listingFromRow(row.ListingRow)
		items[i] = core.WorkItem{
			Listing:   l,
			AgingDays: core.AgingDays(core.Listing{LastUpdate: parseTimePtr(row.AgingRef)}, now),
		}
	}
	return items, nil
}

func (r *SQLiteRepository) ListListingsByIDs(ctx context.Context, ids []string) ([]core.Listing, error) {
	rows, err := r.queries.ListListingsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list listings by id: %w", err)
	}
	return listingsFromRows(rows), nil
}

func (r *SQLiteRepository) CreateListing(ctx context.Context, l core.Listing) (core.Listing, error) {
	if err := l.Validate(); err != nil {
		return core.Listing{}, err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = now
	}
	l.Normalize()
	if err := r.queries.CreateListing(ctx, listingToRow(l)); err != nil {
		return core.Listing{}, fmt.Errorf("create listing: %w", err)
	}

	slog.InfoContext(ctx, "Listing saved to SQLite",
		"listing_id", l.ID,
		"condo_name", l.Name,
		"type", l.Type,
		"status", l.Status)

	return r.GetListing(ctx, l.ID)
}

func (r *SQLiteRepository) UpdateListing(ctx context.Context, l core.Listing) (core.Listing, error) {
	if err := l.Validate(); err != nil {
		return core.Listing{}, err
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = time.Now()
	}
	l.Normalize()
	n, err := r.queries.UpdateListing(ctx, listingToRow(l))
	if err != nil {
		return core.Listing{}, fmt.Errorf("update listing: %w", err)
	}
	if n == 0 {
		return core.Listing{}, store.ErrNotFound
	}
	return r.GetListing(ctx, l.ID)
}

func (r *SQLiteRepository) DeleteListing(ctx context.Context, id string) error {
	n, err := r.queries.DeleteListing(ctx, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	slog.InfoContext(ctx, "Listing deleted", "listing_id", id)
	return nil
}

// Deals

func (r *SQLiteRepository) GetDeal(ctx context.Context, listingID string) (core.Deal, error) {
	row, err := r.queries.GetDeal(ctx, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Deal{}, store.ErrNotFound
	}
	if err != nil {
		return core.Deal{}, fmt.Errorf("get deal: %w", err)
	}
	return dealFromRow(row), nil
}

func (r *SQLiteRepository) UpsertDeal(ctx context.Context, d core.Deal) (core.Deal, error) {
	if _, err := r.queries.GetListing(ctx, d.ListingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Deal{}, store.ErrNotFound
		}
		return core.Deal{}, fmt.Errorf("lookup deal listing: %w", err)
	}
	d.Clamp()
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now()
	}
	inc := d.Income()
	row := DealRow{
		ListingID:        d.ListingID,
		Gross:            d.Gross,
		CommissionRate:   d.CommissionRate,
		Deductions:       d.Deductions,
		CommissionAmount: sql.NullFloat64{Float64: inc.Commission, Valid: true},
		Net:              sql.NullFloat64{Float64: inc.Net, Valid: true},
		Notes:            d.Notes,
		UpdatedAt:        formatTime(d.UpdatedAt),
	}
	if err := r.queries.UpsertDeal(ctx, row); err != nil {
		return core.Deal{}, fmt.Errorf("upsert deal: %w", err)
	}

	slog.InfoContext(ctx, "Deal saved to SQLite",
		"listing_id", d.ListingID,
		"gross", d.Gross,
		"commission_rate", d.CommissionRate,
		"net", inc.Net)

	return dealFromRow(row), nil
}

func (r *SQLiteRepository) ListDeals(ctx context.Context, within *core.Period) ([]core.Deal, error) {
	var bounds []string
	if within != nil {
		bounds = []string{formatTime(within.Start), formatTime(within.End)}
	}
	rows, err := r.queries.ListDeals(ctx, bounds...)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	out := make([]core.Deal, len(rows))
	for i, row := range rows {
		out[i] = dealFromRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteDeal(ctx context.Context, listingID string) error {
	if err := r.queries.DeleteDeal(ctx, listingID); err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	return nil
}

// Photos

func (r *SQLiteRepository) ListPhotos(ctx context.Context, listingID string) ([]core.Photo, error) {
	return r.ListPhotosByListings(ctx, []string{listingID})
}

func (r *SQLiteRepository) ListPhotosByListings(ctx context.Context, listingIDs []string) ([]core.Photo, error) {
	rows, err := r.queries.ListPhotosByListings(ctx, listingIDs)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	out := make([]core.Photo, len(rows))
	for i, p := range rows {
		out[i] = core.Photo{
			ID:          p.ID,
			ListingID:   p.ListingID,
			StoragePath: p.StoragePath,
			SortOrder:   int(p.SortOrder),
			CreatedAt:   parseTime(p.CreatedAt),
		}
	}
	return out, nil
}

func (r *SQLiteRepository) AddPhoto(ctx context.Context, p core.Photo) (core.Photo, error) {
	if _, err := r.queries.GetListing(ctx, p.ListingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Photo{}, store.ErrNotFound
		}
		return core.Photo{}, fmt.Errorf("lookup photo listing: %w", err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	err := r.queries.AddPhoto(ctx, PhotoRow{
		ID:          p.ID,
		ListingID:   p.ListingID,
		StoragePath: p.StoragePath,
		SortOrder:   int64(p.SortOrder),
		CreatedAt:   formatTime(p.CreatedAt),
	})
	if err != nil {
		return core.Photo{}, fmt.Errorf("add photo: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) DeletePhotos(ctx context.Context, listingID string) (int, error) {
	n, err := r.queries.DeletePhotos(ctx, listingID)
	if err != nil {
		return 0, fmt.Errorf("delete photos: %w", err)
	}
	return int(n), nil
}

func (r *SQLiteRepository) CountPhotos(ctx context.Context) (map[string]int, error) {
	counts, err := r.queries.CountPhotos(ctx)
	if err != nil {
		return nil, fmt.Errorf("count photos: %w", err)
	}
	return counts, nil
}

// Row mapping

func listingsFromRows(rows []ListingRow) []core.Listing {
	out := make([]core.Listing, len(rows))
	for i, row := range rows {
		out[i] = listingFromRow(row)
	}
	return out
}

func listingFromRow(r ListingRow) core.Listing {
	l := core.Listing{
		ID:           r.ID,
		Type:         core.ListingType(r.Type),
		Name:         r.CondoName,
		Area:         r.Area,
		Price:        nullFloat(r.Price),
		Sqft:         nullFloat(r.Sqft),
		Bedrooms:     nullInt(r.Bedrooms),
		Bathrooms:    nullInt(r.Bathrooms),
		Carparks:     nullInt(r.Carparks),
		Furnish:      core.Furnish(r.Furnish),
		Inbox:        r.Inbox,
		Priority:     nullInt(r.Priority),
		NextFollowUp: parseTimePtr(r.NextFollowUp.String),
		LastUpdate:   parseTimePtr(r.LastUpdate.String),
		RawText:      r.RawText,
		Link:         r.Link,
		CreatedAt:    parseTime(r.CreatedAt),
		UpdatedAt:    parseTime(r.UpdatedAt),
	}
	if st, err := core.ParseStatus(r.Status); err == nil {
		l.Status = st
	} else {
		l.Status = core.StatusNew
	}
	if r.AvailableFrom.Valid {
		if d, err := core.ParseDate(r.AvailableFrom.String); err == nil {
			l.AvailableFrom = &d
		}
	}
	l.PhotoRefs = core.NormalizePhotoRefs(r.photoFields())
	return l
}

// photoFields collects the non-null photo columns keyed by column name.
func (r ListingRow) photoFields() map[string]any {
	row := make(map[string]any, 4)
	for col, v := range map[string]sql.NullString{
		"photos":     r.Photos,
		"photo_urls": r.PhotoURLs,
		"images":     r.Images,
		"image_urls": r.ImageURLs,
	} {
		if v.Valid {
			row[col] = v.String
		}
	}
	return row
}

func listingToRow(l core.Listing) ListingRow {
	row := ListingRow{
		ID:        l.ID,
		Type:      string(l.Type),
		Status:    string(l.Status),
		CondoName: l.Name,
		Area:      l.Area,
		Furnish:   string(l.Furnish),
		Inbox:     l.Inbox,
		RawText:   l.RawText,
		Link:      l.Link,
		CreatedAt: formatTime(l.CreatedAt),
		UpdatedAt: formatTime(l.UpdatedAt),
	}
	if l.Price != nil {
		row.Price = sql.NullFloat64{Float64: *l.Price, Valid: true}
	}
	if l.Sqft != nil {
		row.Sqft = sql.NullFloat64{Float64: *l.Sqft, Valid: true}
	}
	row.Bedrooms = toNullInt(l.Bedrooms)
	row.Bathrooms = toNullInt(l.Bathrooms)
	row.Carparks = toNullInt(l.Carparks)
	row.Priority = toNullInt(l.Priority)
	row.NextFollowUp = toNullTime(l.NextFollowUp)
	row.LastUpdate = toNullTime(l.LastUpdate)
	if l.AvailableFrom != nil {
		row.AvailableFrom = sql.NullString{String: l.AvailableFrom.String(), Valid: true}
	}
	if l.PhotoRefs.Kind == core.RefsPaths {
		b, _ := json.Marshal(l.PhotoRefs.Paths)
		row.Photos = sql.NullString{String: string(b), Valid: true}
	}
	return row
}

func dealFromRow(r DealRow) core.Deal {
	return core.Deal{
		ListingID:        r.ListingID,
		Gross:            r.Gross,
		CommissionRate:   r.CommissionRate,
		Deductions:       r.Deductions,
		Notes:            r.Notes,
		UpdatedAt:        parseTime(r.UpdatedAt),
		StoredCommission: nullFloat(r.CommissionAmount),
		StoredNet:        nullFloat(r.Net),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.Local()
}

func parseTimePtr(s string) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}

func toNullTime(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func toNullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
