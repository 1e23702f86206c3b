package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"propcrm/internal/core"
	"propcrm/internal/store"
)

// Repository implements store.Store on gorm.
type Repository struct {
	DB *gorm.DB
}

var _ store.Store = (*Repository)(nil)

// Open connects to dsn and migrates the schema.
func Open(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	r := NewRepository(db)
	if err := r.Migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// Migrate creates the tables and the listings_work view.
func (r *Repository) Migrate() error {
	if err := r.DB.AutoMigrate(&Listing{}, &Deal{}, &Photo{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := r.DB.Exec(createWorkView).Error; err != nil {
		return fmt.Errorf("create listings_work view: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

// Listings

func (r *Repository) GetListing(ctx context.Context, id string) (core.Listing, error) {
	if uuid.Validate(id) != nil {
		return core.Listing{}, store.ErrNotFound
	}
	var m Listing
	if err := r.DB.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return core.Listing{}, notFound(err)
	}
	return toCoreListing(m), nil
}

func (r *Repository) ListListings(ctx context.Context) ([]core.Listing, error) {
	var list []Listing
	if err := r.DB.WithContext(ctx).Order("created_at DESC, id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return toCoreListings(list), nil
}

func (r *Repository) ListWork(ctx context.Context, now time.Time) ([]core.WorkItem, error) {
	var rows []WorkRow
	if err := r.DB.WithContext(ctx).Table("listings_work").Order("created_at DESC, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list work queue: %w", err)
	}
	out := make([]core.WorkItem, len(rows))
	for i, row := range rows {
		ref := row.AgingRef
		out[i] = core.WorkItem{
			Listing:   toCoreListing(row.Listing),
			AgingDays: core.AgingDays(core.Listing{LastUpdate: &ref}, now),
		}
	}
	return out, nil
}

func (r *Repository) ListListingsByIDs(ctx context.Context, ids []string) ([]core.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []Listing
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("created_at DESC, id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list listings by id: %w", err)
	}
	return toCoreListings(list), nil
}

func (r *Repository) CreateListing(ctx context.Context, l core.Listing) (core.Listing, error) {
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
	m := fromCoreListing(l)
	if err := r.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return core.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	slog.InfoContext(ctx, "Listing saved to Postgres", "listing_id", m.ID, "condo_name", m.CondoName)
	return toCoreListing(m), nil
}

func (r *Repository) UpdateListing(ctx context.Context, l core.Listing) (core.Listing, error) {
	if err := l.Validate(); err != nil {
		return core.Listing{}, err
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = time.Now()
	}
	l.Normalize()
	m := fromCoreListing(l)
	res := r.DB.WithContext(ctx).Model(&Listing{}).Where("id = ?", l.ID).
		Select("*").Omit(append([]string{"id", "created_at"}, legacyPhotoColumns...)...).Updates(&m)
	if res.Error != nil {
		return core.Listing{}, fmt.Errorf("update listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return core.Listing{}, store.ErrNotFound
	}
	return r.GetListing(ctx, l.ID)
}

func (r *Repository) DeleteListing(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return store.ErrNotFound
	}
	res := r.DB.WithContext(ctx).Delete(&Listing{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Deals

func (r *Repository) GetDeal(ctx context.Context, listingID string) (core.Deal, error) {
	var m Deal
	if err := r.DB.WithContext(ctx).First(&m, "listing_id = ?", listingID).Error; err != nil {
		return core.Deal{}, notFound(err)
	}
	return toCoreDeal(m), nil
}

func (r *Repository) UpsertDeal(ctx context.Context, d core.Deal) (core.Deal, error) {
	if _, err := r.GetListing(ctx, d.ListingID); err != nil {
		return core.Deal{}, err
	}
	d.Clamp()
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now()
	}
	inc := d.Income()
	m := Deal{
		ListingID:        d.ListingID,
		Gross:            d.Gross,
		CommissionRate:   d.CommissionRate,
		Deductions:       d.Deductions,
		CommissionAmount: &inc.Commission,
		Net:              &inc.Net,
		Notes:            d.Notes,
		UpdatedAt:        d.UpdatedAt,
	}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "listing_id"}},
		UpdateAll: true,
	}).Create(&m).Error
	if err != nil {
		return core.Deal{}, fmt.Errorf("upsert deal: %w", err)
	}
	return toCoreDeal(m), nil
}

func (r *Repository) ListDeals(ctx context.Context, within *core.Period) ([]core.Deal, error) {
	q := r.DB.WithContext(ctx).Order("updated_at DESC, listing_id")
	if within != nil {
		q = q.Where("updated_at >= ? AND updated_at < ?", within.Start, within.End)
	}
	var list []Deal
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	out := make([]core.Deal, len(list))
	for i, m := range list {
		out[i] = toCoreDeal(m)
	}
	return out, nil
}

func (r *Repository) DeleteDeal(ctx context.Context, listingID string) error {
	if err := r.DB.WithContext(ctx).Delete(&Deal{}, "listing_id = ?", listingID).Error; err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	return nil
}

// Photos

func (r *Repository) ListPhotos(ctx context.Context, listingID string) ([]core.Photo, error) {
	return r.ListPhotosByListings(ctx, []string{listingID})
}

func (r *Repository) ListPhotosByListings(ctx context.Context, listingIDs []string) ([]core.Photo, error) {
	if len(listingIDs) == 0 {
		return nil, nil
	}
	var list []Photo
	err := r.DB.WithContext(ctx).Where("listing_id IN ?", listingIDs).
		Order("listing_id, sort_order, created_at").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	out := make([]core.Photo, len(list))
	for i, p := range list {
		out[i] = core.Photo{ID: p.ID, ListingID: p.ListingID, StoragePath: p.StoragePath, SortOrder: p.SortOrder, CreatedAt: p.CreatedAt}
	}
	return out, nil
}

func (r *Repository) AddPhoto(ctx context.Context, p core.Photo) (core.Photo, error) {
	if _, err := r.GetListing(ctx, p.ListingID); err != nil {
		return core.Photo{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m := Photo{ID: p.ID, ListingID: p.ListingID, StoragePath: p.StoragePath, SortOrder: p.SortOrder, CreatedAt: p.CreatedAt}
	if err := r.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return core.Photo{}, fmt.Errorf("add photo: %w", err)
	}
	return p, nil
}

func (r *Repository) DeletePhotos(ctx context.Context, listingID string) (int, error) {
	res := r.DB.WithContext(ctx).Delete(&Photo{}, "listing_id = ?", listingID)
	if res.Error != nil {
		return 0, fmt.Errorf("delete photos: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (r *Repository) CountPhotos(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		ListingID string
		N         int
	}
	err := r.DB.WithContext(ctx).Model(&Photo{}).
		Select("listing_id, COUNT(*) AS n").Group("listing_id").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count photos: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.ListingID] = r.N
	}
	return out, nil
}

// Mapping

func toCoreListings(list []Listing) []core.Listing {
	out := make([]core.Listing, len(list))
	for i, m := range list {
		out[i] = toCoreListing(m)
	}
	return out
}

func toCoreListing(m Listing) core.Listing {
	l := core.Listing{
		ID:           m.ID,
		Type:         core.ListingType(m.Type),
		Name:         m.CondoName,
		Area:         m.Area,
		Price:        m.Price,
		Sqft:         m.Sqft,
		Bedrooms:     m.Bedrooms,
		Bathrooms:    m.Bathrooms,
		Carparks:     m.Carparks,
		Furnish:      core.Furnish(m.Furnish),
		Inbox:        m.Inbox,
		Priority:     m.Priority,
		NextFollowUp: m.NextFollowUp,
		LastUpdate:   m.LastUpdate,
		RawText:      m.RawText,
		Link:         m.Link,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if st, err := core.ParseStatus(m.Status); err == nil {
		l.Status = st
	} else {
		l.Status = core.StatusNew
	}
	if m.AvailableFrom != nil {
		t := *m.AvailableFrom
		d := core.NewDate(t.Year(), t.Month(), t.Day())
		l.AvailableFrom = &d
	}
	l.PhotoRefs = core.NormalizePhotoRefs(m.photoFields())
	return l
}

func fromCoreListing(l core.Listing) Listing {
	m := Listing{
		ID:           l.ID,
		Type:         string(l.Type),
		Status:       string(l.Status),
		CondoName:    l.Name,
		Area:         l.Area,
		Price:        l.Price,
		Sqft:         l.Sqft,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		Carparks:     l.Carparks,
		Furnish:      string(l.Furnish),
		Inbox:        l.Inbox,
		Priority:     l.Priority,
		NextFollowUp: l.NextFollowUp,
		LastUpdate:   l.LastUpdate,
		RawText:      l.RawText,
		Link:         l.Link,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
	if l.AvailableFrom != nil {
		t := l.AvailableFrom.Time
		m.AvailableFrom = &t
	}
	if l.PhotoRefs.Kind == core.RefsPaths {
		m.Photos = pq.StringArray(l.PhotoRefs.Paths)
	}
	return m
}

func toCoreDeal(m Deal) core.Deal {
	return core.Deal{
		ListingID:        m.ListingID,
		Gross:            m.Gross,
		CommissionRate:   m.CommissionRate,
		Deductions:       m.Deductions,
		Notes:            m.Notes,
		UpdatedAt:        m.UpdatedAt,
		StoredCommission: m.CommissionAmount,
		StoredNet:        m.Net,
	}
}
