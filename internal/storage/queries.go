package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// ListingRow mirrors a listings row.
type ListingRow struct {
	ID            string
	Type          string
	Status        string
	CondoName     string
	Area          string
	Price         sql.NullFloat64
	Sqft          sql.NullFloat64
	Bedrooms      sql.NullInt64
	Bathrooms     sql.NullInt64
	Carparks      sql.NullInt64
	Furnish       string
	Inbox         bool
	Priority      sql.NullInt64
	NextFollowUp  sql.NullString
	LastUpdate    sql.NullString
	AvailableFrom sql.NullString
	RawText       string
	Link          string
	Photos        sql.NullString
	PhotoURLs     sql.NullString
	Images        sql.NullString
	ImageURLs     sql.NullString
	CreatedAt     string
	UpdatedAt     string
}

type DealRow struct {
	ListingID        string
	Gross            float64
	CommissionRate   float64
	Deductions       float64
	CommissionAmount sql.NullFloat64
	Net              sql.NullFloat64
	Notes            string
	UpdatedAt        string
}

type PhotoRow struct {
	ID          string
	ListingID   string
	StoragePath string
	SortOrder   int64
	CreatedAt   string
}

const listingColumns = `id, type, status, condo_name, area, price, sqft, bedrooms, bathrooms, carparks,
	furnish, inbox, priority, next_follow_up, last_update, available_from, raw_text, link, photos,
	photo_urls, images, image_urls, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(s scanner, extra ...any) (ListingRow, error) {
	var r ListingRow
	dest := []any{
		&r.ID, &r.Type, &r.Status, &r.CondoName, &r.Area, &r.Price, &r.Sqft,
		&r.Bedrooms, &r.Bathrooms, &r.Carparks, &r.Furnish, &r.Inbox, &r.Priority,
		&r.NextFollowUp, &r.LastUpdate, &r.AvailableFrom, &r.RawText, &r.Link, &r.Photos,
		&r.PhotoURLs, &r.Images, &r.ImageURLs, &r.CreatedAt, &r.UpdatedAt,
	}
	err := s.Scan(append(dest, extra...)...)
	return r, err
}

func (r ListingRow) args() []any {
	return []any{
		r.ID, r.Type, r.Status, r.CondoName, r.Area, r.Price, r.Sqft,
		r.Bedrooms, r.Bathrooms, r.Carparks, r.Furnish, r.Inbox, r.Priority,
		r.NextFollowUp, r.LastUpdate, r.AvailableFrom, r.RawText, r.Link, r.Photos,
		r.PhotoURLs, r.Images, r.ImageURLs, r.CreatedAt, r.UpdatedAt,
	}
}

const getListing = `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`

func (q *Queries) GetListing(ctx context.Context, id string) (ListingRow, error) {
	return scanListing(q.db.QueryRowContext(ctx, getListing, id))
}

const listListings = `SELECT ` + listingColumns + ` FROM listings ORDER BY created_at DESC, id`

func (q *Queries) ListListings(ctx context.Context) ([]ListingRow, error) {
	rows, err := q.db.QueryContext(ctx, listListings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListingRow
	for rows.Next() {
		r, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// WorkRow is a listings_work row.
type WorkRow struct {
	ListingRow
	AgingRef string
}

const listWork = `SELECT ` + listingColumns + `, aging_ref FROM listings_work ORDER BY created_at DESC, id`

func (q *Queries) ListWork(ctx context.Context) ([]WorkRow, error) {
	rows, err := q.db.QueryContext(ctx, listWork)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WorkRow
	for rows.Next() {
		var ref string
		r, err := scanListing(rows, &ref)
		if err != nil {
			return nil, err
		}
		items = append(items, WorkRow{ListingRow: r, AgingRef: ref})
	}
	return items, rows.Err()
}

func (q *Queries) ListListingsByIDs(ctx context.Context, ids []string) ([]ListingRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY created_at DESC, id`
	rows, err := q.db.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListingRow
	for rows.Next() {
		r, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const createListing = `INSERT INTO listings (` + listingColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateListing(ctx context.Context, r ListingRow) error {
	_, err := q.db.ExecContext(ctx, createListing, r.args()...)
	return err
}

const updateListing = `UPDATE listings SET
	type = ?, status = ?, condo_name = ?, area = ?, price = ?, sqft = ?, bedrooms = ?, bathrooms = ?,
	carparks = ?, furnish = ?, inbox = ?, priority = ?, next_follow_up = ?, last_update = ?,
	available_from = ?, raw_text = ?, link = ?, photos = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateListing(ctx context.Context, r ListingRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateListing,
		r.Type, r.Status, r.CondoName, r.Area, r.Price, r.Sqft, r.Bedrooms, r.Bathrooms,
		r.Carparks, r.Furnish, r.Inbox, r.Priority, r.NextFollowUp, r.LastUpdate,
		r.AvailableFrom, r.RawText, r.Link, r.Photos, r.UpdatedAt, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteListing = `DELETE FROM listings WHERE id = ?`

func (q *Queries) DeleteListing(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteListing, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const dealColumns = `listing_id, gross, commission_rate, deductions, commission_amount, net, notes, updated_at`

func scanDeal(s scanner) (DealRow, error) {
	var d DealRow
	err := s.Scan(&d.ListingID, &d.Gross, &d.CommissionRate, &d.Deductions,
		&d.CommissionAmount, &d.Net, &d.Notes, &d.UpdatedAt)
	return d, err
}

const getDeal = `SELECT ` + dealColumns + ` FROM deals WHERE listing_id = ?`

func (q *Queries) GetDeal(ctx context.Context, listingID string) (DealRow, error) {
	return scanDeal(q.db.QueryRowContext(ctx, getDeal, listingID))
}

const upsertDeal = `INSERT INTO deals (` + dealColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(listing_id) DO UPDATE SET
	gross = excluded.gross,
	commission_rate = excluded.commission_rate,
	deductions = excluded.deductions,
	commission_amount = excluded.commission_amount,
	net = excluded.net,
	notes = excluded.notes,
	updated_at = excluded.updated_at`

func (q *Queries) UpsertDeal(ctx context.Context, d DealRow) error {
	_, err := q.db.ExecContext(ctx, upsertDeal, d.ListingID, d.Gross, d.CommissionRate,
		d.Deductions, d.CommissionAmount, d.Net, d.Notes, d.UpdatedAt)
	return err
}

const listDeals = `SELECT ` + dealColumns + ` FROM deals ORDER BY updated_at DESC, listing_id`

const listDealsBetween = `SELECT ` + dealColumns + ` FROM deals
WHERE updated_at >= ? AND updated_at < ?
ORDER BY updated_at DESC, listing_id`

// ListDeals returns all deals, or those with start <= updated_at < end when
// bounds are given.
func (q *Queries) ListDeals(ctx context.Context, bounds ...string) ([]DealRow, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(bounds) == 2 {
		rows, err = q.db.QueryContext(ctx, listDealsBetween, bounds[0], bounds[1])
	} else {
		rows, err = q.db.QueryContext(ctx, listDeals)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DealRow
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

const deleteDeal = `DELETE FROM deals WHERE listing_id = ?`

func (q *Queries) DeleteDeal(ctx context.Context, listingID string) error {
	_, err := q.db.ExecContext(ctx, deleteDeal, listingID)
	return err
}

const photoColumns = `id, listing_id, storage_path, sort_order, created_at`

func (q *Queries) ListPhotosByListings(ctx context.Context, listingIDs []string) ([]PhotoRow, error) {
	if len(listingIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + photoColumns + ` FROM listing_photos WHERE listing_id IN (` +
		placeholders(len(listingIDs)) + `) ORDER BY listing_id, sort_order, created_at`
	rows, err := q.db.QueryContext(ctx, query, stringArgs(listingIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PhotoRow
	for rows.Next() {
		var p PhotoRow
		if err := rows.Scan(&p.ID, &p.ListingID, &p.StoragePath, &p.SortOrder, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const addPhoto = `INSERT INTO listing_photos (` + photoColumns + `) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) AddPhoto(ctx context.Context, p PhotoRow) error {
	_, err := q.db.ExecContext(ctx, addPhoto, p.ID, p.ListingID, p.StoragePath, p.SortOrder, p.CreatedAt)
	return err
}

const deletePhotos = `DELETE FROM listing_photos WHERE listing_id = ?`

func (q *Queries) DeletePhotos(ctx context.Context, listingID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deletePhotos, listingID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countPhotos = `SELECT listing_id, COUNT(*) FROM listing_photos GROUP BY listing_id`

func (q *Queries) CountPhotos(ctx context.Context) (map[string]int, error) {
	rows, err := q.db.QueryContext(ctx, countPhotos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
