// Package store declares the record-store ports the services depend on.
package store

import (
	"context"
	"errors"
	"time"

	"propcrm/internal/core"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	ListingStore interface {
		GetListing(ctx context.Context, id string) (core.Listing, error)
		// ListListings returns every listing, newest first.
		ListListings(ctx context.Context) ([]core.Listing, error)
		// ListWork reads the listings_work view: every listing with its
		// aging computed at now.
		ListWork(ctx context.Context, now time.Time) ([]core.WorkItem, error)
		ListListingsByIDs(ctx context.Context, ids []string) ([]core.Listing, error)
		CreateListing(ctx context.Context, l core.Listing) (core.Listing, error)
		UpdateListing(ctx context.Context, l core.Listing) (core.Listing, error)
		DeleteListing(ctx context.Context, id string) error
	}

	DealStore interface {
		GetDeal(ctx context.Context, listingID string) (core.Deal, error)
		// UpsertDeal inserts or replaces the deal keyed by its listing id.
		UpsertDeal(ctx context.Context, d core.Deal) (core.Deal, error)
		// ListDeals returns deals ordered by updated_at descending. A nil
		// period returns every deal.
		ListDeals(ctx context.Context, within *core.Period) ([]core.Deal, error)
		DeleteDeal(ctx context.Context, listingID string) error
	}

	PhotoStore interface {
		// ListPhotos returns the listing photos ordered by sort_order.
		ListPhotos(ctx context.Context, listingID string) ([]core.Photo, error)
		ListPhotosByListings(ctx context.Context, listingIDs []string) ([]core.Photo, error)
		AddPhoto(ctx context.Context, p core.Photo) (core.Photo, error)
		// DeletePhotos removes the photo rows of a listing and reports how
		// many were removed.
		DeletePhotos(ctx context.Context, listingID string) (int, error)
		// CountPhotos returns photo counts keyed by listing id.
		CountPhotos(ctx context.Context) (map[string]int, error)
	}

	// Store bundles the three ports behind one backend.
	Store interface {
		ListingStore
		DealStore
		PhotoStore
		Close() error
	}
)
