package database

import (
	"context"
)

type Database interface {
	CreateListing(ctx context.Context, listing *NewListing) (*Listing, error)
	UpdateListing(ctx context.Context, listing *Listing) error
	// CancelPendingListing stores a cancelled listing unless it already left
	// the pending status. It reports whether the listing was updated.
	CancelPendingListing(ctx context.Context, listing *Listing) (bool, error)
	GetListing(ctx context.Context, id string) (*Listing, error)
	ListListings(ctx context.Context, filter *ListingFilter) ([]*Listing, uint64, error)
	FailPendingListings(ctx context.Context, message string) ([]*Listing, error)
}
