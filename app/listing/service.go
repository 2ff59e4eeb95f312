package listing

import (
	"context"

	"lootexchange/app/models"
)

type Service interface {
	CreateListing(ctx context.Context, listing *models.NewListing) (*models.Listing, error)
	GetListing(ctx context.Context, filter *models.ListingFilter) (*models.Listing, error)
	ListListings(ctx context.Context, filter *models.ListingFilter) (*models.ListingList, error)
	CancelListing(ctx context.Context, filter *models.ListingFilter) (*models.Listing, error)
	CurrentNetwork(ctx context.Context) (*models.Network, error)
}
