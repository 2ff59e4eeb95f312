package database

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"lootexchange/app/models"
	"lootexchange/pkg/wyvern"
)

type Base struct {
	ID        string     `db:"id"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt *time.Time `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

func (b *Base) GetUpdatedAtUnix() int64 {
	if b == nil || b.UpdatedAt == nil {
		return 0
	}
	return b.UpdatedAt.Unix()
}

func (b *Base) ToPublic() models.Base {
	return models.Base{
		ID:        b.ID,
		CreatedAt: b.CreatedAt.Unix(),
		UpdatedAt: b.GetUpdatedAtUnix(),
	}
}

type NewListing struct {
	TokenID        string             `db:"token_id"`
	Collection     string             `db:"collection"`
	Signer         string             `db:"signer"`
	RequestedBy    string             `db:"requested_by"`
	Price          string             `db:"price"`
	ExpirationTime int64              `db:"expiration_time"`
	Status         string             `db:"status"`
	Steps          types.JSONText     `db:"steps"`
	SellOrder      types.NullJSONText `db:"sell_order"`
}

type Listing struct {
	Base
	NewListing
}

type ListingFilter struct {
	RequestedBy string
	Status      string
	Skip        uint64
	Limit       *uint64
}

// NewListingFromPublic converts a listing without its base fields.
func NewListingFromPublic(listing *models.Listing) (*NewListing, error) {
	steps, err := json.Marshal(listing.Steps)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal listing steps")
	}
	var sellOrder types.NullJSONText
	if listing.SellOrder != nil {
		if sellOrder.JSONText, err = json.Marshal(listing.SellOrder); err != nil {
			return nil, errors.Wrap(err, "failed to marshal a sell order")
		}
		sellOrder.Valid = true
	}

	return &NewListing{
		TokenID:        listing.TokenID,
		Collection:     listing.Collection,
		Signer:         listing.Signer,
		RequestedBy:    listing.RequestedBy,
		Price:          listing.Price,
		ExpirationTime: listing.ExpirationTime,
		Status:         listing.Status,
		Steps:          steps,
		SellOrder:      sellOrder,
	}, nil
}

func ListingFromPublic(listing *models.Listing) (*Listing, error) {
	newListing, err := NewListingFromPublic(listing)
	if err != nil {
		return nil, err
	}
	result := &Listing{
		Base: Base{
			ID:        listing.ID,
			CreatedAt: time.Unix(listing.CreatedAt, 0),
		},
		NewListing: *newListing,
	}
	if listing.UpdatedAt != 0 {
		updatedAt := time.Unix(listing.UpdatedAt, 0)
		result.UpdatedAt = &updatedAt
	}
	return result, nil
}

func (l *Listing) ToPublic() (*models.Listing, error) {
	result := &models.Listing{
		Base:           l.Base.ToPublic(),
		TokenID:        l.TokenID,
		Collection:     l.Collection,
		Signer:         l.Signer,
		RequestedBy:    l.RequestedBy,
		Price:          l.Price,
		ExpirationTime: l.ExpirationTime,
		Status:         l.Status,
	}
	if err := l.Steps.Unmarshal(&result.Steps); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal listing steps")
	}
	if l.SellOrder.Valid {
		order := new(wyvern.Order)
		if err := l.SellOrder.Unmarshal(order); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal a sell order")
		}
		result.SellOrder = order
	}
	return result, nil
}
