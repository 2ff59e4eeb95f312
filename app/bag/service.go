package bag

import (
	"context"

	"lootexchange/app/models"
)

type Service interface {
	GetBag(ctx context.Context, filter *models.BagFilter) (*models.Bag, error)
}
