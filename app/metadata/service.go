package metadata

import (
	"context"

	"lootexchange/app/models"
)

type Service interface {
	TokenInfo(ctx context.Context, id int) (*models.TokenInfo, error)
}
