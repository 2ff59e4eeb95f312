package subgraph

import (
	"context"

	"lootexchange/app/models"
)

type Service interface {
	BagHistory(ctx context.Context, id int) (*models.BagHistory, error)
}
