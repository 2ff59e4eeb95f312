package orderbook

import (
	"context"

	"lootexchange/pkg/wyvern"
)

type Service interface {
	PostOrders(ctx context.Context, baseURL string, orders []*wyvern.Order) error
}
