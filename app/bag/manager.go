// Package bag consolidates the static dataset, marketplace metadata,
// transfer history and owner names into bag details.
package bag

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"lootexchange/app/metadata"
	"lootexchange/app/models"
	"lootexchange/app/subgraph"
	"lootexchange/pkg/eth"
	"lootexchange/pkg/log"
	"lootexchange/pkg/response"
)

// NameResolver finds the primary name and avatar of an address.
type NameResolver interface {
	LookupAddress(ctx context.Context, address common.Address) (string, error)
	Avatar(ctx context.Context, name string) (string, error)
}

type Manager struct {
	Dataset  *Dataset
	Metadata metadata.Service
	Subgraph subgraph.Service
	Names    NameResolver // optional
}

func (m *Manager) GetBag(ctx context.Context, filter *models.BagFilter) (*models.Bag, error) {
	log.AddFields(ctx, "bag_id", filter.ID)

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	record := m.Dataset.Find(filter.ID)
	token, err := m.Metadata.TokenInfo(ctx, filter.ID)
	if err != nil {
		if errors.Cause(err) == metadata.ErrTokenNotFound {
			return nil, response.NewError(response.CodeNotFound, "bag not found").SetInternal(err)
		}
		return nil, response.NewError(response.CodeBadGateway, "failed to fetch bag metadata").SetInternal(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bag := mergeToken(filter.ID, token, record)

	history, err := m.Subgraph.BagHistory(ctx, filter.ID)
	if err != nil {
		return nil, response.NewError(response.CodeBadGateway, "failed to fetch bag transfers").SetInternal(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bag = withHistory(bag, history)

	if filter.CurrentUser == "" {
		return bag, nil
	}
	identity := m.ownerIdentity(ctx, bag.Owner)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return withOwnerIdentity(bag, identity, filter.CurrentUser), nil
}

// ownerIdentity degrades to an empty identity on resolver failures.
func (m *Manager) ownerIdentity(ctx context.Context, owner string) *models.OwnerIdentity {
	identity := new(models.OwnerIdentity)
	if m.Names == nil || !eth.IsValidAddress(owner) {
		return identity
	}

	logger := log.FromContext(ctx)
	name, err := m.Names.LookupAddress(ctx, common.HexToAddress(owner))
	if err != nil {
		logger.Warnw("failed to look up the owner name", "owner", owner, "error", err.Error())
		return identity
	}
	identity.Ens = name

	avatar, err := m.Names.Avatar(ctx, name)
	if err != nil {
		logger.Warnw("failed to get the owner avatar", "name", name, "error", err.Error())
		return identity
	}
	identity.Avatar = avatar
	return identity
}
