package contracts

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

const ProxyRegistryABI = `[
{"inputs":[{"name":"","type":"address"}],"name":"proxies","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"registerProxy","outputs":[{"name":"","type":"address"}],"stateMutability":"nonpayable","type":"function"}
]`

// ProxyRegistry maps users to the delegate proxies the exchange trades through.
type ProxyRegistry interface {
	Proxies(ctx context.Context, user common.Address) (common.Address, error)
	RegisterProxy(opts *bind.TransactOpts) (*types.Transaction, error)
}

type WyvernProxyRegistry struct {
	contract *bind.BoundContract
}

func NewWyvernProxyRegistry(address common.Address, backend bind.ContractBackend) (*WyvernProxyRegistry, error) {
	parsed, err := abi.JSON(strings.NewReader(ProxyRegistryABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse the proxy registry abi")
	}
	return &WyvernProxyRegistry{
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

func (r *WyvernProxyRegistry) Proxies(ctx context.Context, user common.Address) (common.Address, error) {
	return callAddress(ctx, r.contract, "proxies", user)
}

func (r *WyvernProxyRegistry) RegisterProxy(opts *bind.TransactOpts) (*types.Transaction, error) {
	tx, err := r.contract.Transact(opts, "registerProxy")
	return tx, errors.Wrap(err, "failed to send registerProxy")
}
