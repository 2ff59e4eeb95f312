package contracts

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// CollectionABI is the subset of ERC-721 a listing needs.
const CollectionABI = `[
{"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"tokenId","type":"uint256"}],"name":"getApproved","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"name":"isApprovedForAll","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"name":"setApprovalForAll","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

type Collection interface {
	Address() common.Address
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
	GetApproved(ctx context.Context, tokenID *big.Int) (common.Address, error)
	IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error)
	SetApprovalForAll(opts *bind.TransactOpts, operator common.Address, approved bool) (*types.Transaction, error)
}

type ERC721 struct {
	address  common.Address
	contract *bind.BoundContract
}

func NewERC721(address common.Address, backend bind.ContractBackend) (*ERC721, error) {
	parsed, err := abi.JSON(strings.NewReader(CollectionABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse the collection abi")
	}
	return &ERC721{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

func (c *ERC721) Address() common.Address {
	return c.address
}

func (c *ERC721) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	return callAddress(ctx, c.contract, "ownerOf", tokenID)
}

func (c *ERC721) GetApproved(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	return callAddress(ctx, c.contract, "getApproved", tokenID)
}

func (c *ERC721) IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isApprovedForAll", owner, operator); err != nil {
		return false, errors.Wrap(err, "failed to call isApprovedForAll")
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (c *ERC721) SetApprovalForAll(opts *bind.TransactOpts, operator common.Address, approved bool) (*types.Transaction, error) {
	tx, err := c.contract.Transact(opts, "setApprovalForAll", operator, approved)
	return tx, errors.Wrap(err, "failed to send setApprovalForAll")
}

func callAddress(ctx context.Context, contract *bind.BoundContract, method string, params ...interface{}) (common.Address, error) {
	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return common.Address{}, errors.Wrapf(err, "failed to call %s", method)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}
