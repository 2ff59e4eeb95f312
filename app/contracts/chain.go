// Package contracts binds the on-chain contracts a listing talks to.
package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// Chain hands out contract bindings and waits for transactions.
type Chain interface {
	ChainID(ctx context.Context) (*big.Int, error)
	Collection(address common.Address) (Collection, error)
	ProxyRegistry(address common.Address) (ProxyRegistry, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

type Client struct {
	EthClient *ethclient.Client
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	chainID, err := c.EthClient.ChainID(ctx)
	return chainID, errors.Wrap(err, "failed to retrieve chain id")
}

func (c *Client) Collection(address common.Address) (Collection, error) {
	return NewERC721(address, c.EthClient)
}

func (c *Client) ProxyRegistry(address common.Address) (ProxyRegistry, error) {
	return NewWyvernProxyRegistry(address, c.EthClient)
}

// WaitMined blocks until the transaction is mined and fails on reverted ones.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.EthClient, tx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to wait for the transaction")
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, errors.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return receipt, nil
}
