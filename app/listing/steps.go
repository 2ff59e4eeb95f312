package listing

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"lootexchange/app/config"
	"lootexchange/app/contracts"
	"lootexchange/app/models"
	"lootexchange/app/orderbook"
	"lootexchange/pkg/eth"
	"lootexchange/pkg/wyvern"
)

// user facing step errors
const (
	MsgNotOwner      = "Current user is not the owner of the listed token"
	MsgProxyFailed   = "Could not check/register user proxy"
	MsgApproveFailed = "Could not check/set approval"
	MsgOrderFailed   = "Could not build/sign the sell order"
)

var errCancelled = errors.New("listing is cancelled")

// stepError carries a message shown instead of the generic one of a stage.
type stepError struct {
	message string
}

func (e *stepError) Error() string {
	return e.message
}

// failureMessage picks the message a failed stage reports.
func failureMessage(err error, generic string) string {
	if se, ok := errors.Cause(err).(*stepError); ok {
		return se.message
	}
	return generic
}

// session holds what the stages of one flow share.
type session struct {
	flow      *Flow
	chain     contracts.Chain
	signer    eth.Signer
	orderBook orderbook.Service
	network   *config.Network
	cfg       config.Listing
	now       func() time.Time

	chainID    *big.Int
	collection contracts.Collection
	registry   contracts.ProxyRegistry
	tokenID    *big.Int
	price      decimal.Decimal
	expiration int64

	proxy common.Address
}

// ensureProxy checks the signer owns the token and has a proxy,
// registering one when missing.
func (s *session) ensureProxy(ctx context.Context) error {
	owner, err := s.collection.OwnerOf(ctx, s.tokenID)
	if err != nil {
		return err
	}
	if owner != s.signer.Address() {
		return &stepError{message: MsgNotOwner}
	}

	proxy, err := s.registry.Proxies(ctx, s.signer.Address())
	if err != nil {
		return err
	}
	if proxy != (common.Address{}) {
		s.proxy = proxy
		return nil
	}

	opts, err := s.signer.Transactor(ctx, s.chainID)
	if err != nil {
		return err
	}
	tx, err := s.registry.RegisterProxy(opts)
	if err != nil {
		return err
	}
	if err := s.waitMined(ctx, models.StageProxy, tx); err != nil {
		return err
	}

	proxy, err = s.registry.Proxies(ctx, s.signer.Address())
	if err != nil {
		return err
	}
	if proxy == (common.Address{}) {
		return errors.New("proxy is still missing after the registration")
	}
	s.proxy = proxy
	return nil
}

// ensureApproval lets the proxy transfer the token.
func (s *session) ensureApproval(ctx context.Context) error {
	approved, err := s.collection.IsApprovedForAll(ctx, s.signer.Address(), s.proxy)
	if err != nil {
		return err
	}
	if !approved {
		operator, err := s.collection.GetApproved(ctx, s.tokenID)
		if err != nil {
			return err
		}
		approved = operator == s.signer.Address()
	}
	if approved {
		return nil
	}

	opts, err := s.signer.Transactor(ctx, s.chainID)
	if err != nil {
		return err
	}
	tx, err := s.collection.SetApprovalForAll(opts, s.proxy, true)
	if err != nil {
		return err
	}
	return s.waitMined(ctx, models.StageApproval, tx)
}

// submitOrder builds, signs and posts the sell order.
func (s *session) submitOrder(ctx context.Context) error {
	salt, err := wyvern.NewSalt()
	if err != nil {
		return err
	}

	maker := s.signer.Address()
	order, err := wyvern.NewERC721SellOrder(&wyvern.ERC721SellParams{
		Exchange:  common.HexToAddress(s.network.Exchange),
		Maker:     maker,
		Target:    s.collection.Address(),
		TokenID:   s.tokenID,
		BasePrice: eth.ToWei(s.price, eth.EtherDecimals),
		Fee:       big.NewInt(s.cfg.FeeBps),
		// the maker's fee recipient must never be the zero address
		FeeRecipient:   maker,
		ListingTime:    s.now().Add(-s.cfg.ListingTimeMargin).Unix(),
		ExpirationTime: s.expiration,
		Salt:           salt,
	})
	if err != nil {
		return err
	}
	if err := order.Sign(s.signer); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.orderBook.PostOrders(ctx, s.network.OrderBook, []*wyvern.Order{order}); err != nil {
		return err
	}
	if !s.flow.attachOrder(order) {
		return errCancelled
	}
	return nil
}

// waitMined records the transaction on the stage and waits for it.
func (s *session) waitMined(ctx context.Context, stage models.Stage, tx *types.Transaction) error {
	if !s.flow.recordTx(stage, s.network.TxURL(tx.Hash().Hex())) {
		return errCancelled
	}
	_, err := s.chain.WaitMined(ctx, tx)
	return err
}
