// Package listing drives the three on-chain steps that list a token for
// sale: proxy registration, approval and sell order submission.
package listing

import (
	"context"
	"database/sql"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"lootexchange/app/config"
	"lootexchange/app/contracts"
	"lootexchange/app/models"
	"lootexchange/app/notifier"
	"lootexchange/app/orderbook"
	"lootexchange/app/storage/database"
	"lootexchange/pkg/eth"
	"lootexchange/pkg/format"
	"lootexchange/pkg/log"
	"lootexchange/pkg/response"
)

const msgInterrupted = "Listing was interrupted, please start it again"

type Manager struct {
	DB         database.Database
	Chain      contracts.Chain
	Signer     eth.Signer
	OrderBook  orderbook.Service
	Notifier   notifier.Service
	Networks   config.Networks
	Collection common.Address
	Config     config.Listing

	Now func() time.Time // defaults to time.Now

	mu    sync.Mutex
	flows map[string]*Flow
	wg    sync.WaitGroup
}

func (m *Manager) CreateListing(ctx context.Context, req *models.NewListing) (*models.Listing, error) {
	log.AddFields(ctx, "listing", req)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	// only the owner of the server wallet may list its tokens
	if !strings.EqualFold(req.RequestedBy, m.Signer.Address().Hex()) {
		return nil, response.NewError(response.CodeForbidden, "only the signer wallet can create listings")
	}

	price := m.Config.Price()
	if req.Price != nil {
		price = *req.Price
	}
	listing := &models.Listing{
		TokenID:        req.TokenIDBig().String(),
		Collection:     strings.ToLower(m.Collection.Hex()),
		Signer:         strings.ToLower(m.Signer.Address().Hex()),
		RequestedBy:    strings.ToLower(req.RequestedBy),
		Price:          price.String(),
		ExpirationTime: req.ExpirationTime,
		Status:         models.ListingStatusPending,
		Steps:          models.NewSteps(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.flows {
		if active := f.Snapshot(); active.TokenID == listing.TokenID && !active.IsFinished() {
			return nil, response.NewError(response.CodeConflict, "token is already being listed")
		}
	}

	newRow, err := database.NewListingFromPublic(listing)
	if err != nil {
		return nil, err
	}
	row, err := m.DB.CreateListing(ctx, newRow)
	if err != nil {
		return nil, err
	}
	created, err := row.ToPublic()
	if err != nil {
		return nil, err
	}
	log.AddFields(ctx, "listing_id", created.ID)

	runCtx, cancel := context.WithCancel(context.Background())
	flow := newFlow(created, cancel, m.publish)
	if m.flows == nil {
		m.flows = make(map[string]*Flow)
	}
	m.flows[created.ID] = flow

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		m.run(runCtx, flow)

		m.mu.Lock()
		delete(m.flows, created.ID)
		m.mu.Unlock()
	}()

	return flow.Snapshot(), nil
}

func (m *Manager) GetListing(ctx context.Context, filter *models.ListingFilter) (*models.Listing, error) {
	log.AddFields(ctx, "filter", filter)

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var listing *models.Listing
	if flow := m.flow(filter.ID); flow != nil {
		listing = flow.Snapshot()
	} else {
		row, err := m.DB.GetListing(ctx, filter.ID)
		if err != nil {
			if errors.Cause(err) == sql.ErrNoRows {
				return nil, response.NewError(response.CodeNotFound, "listing not found").SetInternal(err)
			}
			return nil, err
		}
		if listing, err = row.ToPublic(); err != nil {
			return nil, err
		}
	}

	if !strings.EqualFold(listing.RequestedBy, filter.RequestedBy) {
		return nil, response.NewError(response.CodeNotFound, "listing not found")
	}
	return listing, nil
}

func (m *Manager) ListListings(ctx context.Context, filter *models.ListingFilter) (*models.ListingList, error) {
	log.AddFields(ctx, "filter", filter)

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	rows, total, err := m.DB.ListListings(ctx, &database.ListingFilter{RequestedBy: filter.RequestedBy})
	if err != nil {
		return nil, err
	}

	result := &models.ListingList{
		Listings: make([]*models.Listing, 0, len(rows)),
		Meta:     &models.ListMeta{Total: total},
	}
	for _, row := range rows {
		listing, err := row.ToPublic()
		if err != nil {
			return nil, err
		}
		result.Listings = append(result.Listings, listing)
	}
	return result, nil
}

// CancelListing stops a running flow. Stale pending listings left by a
// previous process are cancelled in the database.
func (m *Manager) CancelListing(ctx context.Context, filter *models.ListingFilter) (*models.Listing, error) {
	listing, err := m.GetListing(ctx, filter)
	if err != nil {
		return nil, err
	}

	if flow := m.flow(listing.ID); flow != nil && flow.Cancel() {
		return flow.Snapshot(), nil
	}
	return m.cancelStored(ctx, listing)
}

// cancelStored cancels a listing no flow runs for. The snapshot may be stale,
// storage only cancels a listing that is still pending.
func (m *Manager) cancelStored(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	errFinished := response.NewError(response.CodeConflict, "listing is already finished")
	if listing.Status != models.ListingStatusPending {
		return nil, errFinished
	}

	cancelled := listing.Copy()
	for i := range cancelled.Steps {
		cancelled.Steps[i].Pending = false
	}
	cancelled.Status = models.ListingStatusCancelled
	row, err := database.ListingFromPublic(cancelled)
	if err != nil {
		return nil, err
	}
	ok, err := m.DB.CancelPendingListing(ctx, row)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errFinished
	}
	return cancelled, nil
}

func (m *Manager) CurrentNetwork(ctx context.Context) (*models.Network, error) {
	chainID, err := m.Chain.ChainID(ctx)
	if err != nil {
		return nil, response.NewError(response.CodeBadGateway, "failed to reach the ethereum node").SetInternal(err)
	}

	network := &models.Network{ChainID: chainID.Int64(), Name: format.ChainName(chainID.Int64())}
	if cfg, err := m.Networks.Get(chainID.Int64()); err == nil && cfg.Name != "" {
		network.Name = cfg.Name
	}
	return network, nil
}

// Recover fails the listings a previous process did not finish.
func (m *Manager) Recover(ctx context.Context) error {
	interrupted, err := m.DB.FailPendingListings(ctx, msgInterrupted)
	if err != nil {
		return err
	}
	if len(interrupted) > 0 {
		log.Infow("failed interrupted listings", "count", len(interrupted))
	}
	return nil
}

// Wait blocks until every running flow is finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown interrupts the running flows and waits for them up to timeout.
func (m *Manager) Shutdown(timeout time.Duration) {
	m.mu.Lock()
	for _, f := range m.flows {
		f.Interrupt(msgInterrupted)
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info("listings stopped")
	case <-time.After(timeout):
		log.Warnw("listings did not stop in time", "timeout", timeout.String())
	}
}

func (m *Manager) flow(id string) *Flow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flows[id]
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// publish persists a listing state and pushes it to its requester.
func (m *Manager) publish(listing *models.Listing) {
	ctx := context.Background()

	row, err := database.ListingFromPublic(listing)
	if err == nil {
		err = m.DB.UpdateListing(ctx, row)
	}
	if err != nil {
		log.Errorw("failed to persist a listing", "listing_id", listing.ID, "error", err.Error())
	}

	if m.Notifier != nil {
		m.Notifier.Notify(ctx, &models.Notification{
			ClientID: listing.RequestedBy,
			Message: &models.ListingUpdated{
				Type:    models.NotificationListingUpdated,
				Listing: listing,
			},
		})
	}
}

func (m *Manager) run(ctx context.Context, flow *Flow) {
	listing := flow.Snapshot()
	logger := log.Named("listing").With("listing_id", listing.ID, "token_id", listing.TokenID)

	s, err := m.newSession(ctx, flow, listing)
	if err != nil {
		logger.Errorw("failed to initialize a listing", "error", err.Error())
		flow.fail(models.StageProxy, MsgProxyFailed)
		return
	}

	stages := []struct {
		stage   models.Stage
		run     func(context.Context) error
		message string
	}{
		{models.StageProxy, s.ensureProxy, MsgProxyFailed},
		{models.StageApproval, s.ensureApproval, MsgApproveFailed},
		{models.StageOrder, s.submitOrder, MsgOrderFailed},
	}
	for _, st := range stages {
		if !flow.begin(st.stage) {
			return
		}
		if err := st.run(ctx); err != nil {
			if flow.IsClosed() {
				logger.Infow("dropped the result of a cancelled listing", "step", st.stage.String())
				return
			}
			logger.Errorw("listing step failed", "step", st.stage.String(), "error", err.Error())
			flow.fail(st.stage, failureMessage(err, st.message))
			return
		}
		if !flow.succeed(st.stage) {
			return
		}
		logger.Infow("listing step succeeded", "step", st.stage.String())
	}
}

// newSession resolves the network of the connected node and binds the
// contracts of a listing.
func (m *Manager) newSession(ctx context.Context, flow *Flow, listing *models.Listing) (*session, error) {
	chainID, err := m.Chain.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	network, err := m.Networks.Get(chainID.Int64())
	if err != nil {
		return nil, err
	}
	collection, err := m.Chain.Collection(common.HexToAddress(listing.Collection))
	if err != nil {
		return nil, err
	}
	registry, err := m.Chain.ProxyRegistry(common.HexToAddress(network.ProxyRegistry))
	if err != nil {
		return nil, err
	}

	tokenID, ok := new(big.Int).SetString(listing.TokenID, 10)
	if !ok {
		return nil, errors.Errorf("invalid token id %s", listing.TokenID)
	}
	price, err := decimal.NewFromString(listing.Price)
	if err != nil {
		return nil, errors.Wrap(err, "invalid listing price")
	}

	return &session{
		flow:       flow,
		chain:      m.Chain,
		signer:     m.Signer,
		orderBook:  m.OrderBook,
		network:    network,
		cfg:        m.Config,
		now:        m.now,
		chainID:    chainID,
		collection: collection,
		registry:   registry,
		tokenID:    tokenID,
		price:      price,
		expiration: listing.ExpirationTime,
	}, nil
}
