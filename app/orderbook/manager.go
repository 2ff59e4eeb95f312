package orderbook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"lootexchange/app/config"
	"lootexchange/pkg/crypto"
	"lootexchange/pkg/wyvern"
)

const (
	apiKeyHeader    = "x-api-key"
	signatureHeader = "x-signature"

	ordersPath = "/orders"

	maxErrorBody = 512
)

type postOrdersRequest struct {
	Orders []*wyvern.Order `json:"orders"`
}

type Manager struct {
	Config     config.OrderBook
	HttpClient *http.Client
}

// PostOrders submits signed orders to the order book of a network.
// Orders whose signature does not recover to the maker are rejected locally.
func (m *Manager) PostOrders(ctx context.Context, baseURL string, orders []*wyvern.Order) error {
	if len(orders) == 0 {
		return errors.New("no orders to post")
	}
	for _, o := range orders {
		signer, err := o.RecoverSigner()
		if err != nil {
			return errors.Wrap(err, "invalid order signature")
		}
		if signer != o.Maker {
			return errors.Errorf("order is signed by %s instead of the maker", signer.Hex())
		}
	}

	body, err := json.Marshal(&postOrdersRequest{Orders: orders})
	if err != nil {
		return errors.Wrap(err, "failed to marshal orders")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(baseURL, "/")+ordersPath, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create a post request")
	}
	req.Header.Set("Content-Type", "application/json")
	if m.Config.ApiKey != "" {
		req.Header.Set(apiKeyHeader, m.Config.ApiKey)
		req.Header.Set(signatureHeader, crypto.GetSHA256(string(body), m.Config.ApiSecret))
	}

	resp, err := m.HttpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to perform a post request to the order book")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.Errorf("order book rejected orders with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
