// Package subgraph queries the collection indexer for ownership and
// transfer history.
package subgraph

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/machinebox/graphql"
	"github.com/pkg/errors"

	"lootexchange/app/models"
)

const bagQuery = `query BagQuery($id: ID!) {
  bag(id: $id) {
    id
    currentOwner {
      address
      bagsHeld
    }
  }
  transfers(where: { bag: $id }) {
    from {
      address
    }
    to {
      address
    }
    timestamp
    txHash
  }
}`

type account struct {
	Address string `json:"address"`
}

type bagQueryResponse struct {
	Bag *struct {
		ID           string `json:"id"`
		CurrentOwner *struct {
			Address  string      `json:"address"`
			BagsHeld json.Number `json:"bagsHeld"`
		} `json:"currentOwner"`
	} `json:"bag"`
	Transfers []struct {
		From      account     `json:"from"`
		To        account     `json:"to"`
		Timestamp json.Number `json:"timestamp"`
		TxHash    string      `json:"txHash"`
	} `json:"transfers"`
}

type Manager struct {
	Client *graphql.Client
}

// NewManager creates a subgraph client on top of a shared http client.
func NewManager(url string, httpClient *http.Client) *Manager {
	return &Manager{
		Client: graphql.NewClient(url, graphql.WithHTTPClient(httpClient)),
	}
}

func (m *Manager) BagHistory(ctx context.Context, id int) (*models.BagHistory, error) {
	req := graphql.NewRequest(bagQuery)
	req.Var("id", strconv.Itoa(id))

	var resp bagQueryResponse
	if err := m.Client.Run(ctx, req, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to run the bag query")
	}

	history := &models.BagHistory{
		Transfers: make([]*models.Transfer, 0, len(resp.Transfers)),
	}
	if resp.Bag != nil && resp.Bag.CurrentOwner != nil {
		held, err := parseInt(resp.Bag.CurrentOwner.BagsHeld)
		if err != nil {
			return nil, errors.Wrap(err, "invalid bags held")
		}
		history.CurrentOwner = &models.BagOwnership{
			Address:  resp.Bag.CurrentOwner.Address,
			BagsHeld: held,
		}
	}
	for _, t := range resp.Transfers {
		timestamp, err := parseInt(t.Timestamp)
		if err != nil {
			return nil, errors.Wrap(err, "invalid transfer timestamp")
		}
		history.Transfers = append(history.Transfers, &models.Transfer{
			From:      t.From.Address,
			To:        t.To.Address,
			Timestamp: timestamp,
			TxHash:    t.TxHash,
		})
	}
	return history, nil
}

func parseInt(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	return n.Int64()
}
