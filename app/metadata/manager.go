// Package metadata reads token ownership and listing prices from the
// marketplace backend.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"lootexchange/app/config"
	"lootexchange/app/models"
)

const tokenInfoPath = "/collection/%s/token/%d/info"

var ErrTokenNotFound = errors.New("token not found")

// NewHTTPClient returns the retrying client shared by the backend and
// subgraph clients.
func NewHTTPClient(cfg config.API) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = cfg.Retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = cfg.Timeout
	return client
}

type Manager struct {
	Config     config.API
	Collection string
	HttpClient *retryablehttp.Client
}

func (m *Manager) TokenInfo(ctx context.Context, id int) (*models.TokenInfo, error) {
	url := strings.TrimSuffix(m.Config.BaseUrl, "/") + fmt.Sprintf(tokenInfoPath, m.Collection, id)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a get request")
	}

	resp, err := m.HttpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform a get request to the marketplace api")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTokenNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("response has status code with error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read a response body from the marketplace api")
	}

	info := new(models.TokenInfoResponse)
	if err = json.Unmarshal(body, info); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal a response from the marketplace api")
	}
	if info.Data.Token == nil {
		return nil, ErrTokenNotFound
	}
	return info.Data.Token, nil
}
