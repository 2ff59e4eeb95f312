package orderbook

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"lootexchange/app/config"
	"lootexchange/pkg/crypto"
	"lootexchange/pkg/eth"
	"lootexchange/pkg/wyvern"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func newSignedOrder(t *testing.T) *wyvern.Order {
	t.Helper()
	signer, err := eth.NewKeySigner(testKey)
	if err != nil {
		t.Fatal(err)
	}
	order, err := wyvern.NewERC721SellOrder(&wyvern.ERC721SellParams{
		Exchange:     common.HexToAddress("0x5206e78b21ce315ce284fb24cf05e0585a93b1d9"),
		Maker:        signer.Address(),
		Target:       common.HexToAddress("0xff9c1b15b16263c61d017ee9f65c50e4ae0113d7"),
		TokenID:      big.NewInt(42),
		BasePrice:    big.NewInt(1e16),
		FeeRecipient: signer.Address(),
		ListingTime:  1631000000,
		Salt:         big.NewInt(1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := order.Sign(signer); err != nil {
		t.Fatal(err)
	}
	return order
}

func TestPostOrders(t *testing.T) {
	order := newSignedOrder(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if r.Header.Get(apiKeyHeader) != "key" {
			t.Errorf("wrong api key: %q", r.Header.Get(apiKeyHeader))
		}
		if r.Header.Get(signatureHeader) != crypto.GetSHA256(string(body), "secret") {
			t.Error("wrong request signature")
		}

		var req struct {
			Orders []map[string]interface{} `json:"orders"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Error(err)
			return
		}
		if len(req.Orders) != 1 || req.Orders[0]["maker"] != "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266" {
			t.Errorf("unexpected orders: %v", req.Orders)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := &Manager{Config: config.OrderBook{ApiKey: "key", ApiSecret: "secret"}, HttpClient: server.Client()}
	if err := m.PostOrders(context.Background(), server.URL+"/", []*wyvern.Order{order}); err != nil {
		t.Fatal(err)
	}
}

func TestPostOrdersRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate order", http.StatusBadRequest)
	}))
	defer server.Close()

	m := &Manager{HttpClient: server.Client()}
	if err := m.PostOrders(context.Background(), server.URL, []*wyvern.Order{newSignedOrder(t)}); err == nil {
		t.Error("rejected orders must fail")
	}
}

func TestPostOrdersChecksSignature(t *testing.T) {
	order := newSignedOrder(t)
	order.Maker = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	m := &Manager{HttpClient: http.DefaultClient}
	if err := m.PostOrders(context.Background(), "http://127.0.0.1:1", []*wyvern.Order{order}); err == nil {
		t.Error("orders not signed by the maker must fail")
	}

	unsigned := newSignedOrder(t)
	unsigned.V = 0
	if err := m.PostOrders(context.Background(), "http://127.0.0.1:1", []*wyvern.Order{unsigned}); err == nil {
		t.Error("unsigned orders must fail")
	}
}
