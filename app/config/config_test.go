package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testConfig = `
ethereum:
  nodeUrl: http://localhost:8545
signer:
  privateKey: ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80
collection:
  address: "0xff9c1b15b16263c61d017ee9f65c50e4ae0113d7"
api:
  baseUrl: https://api.loot.exchange
subgraph:
  url: https://api.thegraph.com/subgraphs/name/shahruz/loot
listing:
  feeBps: 250
networks:
  "1337":
    name: Devnet
    proxyRegistry: "0x5fbdb2315678afecb367f032d93f642f64180aa3"
    exchange: "0xe7f1725e7734ce288f8367e1bb143e90bb3f0512"
    explorer: http://localhost:4000/
    orderBook: http://localhost:3000
secrets:
  token: secret
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.RestAddr != defaultRestAddr {
		t.Errorf("wrong rest address, have: %s", cfg.RestAddr)
	}
	if cfg.Listing.FeeBps != 250 {
		t.Errorf("wrong fee, have: %d", cfg.Listing.FeeBps)
	}
	if cfg.Listing.ListingTimeMargin != 120*time.Second {
		t.Errorf("wrong listing time margin, have: %s", cfg.Listing.ListingTimeMargin)
	}
	if cfg.Listing.Price().String() != "0.01" {
		t.Errorf("wrong default price, have: %s", cfg.Listing.Price())
	}
	if cfg.Dataset.Count != defaultDatasetCount {
		t.Errorf("wrong dataset size, have: %d", cfg.Dataset.Count)
	}

	devnet, err := cfg.Networks.Get(1337)
	if err != nil {
		t.Fatal(err)
	}
	if url := devnet.TxURL("0xabc"); url != "http://localhost:4000/tx/0xabc" {
		t.Errorf("wrong tx url, have: %s", url)
	}

	rinkeby, err := cfg.Networks.Get(4)
	if err != nil {
		t.Fatal(err)
	}
	if rinkeby.Exchange != "0x5206e78b21ce315ce284fb24cf05e0585a93b1d9" {
		t.Errorf("wrong builtin exchange, have: %s", rinkeby.Exchange)
	}

	if _, err := cfg.Networks.Get(42); err == nil {
		t.Error("unknown network must fail")
	}
}

func TestLoadValidation(t *testing.T) {
	if _, err := Load(writeConfig(t, "restAddr: :9000\n")); err == nil {
		t.Error("config without required sections must fail")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing config file must fail")
	}
}

func TestSignerValidate(t *testing.T) {
	both := Signer{PrivateKey: "aa", KeystorePath: "/tmp/key"}
	if err := both.Validate(); err == nil {
		t.Error("key and keystore together must fail")
	}
	none := Signer{}
	if err := none.Validate(); err == nil {
		t.Error("missing signer must fail")
	}
}
