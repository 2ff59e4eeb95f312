package config

import (
	"flag"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"lootexchange/app/storage/database"
	"lootexchange/pkg/eth"
	"lootexchange/pkg/log"
)

const (
	defaultConfigPath = "./configs/config.yaml"

	defaultRestAddr           = ":8000"
	defaultMigrationsTable    = "loot_schema_migrations"
	defaultDatasetCount       = 7779
	defaultCharacterImageBase = "https://api.lootcharacter.com/imgs/bags"
	defaultImageBase          = "https://loot.exchange/images"
	defaultListingPrice       = "0.01"
	defaultListingTimeMargin  = 120 * time.Second
	defaultHTTPTimeout        = 30 * time.Second
	defaultHTTPRetries        = 3
	defaultSessionMaxAge      = 10 * time.Minute
)

// builtinNetworks are used for chain ids missing from the config file.
var builtinNetworks = map[string]Network{
	"1": {
		Name:          "Mainnet",
		ProxyRegistry: "0xa5409ec958c83c3f309868babaca7c86dcb077c1",
		Exchange:      "0x7be8076f4ea4a4ad08075c2508e481d6c946d12b",
		Explorer:      "https://etherscan.io",
		OrderBook:     "https://api.loot.exchange",
	},
	"4": {
		Name:          "Rinkeby",
		ProxyRegistry: "0xf57b2c51ded3a29e6891aba85459d600256cf317",
		Exchange:      "0x5206e78b21ce315ce284fb24cf05e0585a93b1d9",
		Explorer:      "https://rinkeby.etherscan.io",
		OrderBook:     "https://api.rinkeby.loot.exchange",
	},
}

type Ethereum struct {
	NodeUrl string `mapstructure:"nodeUrl"`
}

func (e *Ethereum) Validate() error {
	if e.NodeUrl == "" {
		return errors.New("you must provide eth node url in a config")
	}
	return nil
}

// Signer is the wallet listings are made from, either a raw key or a keystore file.
type Signer struct {
	PrivateKey   string `mapstructure:"privateKey"`
	KeystorePath string `mapstructure:"keystorePath"`
	Passphrase   string `mapstructure:"passphrase"`
}

func (s *Signer) Validate() error {
	if s.PrivateKey == "" && s.KeystorePath == "" {
		return errors.New("you must provide a signer private key or keystore path in a config")
	}
	if s.PrivateKey != "" && s.KeystorePath != "" {
		return errors.New("signer private key and keystore path are mutually exclusive")
	}
	return nil
}

func (s *Signer) New() (eth.Signer, error) {
	if s.KeystorePath != "" {
		return eth.NewKeystoreSigner(s.KeystorePath, s.Passphrase)
	}
	return eth.NewKeySigner(s.PrivateKey)
}

type Collection struct {
	Address string `mapstructure:"address"`
}

func (c *Collection) Validate() error {
	if !eth.IsValidAddress(c.Address) {
		return errors.New("you must provide a valid collection address in a config")
	}
	return nil
}

// API is the marketplace backend serving token metadata and listing prices.
type API struct {
	BaseUrl string        `mapstructure:"baseUrl"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

func (a *API) Validate() error {
	if a.BaseUrl == "" {
		return errors.New("you must provide api base url in a config")
	}
	return nil
}

type Subgraph struct {
	Url string `mapstructure:"url"`
}

func (s *Subgraph) Validate() error {
	if s.Url == "" {
		return errors.New("you must provide subgraph url in a config")
	}
	return nil
}

type Ens struct {
	CacheTtl time.Duration `mapstructure:"cacheTtl"`
}

type Dataset struct {
	Path               string `mapstructure:"path"`
	Count              int    `mapstructure:"count"`
	CharacterImageBase string `mapstructure:"characterImageBase"`
	ImageBase          string `mapstructure:"imageBase"`
}

type Listing struct {
	DefaultPrice      string        `mapstructure:"defaultPrice"`
	FeeBps            int64         `mapstructure:"feeBps"`
	ListingTimeMargin time.Duration `mapstructure:"listingTimeMargin"`
}

func (l *Listing) Validate() error {
	price, err := decimal.NewFromString(l.DefaultPrice)
	if err != nil || !price.IsPositive() {
		return errors.New("you must provide a positive default listing price in a config")
	}
	if l.FeeBps < 0 || l.FeeBps > 10000 {
		return errors.New("listing fee must be between 0 and 10000 basis points")
	}
	return nil
}

func (l *Listing) Price() decimal.Decimal {
	return decimal.RequireFromString(l.DefaultPrice)
}

type OrderBook struct {
	ApiKey    string        `mapstructure:"apiKey"`
	ApiSecret string        `mapstructure:"apiSecret"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Network holds the marketplace contracts and endpoints of one chain.
type Network struct {
	Name          string `mapstructure:"name"`
	ProxyRegistry string `mapstructure:"proxyRegistry"`
	Exchange      string `mapstructure:"exchange"`
	Explorer      string `mapstructure:"explorer"`
	OrderBook     string `mapstructure:"orderBook"`
}

func (n *Network) Validate() error {
	if !eth.IsValidAddress(n.ProxyRegistry) {
		return errors.Errorf("invalid proxy registry address for network %s", n.Name)
	}
	if !eth.IsValidAddress(n.Exchange) {
		return errors.Errorf("invalid exchange address for network %s", n.Name)
	}
	if n.OrderBook == "" {
		return errors.Errorf("empty order book url for network %s", n.Name)
	}
	return nil
}

// TxURL links a transaction on the network's block explorer.
func (n *Network) TxURL(hash string) string {
	if n.Explorer == "" {
		return hash
	}
	return strings.TrimSuffix(n.Explorer, "/") + "/tx/" + hash
}

type Networks map[string]Network

// Get returns the network config of a chain id.
func (n Networks) Get(chainID int64) (*Network, error) {
	network, ok := n[strconv.FormatInt(chainID, 10)]
	if !ok {
		return nil, errors.Errorf("network %d is not supported", chainID)
	}
	if err := network.Validate(); err != nil {
		return nil, err
	}
	return &network, nil
}

type Secrets struct {
	Token         string        `mapstructure:"token"`
	SessionMaxAge time.Duration `mapstructure:"sessionMaxAge"`
}

func (s *Secrets) Validate() error {
	if s.Token == "" {
		return errors.New("you must provide secrets in a config")
	}
	return nil
}

type Config struct {
	RestAddr   string          `mapstructure:"restAddr"`
	Ethereum   Ethereum        `mapstructure:"ethereum"`
	Signer     Signer          `mapstructure:"signer"`
	Collection Collection      `mapstructure:"collection"`
	API        API             `mapstructure:"api"`
	Subgraph   Subgraph        `mapstructure:"subgraph"`
	Ens        Ens             `mapstructure:"ens"`
	Dataset    Dataset         `mapstructure:"dataset"`
	Listing    Listing         `mapstructure:"listing"`
	OrderBook  OrderBook       `mapstructure:"orderBook"`
	Networks   Networks        `mapstructure:"networks"`
	Secrets    Secrets         `mapstructure:"secrets"`
	Database   database.Config `mapstructure:"database"`
	Logging    log.Config      `mapstructure:"log"`
}

func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.Ethereum,
		&c.Signer,
		&c.Collection,
		&c.API,
		&c.Subgraph,
		&c.Listing,
		&c.Secrets,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func Parse() (*Config, error) {
	configPath := flag.String("config", defaultConfigPath, "configuration file path")
	flag.Parse()

	return Load(*configPath)
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	v := viper.New()

	// set reasonable defaults
	v.SetDefault("restAddr", defaultRestAddr)
	v.SetDefault("database.migrationsTable", defaultMigrationsTable)
	v.SetDefault("api.timeout", defaultHTTPTimeout)
	v.SetDefault("api.retries", defaultHTTPRetries)
	v.SetDefault("dataset.count", defaultDatasetCount)
	v.SetDefault("dataset.characterImageBase", defaultCharacterImageBase)
	v.SetDefault("dataset.imageBase", defaultImageBase)
	v.SetDefault("listing.defaultPrice", defaultListingPrice)
	v.SetDefault("listing.listingTimeMargin", defaultListingTimeMargin)
	v.SetDefault("orderBook.timeout", defaultHTTPTimeout)
	v.SetDefault("secrets.sessionMaxAge", defaultSessionMaxAge)

	// read a config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to read a file")
	}

	// unmarshal to a config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal a config")
	}

	if cfg.Networks == nil {
		cfg.Networks = make(Networks)
	}
	for chainID, network := range builtinNetworks {
		if _, ok := cfg.Networks[chainID]; !ok {
			cfg.Networks[chainID] = network
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
