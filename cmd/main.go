package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/jwtauth"

	"lootexchange/app/auth"
	"lootexchange/app/bag"
	"lootexchange/app/config"
	"lootexchange/app/contracts"
	"lootexchange/app/listing"
	"lootexchange/app/metadata"
	"lootexchange/app/notifier"
	"lootexchange/app/orderbook"
	"lootexchange/app/server"
	"lootexchange/app/session"
	"lootexchange/app/storage/database"
	"lootexchange/app/subgraph"
	"lootexchange/pkg/ens"
	"lootexchange/pkg/eth"
	"lootexchange/pkg/log"
	"lootexchange/pkg/web"
	webware "lootexchange/pkg/web/middleware"
)

const (
	maxRequestsAllowed     = 10000
	serverShutdownTimeout  = 30 * time.Second
	listingShutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		panic(err)
	}

	zlog := log.ConfigureLogger(cfg.Logging)
	defer func() {
		_ = zlog.Sync() // flush the logger
	}()

	// connect to the database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = db.Close()
	}()

	// connect to the node
	ethClient, _, err := eth.Dial(cfg.Ethereum.NodeUrl)
	if err != nil {
		log.Fatal("failed connection to node: ", err)
	}
	defer ethClient.Close()

	signer, err := cfg.Signer.New()
	if err != nil {
		log.Fatal("failed to load the signer: ", err)
	}
	log.Infow("listing from", "signer", signer.Address().Hex())

	names, err := ens.NewResolver(ethClient, cfg.Ens.CacheTtl)
	if err != nil {
		log.Fatal("failed to instantiate an ens resolver: ", err)
	}

	collection := strings.ToLower(cfg.Collection.Address)
	dataset, err := bag.NewDataset(cfg.Dataset, collection)
	if err != nil {
		log.Fatal("failed to load the bag dataset: ", err)
	}

	apiClient := metadata.NewHTTPClient(cfg.API)
	bagSvc := &bag.Manager{
		Dataset: dataset,
		Metadata: &metadata.Manager{
			Config:     cfg.API,
			Collection: collection,
			HttpClient: apiClient,
		},
		Subgraph: subgraph.NewManager(cfg.Subgraph.Url, apiClient.StandardClient()),
		Names:    names,
	}

	notifierSvc := notifier.NewManager()

	listingSvc := &listing.Manager{
		DB:     db,
		Chain:  &contracts.Client{EthClient: ethClient},
		Signer: signer,
		OrderBook: &orderbook.Manager{
			Config: cfg.OrderBook,
			HttpClient: &http.Client{
				Timeout: cfg.OrderBook.Timeout,
			},
		},
		Notifier:   notifierSvc,
		Networks:   cfg.Networks,
		Collection: common.HexToAddress(cfg.Collection.Address),
		Config:     cfg.Listing,
	}
	if err := listingSvc.Recover(context.Background()); err != nil {
		log.Fatal("failed to recover interrupted listings: ", err)
	}
	defer listingSvc.Shutdown(listingShutdownTimeout)

	router := newRouter()
	authSvc := &auth.Manager{
		JWTAuth: jwtauth.New("HS256", []byte(cfg.Secrets.Token), nil),
	}
	sessionSvc := &session.Manager{
		Auth:    authSvc,
		Secrets: cfg.Secrets,
	}
	rest := server.Rest{
		Router:   router,
		Session:  sessionSvc,
		Bag:      bagSvc,
		Listing:  listingSvc,
		Notifier: notifierSvc,
		Auth:     authSvc,
	}
	rest.Route() // handle http requests

	// start notifier an http server and remember to shut it down
	srv := &http.Server{
		Addr:    cfg.RestAddr,
		Handler: router,
	}
	go notifierSvc.Start()
	defer notifierSvc.Stop()

	serverFailed := make(chan error, 1)
	go func() {
		if err := web.Start(srv); err != nil {
			serverFailed <- err
		}
	}()
	defer web.Shutdown(srv, serverShutdownTimeout)

	// wait for the program exit
	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-exit:
	case err := <-serverFailed:
		log.Errorw("stopping on a server failure", "error", err.Error())
	}
}

func newRouter() chi.Router {
	router := chi.NewRouter()

	// add middleware
	router.Use(
		middleware.Throttle(maxRequestsAllowed),
		middleware.RealIP,
		middleware.RequestID,
		webware.ZapLogger,
		webware.Recoverer,
	)

	return router
}
