package eth

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

const dialTimeout = 30 * time.Second

func Dial(rawurl string) (*ethclient.Client, *rpc.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	rpcClient, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to dial the node")
	}
	return ethclient.NewClient(rpcClient), rpcClient, nil
}
