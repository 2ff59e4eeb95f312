package ens

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

func TestNameHash(t *testing.T) {
	cases := map[string]string{
		"":        "0000000000000000000000000000000000000000000000000000000000000000",
		"eth":     "93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae",
		"foo.eth": "de9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f",
	}
	for name, expected := range cases {
		node := NameHash(name)
		if result := hex.EncodeToString(node[:]); result != expected {
			t.Errorf("wrong namehash for %q, expected: %s, have: %s", name, expected, result)
		}
	}
}

// fakeChain answers registry and resolver calls from in-memory records.
type fakeChain struct {
	registryABI abi.ABI
	resolverABI abi.ABI
	resolver    common.Address

	resolvers map[[32]byte]common.Address
	names     map[[32]byte]string
	addrs     map[[32]byte]common.Address
	texts     map[[32]byte]string
	calls     int
}

func newFakeChain(t *testing.T) *fakeChain {
	registry, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		t.Fatal(err)
	}
	resolver, err := abi.JSON(strings.NewReader(resolverABI))
	if err != nil {
		t.Fatal(err)
	}
	return &fakeChain{
		registryABI: registry,
		resolverABI: resolver,
		resolver:    common.HexToAddress("0x4976fb03c32e5b8cfe2b6ccb31c09ba78ebaba41"),
		resolvers:   make(map[[32]byte]common.Address),
		names:       make(map[[32]byte]string),
		addrs:       make(map[[32]byte]common.Address),
		texts:       make(map[[32]byte]string),
	}
}

func (f *fakeChain) register(name string, address common.Address, avatar string) {
	node := NameHash(name)
	reverse := NameHash(strings.ToLower(address.Hex()[2:]) + ".addr.reverse")
	f.resolvers[node] = f.resolver
	f.resolvers[reverse] = f.resolver
	f.addrs[node] = address
	f.names[reverse] = name
	f.texts[node] = avatar
}

func (f *fakeChain) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

func (f *fakeChain) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.calls++
	contractABI := f.resolverABI
	if *call.To == common.HexToAddress(RegistryAddress) {
		contractABI = f.registryABI
	}
	method, err := contractABI.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	node := args[0].([32]byte)

	switch method.Name {
	case "resolver":
		return method.Outputs.Pack(f.resolvers[node])
	case "name":
		return method.Outputs.Pack(f.names[node])
	case "addr":
		return method.Outputs.Pack(f.addrs[node])
	case "text":
		return method.Outputs.Pack(f.texts[node])
	}
	return nil, errors.Errorf("unexpected method %s", method.Name)
}

func TestLookupAddress(t *testing.T) {
	chain := newFakeChain(t)
	owner := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	chain.register("dom.eth", owner, "ipfs://QmAvatar")

	resolver, err := NewResolver(chain, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	name, err := resolver.LookupAddress(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if name != "dom.eth" {
		t.Errorf("wrong name, expected: dom.eth, have: %q", name)
	}

	calls := chain.calls
	if _, err := resolver.LookupAddress(ctx, owner); err != nil {
		t.Fatal(err)
	}
	if chain.calls != calls {
		t.Error("second lookup must be served from the cache")
	}

	avatar, err := resolver.Avatar(ctx, name)
	if err != nil {
		t.Fatal(err)
	}
	if avatar != "https://ipfs.io/ipfs/QmAvatar" {
		t.Errorf("wrong avatar, have: %q", avatar)
	}
}

func TestLookupAddressWithoutRecord(t *testing.T) {
	chain := newFakeChain(t)
	resolver, err := NewResolver(chain, 0)
	if err != nil {
		t.Fatal(err)
	}

	name, err := resolver.LookupAddress(context.Background(), common.HexToAddress("0x0000000000000000000000000000000000000001"))
	if err != nil {
		t.Fatal(err)
	}
	if name != "" {
		t.Errorf("expected no name, have: %q", name)
	}
}

func TestLookupAddressRejectsForeignReverseRecord(t *testing.T) {
	chain := newFakeChain(t)
	owner := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	other := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	chain.register("dom.eth", owner, "")

	// other claims dom.eth in its reverse record
	reverse := NameHash(strings.ToLower(other.Hex()[2:]) + ".addr.reverse")
	chain.resolvers[reverse] = chain.resolver
	chain.names[reverse] = "dom.eth"

	resolver, err := NewResolver(chain, 0)
	if err != nil {
		t.Fatal(err)
	}
	name, err := resolver.LookupAddress(context.Background(), other)
	if err != nil {
		t.Fatal(err)
	}
	if name != "" {
		t.Errorf("expected no name for a foreign reverse record, have: %q", name)
	}
}
