// Package ens resolves primary ENS names and avatars of addresses.
package ens

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// RegistryAddress is the ENS registry, the same on every network ENS is deployed to.
const RegistryAddress = "0x00000000000C2E074eC69A0bFB2997BA6C7d2e1e"

const (
	reverseSuffix = "addr.reverse"
	avatarKey     = "avatar"

	defaultCacheExpiration = 10 * time.Minute
	cleanupInterval        = 15 * time.Minute

	ipfsScheme  = "ipfs://"
	ipfsGateway = "https://ipfs.io/ipfs/"
)

const registryABI = `[
{"constant":true,"inputs":[{"name":"node","type":"bytes32"}],"name":"resolver","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

const resolverABI = `[
{"constant":true,"inputs":[{"name":"node","type":"bytes32"}],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"node","type":"bytes32"}],"name":"addr","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],"name":"text","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

type Resolver struct {
	backend     bind.ContractCaller
	registry    *bind.BoundContract
	resolverABI abi.ABI
	cache       *cache.Cache
}

func NewResolver(backend bind.ContractCaller, cacheExpiration time.Duration) (*Resolver, error) {
	parsedRegistry, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse the registry abi")
	}
	parsedResolver, err := abi.JSON(strings.NewReader(resolverABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse the resolver abi")
	}
	if cacheExpiration == 0 {
		cacheExpiration = defaultCacheExpiration
	}

	return &Resolver{
		backend:     backend,
		registry:    bind.NewBoundContract(common.HexToAddress(RegistryAddress), parsedRegistry, backend, nil, nil),
		resolverABI: parsedResolver,
		cache:       cache.New(cacheExpiration, cleanupInterval),
	}, nil
}

// LookupAddress returns the primary name of an address, or an empty string
// when the reverse record is missing or does not resolve back to the address.
func (r *Resolver) LookupAddress(ctx context.Context, address common.Address) (string, error) {
	cacheKey := "name:" + strings.ToLower(address.Hex())
	if cached, found := r.cache.Get(cacheKey); found {
		if name, ok := cached.(string); ok {
			return name, nil
		}
	}

	reverseNode := NameHash(strings.ToLower(address.Hex()[2:]) + "." + reverseSuffix)
	resolver, err := r.resolverFor(ctx, reverseNode)
	if err != nil {
		return "", err
	}
	if resolver == nil {
		r.cache.Set(cacheKey, "", cache.DefaultExpiration)
		return "", nil
	}

	name, err := callString(ctx, resolver, "name", reverseNode)
	if err != nil {
		return "", errors.Wrap(err, "failed to get the reverse record")
	}
	if name == "" {
		r.cache.Set(cacheKey, "", cache.DefaultExpiration)
		return "", nil
	}

	// the reverse record is set by its owner, it only counts when the name
	// points back to the address
	resolved, err := r.ResolveName(ctx, name)
	if err != nil {
		return "", err
	}
	if resolved != address {
		name = ""
	}

	r.cache.Set(cacheKey, name, cache.DefaultExpiration)
	return name, nil
}

// ResolveName returns the address a name points to.
func (r *Resolver) ResolveName(ctx context.Context, name string) (common.Address, error) {
	node := NameHash(name)
	resolver, err := r.resolverFor(ctx, node)
	if err != nil {
		return common.Address{}, err
	}
	if resolver == nil {
		return common.Address{}, nil
	}

	var out []interface{}
	if err := resolver.Call(&bind.CallOpts{Context: ctx}, &out, "addr", node); err != nil {
		return common.Address{}, errors.Wrap(err, "failed to resolve a name")
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// Avatar returns the avatar text record of a name with ipfs links
// rewritten to an http gateway.
func (r *Resolver) Avatar(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	cacheKey := "avatar:" + name
	if cached, found := r.cache.Get(cacheKey); found {
		if avatar, ok := cached.(string); ok {
			return avatar, nil
		}
	}

	node := NameHash(name)
	resolver, err := r.resolverFor(ctx, node)
	if err != nil {
		return "", err
	}
	var avatar string
	if resolver != nil {
		avatar, err = callString(ctx, resolver, "text", node, avatarKey)
		if err != nil {
			return "", errors.Wrap(err, "failed to get the avatar record")
		}
	}
	if strings.HasPrefix(avatar, ipfsScheme) {
		avatar = ipfsGateway + strings.TrimPrefix(avatar, ipfsScheme)
	}

	r.cache.Set(cacheKey, avatar, cache.DefaultExpiration)
	return avatar, nil
}

func (r *Resolver) resolverFor(ctx context.Context, node [32]byte) (*bind.BoundContract, error) {
	var out []interface{}
	if err := r.registry.Call(&bind.CallOpts{Context: ctx}, &out, "resolver", node); err != nil {
		return nil, errors.Wrap(err, "failed to get a resolver from the registry")
	}
	address := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	if address == (common.Address{}) {
		return nil, nil
	}
	return bind.NewBoundContract(address, r.resolverABI, r.backend, nil, nil), nil
}

func callString(ctx context.Context, contract *bind.BoundContract, method string, params ...interface{}) (string, error) {
	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// NameHash implements the EIP-137 namehash of a normalized name.
func NameHash(name string) [32]byte {
	var node [32]byte
	if name == "" {
		return node
	}

	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := keccak([]byte(labels[i]))
		copy(node[:], keccak(node[:], labelHash))
	}
	return node
}

func keccak(data ...[]byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hash.Write(d)
	}
	return hash.Sum(nil)
}
