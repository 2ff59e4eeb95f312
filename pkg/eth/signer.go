package eth

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Signer is the wallet identity every on-chain read, write and order
// signature of a listing goes through.
type Signer interface {
	Address() common.Address
	Transactor(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
	SignMessage(message []byte) ([]byte, error)
}

type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewKeySigner(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert private key to ecdsa")
	}
	return newKeySigner(key), nil
}

// NewKeystoreSigner decrypts a V3 keystore file.
func NewKeystoreSigner(path, passphrase string) (*KeySigner, error) {
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the keystore file")
	}
	key, err := keystore.DecryptKey(keyJSON, passphrase)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt the keystore file")
	}
	return newKeySigner(key.PrivateKey), nil
}

func newKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func (s *KeySigner) Address() common.Address {
	return s.address
}

func (s *KeySigner) Transactor(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a transactor")
	}
	opts.Context = ctx
	return opts, nil
}

// SignMessage signs an EIP-191 personal message, v is 27 or 28.
func (s *KeySigner) SignMessage(message []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(message), s.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign a message")
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverMessageSigner returns the address that produced sig over an
// EIP-191 personal message.
func RecoverMessageSigner(message, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errors.New("invalid signature length")
	}
	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(message), normalized)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to recover a public key")
	}
	return crypto.PubkeyToAddress(*pub), nil
}
