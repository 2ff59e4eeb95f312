package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/jwtauth"
	"github.com/pkg/errors"

	"lootexchange/pkg/eth"
)

const (
	accessTokenExpiresIn = time.Hour * 24

	claimWallet = "wallet"
	claimExp    = "exp"
)

type TokenEncoder interface {
	Encode(claims jwtauth.Claims) (t *jwt.Token, tokenString string, err error)
}

type AccessToken struct {
	Wallet    string
	ExpiresAt time.Time
}

func NewAccessToken(wallet string) *AccessToken {
	return &AccessToken{
		Wallet:    strings.ToLower(wallet),
		ExpiresAt: time.Now().Add(accessTokenExpiresIn),
	}
}

func AccessTokenFromContext(ctx context.Context) (*AccessToken, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve an access token from a context")
	}

	wallet, ok := claims[claimWallet].(string)
	if !ok || wallet == "" {
		return nil, errors.New("empty wallet claim")
	}

	exp, ok := claims[claimExp].(float64)
	if !ok || exp == 0 {
		return nil, errors.New("empty exp claim")
	}

	return &AccessToken{
		Wallet:    wallet,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

func (t *AccessToken) Encode(encoder TokenEncoder) (string, error) {
	_, tokenString, err := encoder.Encode(jwtauth.Claims{
		claimWallet: t.Wallet,
		claimExp:    t.ExpiresAt.Unix(),
	})
	return tokenString, errors.Wrap(err, "failed to encode a jwt")
}

// NewSession is a sign-in request: the wallet signs "<address>:<generated_at>"
// as a personal message.
type NewSession struct {
	Address     string `json:"address,omitempty"`
	GeneratedAt int64  `json:"generated_at,omitempty"`
	Signature   string `json:"-"` // provided in a header
}

func (s *NewSession) Message() []byte {
	return []byte(fmt.Sprintf("%s:%d", strings.ToLower(s.Address), s.GeneratedAt))
}

func (s *NewSession) Validate(now time.Time, maxAge time.Duration) error {
	if s.Address == "" {
		return errors.New("empty wallet address provided")
	}

	if !eth.IsValidAddress(s.Address) {
		return errors.New("invalid wallet address provided")
	}

	if s.GeneratedAt == 0 {
		return errors.New("empty session creation date provided")
	}

	generatedAt := time.Unix(s.GeneratedAt, 0)
	if now.Sub(generatedAt) > maxAge || generatedAt.Sub(now) > maxAge {
		return errors.New("session request is expired")
	}

	if s.Signature == "" {
		return errors.New("empty signature provided")
	}

	sig, err := hexutil.Decode(s.Signature)
	if err != nil {
		return errors.Wrap(err, "invalid signature provided")
	}
	signer, err := eth.RecoverMessageSigner(s.Message(), sig)
	if err != nil {
		return errors.Wrap(err, "invalid signature provided")
	}
	if signer != common.HexToAddress(s.Address) {
		return errors.New("signature does not match the wallet address")
	}

	return nil
}

type Session struct {
	Address     string `json:"address"`
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}
