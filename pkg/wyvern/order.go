// Package wyvern builds, hashes and signs Wyvern v2 exchange orders.
package wyvern

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"lootexchange/pkg/eth"
)

type FeeMethod uint8

const (
	FeeMethodProtocolFee FeeMethod = iota
	FeeMethodSplitFee
)

type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

type SaleKind uint8

const (
	SaleKindFixedPrice SaleKind = iota
	SaleKindDutchAuction
)

type HowToCall uint8

const (
	HowToCallCall HowToCall = iota
	HowToCallDelegateCall
)

const saltLength = 32

var (
	transferFromMethodID []byte
)

func init() {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte("transferFrom(address,address,uint256)"))
	transferFromMethodID = hash.Sum(nil)[:4]
}

// MessageSigner signs EIP-191 personal messages.
type MessageSigner interface {
	SignMessage(message []byte) ([]byte, error)
}

type Order struct {
	Exchange           common.Address
	Maker              common.Address
	Taker              common.Address
	MakerRelayerFee    *big.Int
	TakerRelayerFee    *big.Int
	MakerProtocolFee   *big.Int
	TakerProtocolFee   *big.Int
	FeeRecipient       common.Address
	FeeMethod          FeeMethod
	Side               Side
	SaleKind           SaleKind
	Target             common.Address
	HowToCall          HowToCall
	Calldata           []byte
	ReplacementPattern []byte
	StaticTarget       common.Address
	StaticExtradata    []byte
	PaymentToken       common.Address
	BasePrice          *big.Int
	Extra              *big.Int
	ListingTime        *big.Int
	ExpirationTime     *big.Int
	Salt               *big.Int

	// signature, empty until Sign
	V uint8
	R common.Hash
	S common.Hash
}

type ERC721SellParams struct {
	Exchange       common.Address
	Maker          common.Address
	Target         common.Address
	TokenID        *big.Int
	PaymentToken   common.Address
	BasePrice      *big.Int
	Fee            *big.Int
	FeeRecipient   common.Address
	ListingTime    int64
	ExpirationTime int64
	Salt           *big.Int
}

// NewERC721SellOrder builds a fixed price sell order for a single token
// transferred with transferFrom(maker, buyer, tokenId). The buyer argument is
// left empty and masked by the replacement pattern.
func NewERC721SellOrder(p *ERC721SellParams) (*Order, error) {
	if p.TokenID == nil || p.TokenID.Sign() < 0 {
		return nil, errors.New("invalid token id")
	}
	if p.BasePrice == nil || p.BasePrice.Sign() <= 0 {
		return nil, errors.New("base price must be positive")
	}
	if p.Salt == nil {
		return nil, errors.New("empty salt")
	}
	fee := p.Fee
	if fee == nil {
		fee = new(big.Int)
	}

	calldata := make([]byte, 0, 4+3*32)
	calldata = append(calldata, transferFromMethodID...)
	calldata = append(calldata, common.LeftPadBytes(p.Maker.Bytes(), 32)...)
	calldata = append(calldata, make([]byte, 32)...)
	calldata = append(calldata, common.LeftPadBytes(p.TokenID.Bytes(), 32)...)

	pattern := make([]byte, 4+3*32)
	copy(pattern[4+32:4+64], bytes.Repeat([]byte{0xff}, 32))

	order := &Order{
		Exchange:           p.Exchange,
		Maker:              p.Maker,
		MakerRelayerFee:    new(big.Int).Set(fee),
		TakerRelayerFee:    new(big.Int),
		MakerProtocolFee:   new(big.Int),
		TakerProtocolFee:   new(big.Int),
		FeeRecipient:       p.FeeRecipient,
		FeeMethod:          FeeMethodSplitFee,
		Side:               SideSell,
		SaleKind:           SaleKindFixedPrice,
		Target:             p.Target,
		HowToCall:          HowToCallCall,
		Calldata:           calldata,
		ReplacementPattern: pattern,
		StaticExtradata:    []byte{},
		PaymentToken:       p.PaymentToken,
		BasePrice:          new(big.Int).Set(p.BasePrice),
		Extra:              new(big.Int),
		ListingTime:        big.NewInt(p.ListingTime),
		ExpirationTime:     big.NewInt(p.ExpirationTime),
		Salt:               new(big.Int).Set(p.Salt),
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// NewSalt returns a random 256 bit salt.
func NewSalt() (*big.Int, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "failed to generate a salt")
	}
	return new(big.Int).SetBytes(salt), nil
}

func (o *Order) Validate() error {
	if o.Maker == (common.Address{}) {
		return errors.New("order maker must be set")
	}
	// the exchange rejects maker orders paying fees to the zero address,
	// even when the fee is zero
	if o.FeeRecipient == (common.Address{}) {
		return errors.New("order fee recipient must not be the zero address")
	}
	if len(o.Calldata) != len(o.ReplacementPattern) {
		return errors.New("calldata and replacement pattern lengths differ")
	}
	return nil
}

// Hash is the order hash as computed by the exchange's hashOrder.
func (o *Order) Hash() common.Hash {
	buf := new(bytes.Buffer)
	writeUint := func(v *big.Int) {
		if v == nil {
			v = new(big.Int)
		}
		buf.Write(common.LeftPadBytes(v.Bytes(), 32))
	}

	buf.Write(o.Exchange.Bytes())
	buf.Write(o.Maker.Bytes())
	buf.Write(o.Taker.Bytes())
	writeUint(o.MakerRelayerFee)
	writeUint(o.TakerRelayerFee)
	writeUint(o.MakerProtocolFee)
	writeUint(o.TakerProtocolFee)
	buf.Write(o.FeeRecipient.Bytes())
	buf.WriteByte(byte(o.FeeMethod))
	buf.WriteByte(byte(o.Side))
	buf.WriteByte(byte(o.SaleKind))
	buf.Write(o.Target.Bytes())
	buf.WriteByte(byte(o.HowToCall))
	buf.Write(o.Calldata)
	buf.Write(o.ReplacementPattern)
	buf.Write(o.StaticTarget.Bytes())
	buf.Write(o.StaticExtradata)
	buf.Write(o.PaymentToken.Bytes())
	writeUint(o.BasePrice)
	writeUint(o.Extra)
	writeUint(o.ListingTime)
	writeUint(o.ExpirationTime)
	writeUint(o.Salt)

	return crypto.Keccak256Hash(buf.Bytes())
}

// Sign signs the order hash as a personal message, the way wallets sign
// Wyvern orders.
func (o *Order) Sign(signer MessageSigner) error {
	if err := o.Validate(); err != nil {
		return err
	}
	hash := o.Hash()
	sig, err := signer.SignMessage(hash.Bytes())
	if err != nil {
		return errors.Wrap(err, "failed to sign the order")
	}
	if len(sig) != crypto.SignatureLength {
		return errors.New("invalid order signature length")
	}

	o.R = common.BytesToHash(sig[:32])
	o.S = common.BytesToHash(sig[32:64])
	o.V = sig[64]
	if o.V < 27 {
		o.V += 27
	}
	return nil
}

func (o *Order) IsSigned() bool {
	return o.V != 0
}

// RecoverSigner returns the address that signed the order.
func (o *Order) RecoverSigner() (common.Address, error) {
	if !o.IsSigned() {
		return common.Address{}, errors.New("order is not signed")
	}
	sig := make([]byte, 0, crypto.SignatureLength)
	sig = append(sig, o.R.Bytes()...)
	sig = append(sig, o.S.Bytes()...)
	sig = append(sig, o.V)
	return eth.RecoverMessageSigner(o.Hash().Bytes(), sig)
}

type orderJSON struct {
	Exchange           string `json:"exchange"`
	Maker              string `json:"maker"`
	Taker              string `json:"taker"`
	MakerRelayerFee    string `json:"makerRelayerFee"`
	TakerRelayerFee    string `json:"takerRelayerFee"`
	MakerProtocolFee   string `json:"makerProtocolFee"`
	TakerProtocolFee   string `json:"takerProtocolFee"`
	FeeRecipient       string `json:"feeRecipient"`
	FeeMethod          uint8  `json:"feeMethod"`
	Side               uint8  `json:"side"`
	SaleKind           uint8  `json:"saleKind"`
	Target             string `json:"target"`
	HowToCall          uint8  `json:"howToCall"`
	Calldata           string `json:"calldata"`
	ReplacementPattern string `json:"replacementPattern"`
	StaticTarget       string `json:"staticTarget"`
	StaticExtradata    string `json:"staticExtradata"`
	PaymentToken       string `json:"paymentToken"`
	BasePrice          string `json:"basePrice"`
	Extra              string `json:"extra"`
	ListingTime        string `json:"listingTime"`
	ExpirationTime     string `json:"expirationTime"`
	Salt               string `json:"salt"`
	V                  uint8  `json:"v,omitempty"`
	R                  string `json:"r,omitempty"`
	S                  string `json:"s,omitempty"`
}

// MarshalJSON renders addresses in lower case and integers as decimal strings.
func (o *Order) MarshalJSON() ([]byte, error) {
	out := orderJSON{
		Exchange:           addressString(o.Exchange),
		Maker:              addressString(o.Maker),
		Taker:              addressString(o.Taker),
		MakerRelayerFee:    uintString(o.MakerRelayerFee),
		TakerRelayerFee:    uintString(o.TakerRelayerFee),
		MakerProtocolFee:   uintString(o.MakerProtocolFee),
		TakerProtocolFee:   uintString(o.TakerProtocolFee),
		FeeRecipient:       addressString(o.FeeRecipient),
		FeeMethod:          uint8(o.FeeMethod),
		Side:               uint8(o.Side),
		SaleKind:           uint8(o.SaleKind),
		Target:             addressString(o.Target),
		HowToCall:          uint8(o.HowToCall),
		Calldata:           hexutil.Encode(o.Calldata),
		ReplacementPattern: hexutil.Encode(o.ReplacementPattern),
		StaticTarget:       addressString(o.StaticTarget),
		StaticExtradata:    hexutil.Encode(o.StaticExtradata),
		PaymentToken:       addressString(o.PaymentToken),
		BasePrice:          uintString(o.BasePrice),
		Extra:              uintString(o.Extra),
		ListingTime:        uintString(o.ListingTime),
		ExpirationTime:     uintString(o.ExpirationTime),
		Salt:               uintString(o.Salt),
	}
	if o.IsSigned() {
		out.V = o.V
		out.R = o.R.Hex()
		out.S = o.S.Hex()
	}
	return json.Marshal(&out)
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var in orderJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var err error
	parseUint := func(s string) *big.Int {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok && err == nil {
			err = errors.Errorf("invalid integer %q", s)
		}
		return v
	}
	parseBytes := func(s string) []byte {
		b, decodeErr := hexutil.Decode(s)
		if decodeErr != nil && err == nil {
			err = errors.Wrapf(decodeErr, "invalid bytes %q", s)
		}
		return b
	}

	*o = Order{
		Exchange:           common.HexToAddress(in.Exchange),
		Maker:              common.HexToAddress(in.Maker),
		Taker:              common.HexToAddress(in.Taker),
		MakerRelayerFee:    parseUint(in.MakerRelayerFee),
		TakerRelayerFee:    parseUint(in.TakerRelayerFee),
		MakerProtocolFee:   parseUint(in.MakerProtocolFee),
		TakerProtocolFee:   parseUint(in.TakerProtocolFee),
		FeeRecipient:       common.HexToAddress(in.FeeRecipient),
		FeeMethod:          FeeMethod(in.FeeMethod),
		Side:               Side(in.Side),
		SaleKind:           SaleKind(in.SaleKind),
		Target:             common.HexToAddress(in.Target),
		HowToCall:          HowToCall(in.HowToCall),
		Calldata:           parseBytes(in.Calldata),
		ReplacementPattern: parseBytes(in.ReplacementPattern),
		StaticTarget:       common.HexToAddress(in.StaticTarget),
		StaticExtradata:    parseBytes(in.StaticExtradata),
		PaymentToken:       common.HexToAddress(in.PaymentToken),
		BasePrice:          parseUint(in.BasePrice),
		Extra:              parseUint(in.Extra),
		ListingTime:        parseUint(in.ListingTime),
		ExpirationTime:     parseUint(in.ExpirationTime),
		Salt:               parseUint(in.Salt),
		V:                  in.V,
	}
	if in.R != "" {
		o.R = common.HexToHash(in.R)
		o.S = common.HexToHash(in.S)
	}
	return err
}

func addressString(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func uintString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
