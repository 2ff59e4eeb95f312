package models

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type BagFilter struct {
	ID          int    `json:"-"` // filled from path param
	CurrentUser string `json:"-"` // filled from an optional access token
}

func (f *BagFilter) Validate() error {
	if f.ID <= 0 {
		return errors.New("invalid bag id provided")
	}
	return nil
}

// BagRecord is an entry of the static collection dataset.
type BagRecord struct {
	ID             int    `json:"id"`
	TokenID        int    `json:"tokenId"`
	Name           string `json:"name"`
	Image          string `json:"image"`
	CharacterImage string `json:"characterImage"`
}

// TokenInfo is the token object of the marketplace metadata endpoint.
type TokenInfo struct {
	Owner        string           `json:"owner"`
	ListingPrice *decimal.Decimal `json:"listingPrice"`

	// Extra keeps the other token fields of the marketplace api as is.
	Extra map[string]json.RawMessage `json:"-"`
}

func (t *TokenInfo) UnmarshalJSON(data []byte) error {
	type plain TokenInfo
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	delete(fields, "owner")
	delete(fields, "listingPrice")

	*t = TokenInfo(known)
	if len(fields) > 0 {
		t.Extra = fields
	}
	return nil
}

type TokenInfoResponse struct {
	Data struct {
		Token *TokenInfo `json:"token"`
	} `json:"data"`
}

type Transfer struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Timestamp int64  `json:"timestamp"`
	TxHash    string `json:"tx_hash"`
}

type BagOwnership struct {
	Address  string `json:"address"`
	BagsHeld int64  `json:"bags_held"`
}

type BagHistory struct {
	CurrentOwner *BagOwnership `json:"current_owner,omitempty"`
	Transfers    []*Transfer   `json:"transfers"`
}

type OwnerIdentity struct {
	Ens    string
	Avatar string
}

type Bag struct {
	ID             int              `json:"id"`
	TokenID        int              `json:"token_id"`
	Name           string           `json:"name"`
	Image          string           `json:"image,omitempty"`
	CharacterImage string           `json:"character_image,omitempty"`
	Owner          string           `json:"owner"`
	ListingPrice   *decimal.Decimal `json:"listing_price"`
	ShortName      string           `json:"short_name"`
	IsForSale      bool             `json:"is_for_sale"`
	Price          *decimal.Decimal `json:"price"`

	Transfers     []*Transfer `json:"transfers,omitempty"`
	OwnerBagsHeld *int64      `json:"owner_bags_held,omitempty"`

	OwnerEns    string `json:"owner_ens,omitempty"`
	OwnerAvatar string `json:"owner_avatar,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	IsOwnBag    bool   `json:"is_own_bag"`

	Extra map[string]json.RawMessage `json:"-"` // other token fields
}

// MarshalJSON renders the extra token fields next to the bag fields. Bag
// fields win on a name clash.
func (b Bag) MarshalJSON() ([]byte, error) {
	type plain Bag
	data, err := json.Marshal(plain(b))
	if err != nil || len(b.Extra) == 0 {
		return data, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for name, value := range b.Extra {
		if _, ok := fields[name]; !ok {
			fields[name] = value
		}
	}
	return json.Marshal(fields)
}

func (b *Bag) Copy() *Bag {
	cp := *b
	if b.Transfers != nil {
		cp.Transfers = make([]*Transfer, len(b.Transfers))
		copy(cp.Transfers, b.Transfers)
	}
	if b.Extra != nil {
		cp.Extra = make(map[string]json.RawMessage, len(b.Extra))
		for name, value := range b.Extra {
			cp.Extra[name] = value
		}
	}
	return &cp
}
