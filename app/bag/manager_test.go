package bag

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"lootexchange/app/metadata"
	"lootexchange/app/models"
	"lootexchange/pkg/response"
)

const (
	testOwner = "0xABCDEF0123456789ABCDEF0123456789ABCDEF01"
	testUser  = "0xabcdef0123456789abcdef0123456789abcdef01"
)

type fakeMetadata struct {
	info  *models.TokenInfo
	err   error
	after func()
}

func (f *fakeMetadata) TokenInfo(ctx context.Context, id int) (*models.TokenInfo, error) {
	if f.after != nil {
		f.after()
	}
	return f.info, f.err
}

type fakeSubgraph struct {
	history *models.BagHistory
	err     error
	calls   int
}

func (f *fakeSubgraph) BagHistory(ctx context.Context, id int) (*models.BagHistory, error) {
	f.calls++
	return f.history, f.err
}

type fakeNames struct {
	names   map[common.Address]string
	avatars map[string]string
	err     error
	calls   int
}

func (f *fakeNames) LookupAddress(ctx context.Context, address common.Address) (string, error) {
	f.calls++
	return f.names[address], f.err
}

func (f *fakeNames) Avatar(ctx context.Context, name string) (string, error) {
	return f.avatars[name], nil
}

func newTestManager(info *models.TokenInfo) (*Manager, *fakeSubgraph, *fakeNames) {
	sg := &fakeSubgraph{history: &models.BagHistory{
		CurrentOwner: &models.BagOwnership{Address: testUser, BagsHeld: 2},
		Transfers: []*models.Transfer{
			{From: "0x0000000000000000000000000000000000000000", To: testUser, Timestamp: 1630000000, TxHash: "0x01"},
		},
	}}
	names := &fakeNames{
		names:   map[common.Address]string{common.HexToAddress(testOwner): "dom.eth"},
		avatars: map[string]string{"dom.eth": "https://ipfs.io/ipfs/QmAvatar"},
	}
	return &Manager{
		Dataset:  GenerateDataset(100, "https://chars.example", "https://img.example", "0xff9c"),
		Metadata: &fakeMetadata{info: info},
		Subgraph: sg,
		Names:    names,
	}, sg, names
}

func TestGetBagNotForSale(t *testing.T) {
	m, _, names := newTestManager(&models.TokenInfo{Owner: testOwner})

	bag, err := m.GetBag(context.Background(), &models.BagFilter{ID: 42})
	if err != nil {
		t.Fatal(err)
	}
	if bag.Name != "Bag #42" || bag.ID != 42 {
		t.Errorf("dataset fields must be merged, have: %+v", bag)
	}
	if bag.IsForSale {
		t.Error("bag without a listing price is not for sale")
	}
	if bag.Price != nil {
		t.Errorf("expected no price, have: %s", bag.Price)
	}
	if bag.ShortName != "0xA...F01" {
		t.Errorf("wrong short name, have: %s", bag.ShortName)
	}
	if len(bag.Transfers) != 1 || bag.OwnerBagsHeld == nil || *bag.OwnerBagsHeld != 2 {
		t.Errorf("history must be merged, have: %+v", bag)
	}
	if names.calls != 0 {
		t.Error("names must not be resolved without a current user")
	}
	if bag.IsOwnBag || bag.DisplayName != "" {
		t.Error("ownership fields need a current user")
	}
}

func TestGetBagForSaleWithOwner(t *testing.T) {
	price := decimal.RequireFromString("1.5")
	m, _, _ := newTestManager(&models.TokenInfo{Owner: testOwner, ListingPrice: &price})

	bag, err := m.GetBag(context.Background(), &models.BagFilter{ID: 42, CurrentUser: testUser})
	if err != nil {
		t.Fatal(err)
	}
	if !bag.IsForSale || bag.Price == nil || !bag.Price.Equal(price) {
		t.Errorf("wrong sale fields: for sale %v, price %v", bag.IsForSale, bag.Price)
	}
	if bag.OwnerEns != "dom.eth" || bag.DisplayName != "dom.eth" {
		t.Errorf("wrong name fields: ens %q, display %q", bag.OwnerEns, bag.DisplayName)
	}
	if bag.OwnerAvatar != "https://ipfs.io/ipfs/QmAvatar" {
		t.Errorf("wrong avatar: %s", bag.OwnerAvatar)
	}
	if !bag.IsOwnBag {
		t.Error("owner comparison must ignore the case")
	}
	if bag.ShortName != "0xA...F01" {
		t.Errorf("short name must stay the shortened address, have: %s", bag.ShortName)
	}
}

func TestGetBagNameFailureDegrades(t *testing.T) {
	m, _, names := newTestManager(&models.TokenInfo{Owner: testOwner})
	names.err = errors.New("node is down")

	bag, err := m.GetBag(context.Background(), &models.BagFilter{ID: 42, CurrentUser: "0x0000000000000000000000000000000000000001"})
	if err != nil {
		t.Fatal(err)
	}
	if bag.OwnerEns != "" || bag.DisplayName != bag.ShortName {
		t.Errorf("expected the short name as display name, have: %q", bag.DisplayName)
	}
	if bag.IsOwnBag {
		t.Error("bag of another owner is not own")
	}
}

func TestGetBagErrors(t *testing.T) {
	m, sg, _ := newTestManager(nil)

	m.Metadata = &fakeMetadata{err: metadata.ErrTokenNotFound}
	_, err := m.GetBag(context.Background(), &models.BagFilter{ID: 42})
	if respErr, ok := errors.Cause(err).(*response.Error); !ok || respErr.Status() != http.StatusNotFound {
		t.Errorf("expected not found, have: %v", err)
	}
	if sg.calls != 0 {
		t.Error("history must wait for the metadata")
	}

	m.Metadata = &fakeMetadata{err: errors.New("timeout")}
	_, err = m.GetBag(context.Background(), &models.BagFilter{ID: 42})
	if respErr, ok := errors.Cause(err).(*response.Error); !ok || respErr.Status() != http.StatusBadGateway {
		t.Errorf("expected bad gateway, have: %v", err)
	}

	m.Metadata = &fakeMetadata{info: &models.TokenInfo{Owner: testOwner}}
	sg.err = errors.New("indexer is behind")
	if _, err = m.GetBag(context.Background(), &models.BagFilter{ID: 42}); err == nil {
		t.Error("history errors must be returned")
	}

	if _, err = m.GetBag(context.Background(), &models.BagFilter{ID: 0}); err == nil {
		t.Error("invalid ids must fail")
	}
}

func TestGetBagCancelled(t *testing.T) {
	m, sg, _ := newTestManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	m.Metadata = &fakeMetadata{info: &models.TokenInfo{Owner: testOwner}, after: cancel}

	if _, err := m.GetBag(ctx, &models.BagFilter{ID: 42}); err != context.Canceled {
		t.Errorf("expected a cancelled request, have: %v", err)
	}
	if sg.calls != 0 {
		t.Error("a cancelled request must not go on")
	}
}

func TestMergeIsMonotonic(t *testing.T) {
	price := decimal.RequireFromString("0.2")
	d := GenerateDataset(10, "https://chars.example", "https://img.example", "0xff9c")
	base := mergeToken(7, &models.TokenInfo{
		Owner:        testOwner,
		ListingPrice: &price,
		Extra:        map[string]json.RawMessage{"lastSale": json.RawMessage(`"0.1"`)},
	}, d.Find(7))
	snapshot := base.Copy()

	history := &models.BagHistory{
		CurrentOwner: &models.BagOwnership{Address: testOwner, BagsHeld: 5},
		Transfers:    []*models.Transfer{{From: "0x1", To: testOwner, Timestamp: 1, TxHash: "0x2"}},
	}
	withTransfers := withHistory(base, history)
	withNames := withOwnerIdentity(withTransfers, &models.OwnerIdentity{Ens: "dom.eth"}, testUser)

	if !reflect.DeepEqual(base, snapshot) {
		t.Error("merge steps must not modify their input")
	}
	for _, b := range []*models.Bag{withTransfers, withNames} {
		if b.ID != base.ID || b.TokenID != base.TokenID || b.Name != base.Name ||
			b.Image != base.Image || b.CharacterImage != base.CharacterImage ||
			b.Owner != base.Owner || b.ShortName != base.ShortName ||
			b.IsForSale != base.IsForSale || b.Price != base.Price || b.ListingPrice != base.ListingPrice {
			t.Errorf("token fields changed: %+v", b)
		}
	}
	if !reflect.DeepEqual(withNames.Extra, base.Extra) {
		t.Errorf("extra token fields must be carried: %v", withNames.Extra)
	}
	if !reflect.DeepEqual(withNames.Transfers, withTransfers.Transfers) || *withNames.OwnerBagsHeld != 5 {
		t.Error("history fields must survive the name merge")
	}
}

func TestMergeUnknownRecord(t *testing.T) {
	bag := mergeToken(9000, &models.TokenInfo{Owner: testOwner}, nil)
	if bag.ID != 9000 || bag.TokenID != 9000 || bag.Name != "" {
		t.Errorf("unexpected bag: %+v", bag)
	}
	if bag.Owner != testOwner {
		t.Error("remote fields must be kept")
	}
}
