package bag

import (
	"strings"

	"lootexchange/app/models"
	"lootexchange/pkg/format"
)

// Each merge step returns a new bag carrying every field of its input.

func mergeToken(id int, token *models.TokenInfo, record *models.BagRecord) *models.Bag {
	bag := &models.Bag{
		ID:           id,
		TokenID:      id,
		Owner:        token.Owner,
		ListingPrice: token.ListingPrice,
		Extra:        token.Extra,
	}
	if record != nil {
		bag.ID = record.ID
		bag.TokenID = record.TokenID
		bag.Name = record.Name
		bag.Image = record.Image
		bag.CharacterImage = record.CharacterImage
	}

	bag.ShortName = format.ShortenAddress(token.Owner)
	bag.IsForSale = token.ListingPrice != nil && !token.ListingPrice.IsZero()
	bag.Price = token.ListingPrice
	return bag
}

func withHistory(bag *models.Bag, history *models.BagHistory) *models.Bag {
	cp := bag.Copy()
	cp.Transfers = history.Transfers
	if cp.Transfers == nil {
		cp.Transfers = []*models.Transfer{}
	}
	if history.CurrentOwner != nil {
		held := history.CurrentOwner.BagsHeld
		cp.OwnerBagsHeld = &held
	}
	return cp
}

func withOwnerIdentity(bag *models.Bag, identity *models.OwnerIdentity, currentUser string) *models.Bag {
	cp := bag.Copy()
	cp.OwnerEns = identity.Ens
	cp.OwnerAvatar = identity.Avatar
	cp.DisplayName = cp.ShortName
	if identity.Ens != "" {
		cp.DisplayName = identity.Ens
	}
	cp.IsOwnBag = cp.Owner != "" && strings.EqualFold(cp.Owner, currentUser)
	return cp
}
