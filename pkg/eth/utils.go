package eth

import (
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of decimals of the native currency.
const EtherDecimals = 18

var (
	addressRegex = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")
)

func IsValidAddress(iaddress interface{}) bool {
	switch v := iaddress.(type) {
	case string:
		return addressRegex.MatchString(v)
	case common.Address:
		return addressRegex.MatchString(v.Hex())
	default:
		return false
	}
}

// SameAddress compares two hex addresses ignoring the checksum case.
func SameAddress(a, b string) bool {
	if !IsValidAddress(a) || !IsValidAddress(b) {
		return false
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}

func ToETH(ivalue interface{}, decimals uint8) decimal.Decimal {
	value := new(big.Int)
	switch v := ivalue.(type) {
	case string:
		value.SetString(v, 10)
	case *big.Int:
		if v != nil {
			value = v
		}
	}
	return decimal.NewFromBigInt(value, -int32(decimals))
}

func ToWei(iamount interface{}, decimals uint8) *big.Int {
	amount := decimal.Zero
	switch v := iamount.(type) {
	case string:
		amount, _ = decimal.NewFromString(v)
	case float64:
		amount = decimal.NewFromFloat(v)
	case int64:
		amount = decimal.NewFromInt(v)
	case decimal.Decimal:
		amount = v
	case *decimal.Decimal:
		amount = *v
	}

	return amount.Shift(int32(decimals)).BigInt()
}
