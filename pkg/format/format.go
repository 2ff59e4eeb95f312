// Package format renders addresses, amounts and chain ids for display.
package format

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"lootexchange/pkg/eth"
)

const (
	DefaultNumberPrecision = 5

	ethDisplayDecimals = 4
)

var chainNames = map[int64]string{
	1: "Mainnet",
	3: "Ropsten",
	4: "Rinkeby",
	5: "Goerli",
}

var numberSuffixes = []string{"", "K", "M", "B", "T"}

// ShortenAddress keeps the first and the last three characters of an address.
func ShortenAddress(address string) string {
	if len(address) < 6 {
		return address
	}
	return address[:3] + "..." + address[len(address)-3:]
}

// FormatMoney renders an amount of US dollars, e.g. $1,234.50.
func FormatMoney(money float64) string {
	sign := ""
	if money < 0 {
		sign = "-"
		money = -money
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", money)
}

func ChainName(chainID int64) string {
	if name, ok := chainNames[chainID]; ok {
		return name
	}
	return "Unknown"
}

// FormatEth converts wei to ether rounded to four fraction digits.
func FormatEth(wei *big.Int) float64 {
	value, _ := eth.ToETH(wei, eth.EtherDecimals).Round(ethDisplayDecimals).Float64()
	return value
}

// AbbreviateNumber renders a number with three significant digits and
// a thousands suffix: 1234 -> 1.23K.
func AbbreviateNumber(value float64) string {
	suffix := 0
	for math.Abs(value) >= 1000 && suffix < len(numberSuffixes)-1 {
		value /= 1000
		suffix++
	}
	return strconv.FormatFloat(ShortenNumber(value, 3), 'f', -1, 64) + numberSuffixes[suffix]
}

// ShortenNumber rounds value to the given number of significant digits.
func ShortenNumber(value float64, precision int) float64 {
	if precision <= 0 {
		precision = DefaultNumberPrecision
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(value, 'g', precision, 64), 64)
	if err != nil {
		return value
	}
	return rounded
}

// CharacterImageURL is the character render of a bag, ids are zero padded to four digits.
func CharacterImageURL(base string, id int) string {
	return fmt.Sprintf("%s/%04d.png", strings.TrimSuffix(base, "/"), id)
}

// BagImageURL is the generated svg of a bag in a collection.
func BagImageURL(base, collection string, id int) string {
	return fmt.Sprintf("%s/%s/%d.svg", strings.TrimSuffix(base, "/"), collection, id)
}
