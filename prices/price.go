package prices

import (
	"github.com/defistate/assetregistry-client-go/amount"
	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
	"github.com/defistate/assetregistry-client-go/rational"
)

// QuoteDecimals is the precision of the reference currency (USD) base unit.
const QuoteDecimals uint8 = 6

type Source uint8

const (
	SourceOracle Source = iota + 1
	SourcePrimaryFeed
)

func (s Source) String() string {
	switch s {
	case SourceOracle:
		return "oracle"
	case SourcePrimaryFeed:
		return "primary"
	default:
		return "unknown"
	}
}

// Price is the unit price of one asset in USD.
type Price struct {
	Address string
	// Value is USD per whole asset.
	Value rational.Rational
	// Raw is USD base units per asset base unit.
	Raw    rational.Rational
	Source Source
}

// FromNumber converts a numeric price for t. With decimalDone the number is a final,
// human-readable USD price per whole asset; otherwise it is already in USD base units
// per whole asset.
func FromNumber(t tokenregistry.Token, n amount.Numberish, decimalDone bool) (Price, error) {
	r, err := amount.Parse(n)
	if err != nil {
		return Price{}, err
	}

	quoteUnits := r
	if decimalDone {
		quoteUnits = r.MulPow10(QuoteDecimals)
	}

	return Price{
		Address: t.Address,
		Value:   quoteUnits.DivPow10(QuoteDecimals),
		Raw:     quoteUnits.DivPow10(t.Decimals),
	}, nil
}

// UiValue renders the USD value with six decimals.
func (p Price) UiValue() string {
	return p.Value.ToFixed(int(QuoteDecimals))
}
