package amount

import (
	"fmt"
	"math/big"

	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
	"github.com/defistate/assetregistry-client-go/rational"
)

// TokenLookup finds descriptors by address. *registry.Registry implements it.
type TokenLookup interface {
	GetByAddress(address string) (tokenregistry.Token, bool)
}

// Converter runs the conversions against descriptors looked up by address.
// Unknown addresses fail with ErrAssetNotFound; decimals are never defaulted.
type Converter struct {
	lookup TokenLookup
}

// NewConverter returns a Converter resolving descriptors through lookup.
func NewConverter(lookup TokenLookup) *Converter {
	return &Converter{lookup: lookup}
}

// Token returns the descriptor for address.
func (c *Converter) Token(address string) (tokenregistry.Token, error) {
	t, ok := c.lookup.GetByAddress(address)
	if !ok {
		return tokenregistry.Token{}, fmt.Errorf("%w: %s", ErrAssetNotFound, address)
	}
	return t, nil
}

// DecimalAmount converts a UI amount of the asset at address into base units.
func (c *Converter) DecimalAmount(address string, uiAmount Numberish) (*big.Int, error) {
	t, err := c.Token(address)
	if err != nil {
		return nil, err
	}
	return ToBaseUnits(t, uiAmount)
}

// TokenAmount wraps amount for the asset at address. With decimalDone the amount is taken
// as already in base units; otherwise it is a UI amount and gets scaled and truncated.
func (c *Converter) TokenAmount(address string, amount Numberish, decimalDone bool) (TokenAmount, error) {
	t, err := c.Token(address)
	if err != nil {
		return TokenAmount{}, err
	}
	if decimalDone {
		return ToBaseUnitsFromFinalAmount(t, amount)
	}
	b, err := ToBaseUnits(t, amount)
	if err != nil {
		return TokenAmount{}, err
	}
	return TokenAmount{Token: t, Amount: rational.FromInt(b)}, nil
}

// UiAmount renders baseUnits of the asset at address.
func (c *Converter) UiAmount(address string, baseUnits Numberish) (string, error) {
	t, err := c.Token(address)
	if err != nil {
		return "", err
	}
	return ToUiAmount(t, baseUnits)
}

// UiAmountOrEmpty is UiAmount for display paths: any failure renders as "".
func (c *Converter) UiAmountOrEmpty(address string, baseUnits Numberish) string {
	s, err := c.UiAmount(address, baseUnits)
	if err != nil {
		return ""
	}
	return s
}

// UiAmountOrEmpty renders baseUnits of the asset at address, or "" when it cannot.
func UiAmountOrEmpty(lookup TokenLookup, address string, baseUnits Numberish) string {
	return NewConverter(lookup).UiAmountOrEmpty(address, baseUnits)
}
