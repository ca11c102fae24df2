// Package amount converts between human-readable UI amounts and the integer base units
// used on the ledger. Every computation is exact: literals are parsed into rationals,
// scaled by powers of ten and truncated toward zero. Floating point is never involved.
package amount

import (
	"errors"
	"fmt"
	"math/big"

	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
	"github.com/defistate/assetregistry-client-go/rational"
	"github.com/defistate/assetregistry-client-go/registry"
	"github.com/holiman/uint256"
)

var (
	// ErrInvalidAmountLiteral is returned for malformed or non-finite numeric inputs.
	ErrInvalidAmountLiteral = rational.ErrInvalidLiteral
	// ErrAssetNotFound is returned when a converter cannot find the asset's descriptor.
	ErrAssetNotFound = registry.ErrAssetNotFound
	// ErrAmountOutOfRange is returned when a base-unit amount does not fit an unsigned 256-bit integer.
	ErrAmountOutOfRange = errors.New("amount out of uint256 range")
)

// TokenAmount is an amount of one asset expressed in base units. Amount may carry a
// fractional part until it is truncated by Raw.
type TokenAmount struct {
	Token  tokenregistry.Token
	Amount rational.Rational
}

// Raw returns the base-unit integer, truncated toward zero.
func (a TokenAmount) Raw() *big.Int {
	return a.Amount.Trunc()
}

// UiAmount renders the amount in whole units with the asset's decimals.
func (a TokenAmount) UiAmount() string {
	return ui(a.Token, a.Amount)
}

// ToBaseUnits multiplies uiAmount by 10^decimals and truncates toward zero.
// The sign of the input is preserved.
func ToBaseUnits(t tokenregistry.Token, uiAmount Numberish) (*big.Int, error) {
	r, err := Parse(uiAmount)
	if err != nil {
		return nil, err
	}
	return r.MulPow10(t.Decimals).Trunc(), nil
}

// ToBaseUnitsU256 is ToBaseUnits for callers building ledger instructions.
// Negative amounts and amounts wider than 256 bits fail with ErrAmountOutOfRange.
func ToBaseUnitsU256(t tokenregistry.Token, uiAmount Numberish) (*uint256.Int, error) {
	b, err := ToBaseUnits(t, uiAmount)
	if err != nil {
		return nil, err
	}
	if b.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount %s", ErrAmountOutOfRange, b)
	}
	u, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrAmountOutOfRange, b)
	}
	return u, nil
}

// ToBaseUnitsFromFinalAmount parses an amount already expressed in base units and wraps it
// without scaling.
func ToBaseUnitsFromFinalAmount(t tokenregistry.Token, finalAmount Numberish) (TokenAmount, error) {
	r, err := Parse(finalAmount)
	if err != nil {
		return TokenAmount{}, err
	}
	return TokenAmount{Token: t, Amount: r}, nil
}

// ToUiAmount divides baseUnits by 10^decimals and renders exactly decimals fractional digits,
// truncating anything beyond.
func ToUiAmount(t tokenregistry.Token, baseUnits Numberish) (string, error) {
	r, err := Parse(baseUnits)
	if err != nil {
		return "", err
	}
	return ui(t, r), nil
}

func ui(t tokenregistry.Token, baseUnits rational.Rational) string {
	return baseUnits.DivPow10(t.Decimals).ToFixed(int(t.Decimals))
}
