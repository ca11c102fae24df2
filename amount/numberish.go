package amount

import (
	"fmt"
	"math/big"

	"github.com/defistate/assetregistry-client-go/rational"
)

// Numberish is a numeric literal accepted by the converters. The set of variants is closed:
// Str, Float, Int and Frac.
type Numberish interface {
	numberish()
}

// Str is a plain decimal literal such as "1.5" or "-0.000001".
type Str string

// Float is converted through its shortest decimal representation.
type Float float64

// Int is an arbitrary-precision integer.
type Int struct {
	*big.Int
}

// Frac is an exact rational.
type Frac struct {
	rational.Rational
}

func (Str) numberish()   {}
func (Float) numberish() {}
func (Int) numberish()   {}
func (Frac) numberish()  {}

// Parse converts n into an exact rational. Malformed or non-finite literals fail with
// ErrInvalidAmountLiteral.
func Parse(n Numberish) (rational.Rational, error) {
	switch v := n.(type) {
	case Str:
		// ParseDecimal's error already wraps ErrInvalidAmountLiteral
		return rational.ParseDecimal(string(v))
	case Float:
		r, err := rational.FromFloat(float64(v))
		if err != nil {
			return rational.Rational{}, fmt.Errorf("%w: %w", ErrInvalidAmountLiteral, err)
		}
		return r, nil
	case Int:
		if v.Int == nil {
			return rational.Rational{}, fmt.Errorf("%w: nil integer", ErrInvalidAmountLiteral)
		}
		return rational.FromInt(v.Int), nil
	case Frac:
		return v.Rational, nil
	case nil:
		return rational.Rational{}, fmt.Errorf("%w: missing amount", ErrInvalidAmountLiteral)
	default:
		return rational.Rational{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmountLiteral, n)
	}
}
