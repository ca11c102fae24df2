// Package rational provides an exact rational number used for every money computation.
// Values never pass through binary floating point: literals are parsed digit by digit
// and every division exposed to callers truncates toward zero with an explicit precision.
package rational

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidLiteral is returned when a numeric literal is not a plain decimal number.
	ErrInvalidLiteral = errors.New("invalid decimal literal")
	// ErrZeroDenominator is returned when a rational would end up with a zero denominator.
	ErrZeroDenominator = errors.New("zero denominator")
	// ErrNotFinite is returned for NaN and infinite floats.
	ErrNotFinite = errors.New("number is not finite")
)

var (
	ten = big.NewInt(10)

	// precomputed 10^n for the common token decimals (0..18)
	precomputedScales [19]*big.Int
)

func init() {
	precomputedScales[0] = big.NewInt(1)
	for i := 1; i < len(precomputedScales); i++ {
		precomputedScales[i] = new(big.Int).Mul(precomputedScales[i-1], ten)
	}
}

// Pow10 returns 10^n. The returned *big.Int MUST NOT be modified.
func Pow10(n uint8) *big.Int {
	return scale(int(n))
}

func scale(n int) *big.Int {
	if n < len(precomputedScales) {
		return precomputedScales[n]
	}
	// rare path, allocated fresh
	return new(big.Int).Exp(ten, big.NewInt(int64(n)), nil)
}

// Rational is an immutable fraction num/den with den > 0. It is not kept in lowest
// terms between operations; use Reduce when a canonical form is needed.
// The zero value is 0/1.
type Rational struct {
	num *big.Int
	den *big.Int
}

// New builds num/den. The inputs are copied.
func New(num, den *big.Int) (Rational, error) {
	if den == nil || den.Sign() == 0 {
		return Rational{}, ErrZeroDenominator
	}
	n := new(big.Int)
	if num != nil {
		n.Set(num)
	}
	d := new(big.Int).Set(den)
	if d.Sign() < 0 {
		n.Neg(n)
		d.Neg(d)
	}
	return Rational{num: n, den: d}, nil
}

// FromInt returns x/1. x is copied.
func FromInt(x *big.Int) Rational {
	n := new(big.Int)
	if x != nil {
		n.Set(x)
	}
	return Rational{num: n, den: big.NewInt(1)}
}

// FromInt64 returns x/1.
func FromInt64(x int64) Rational {
	return Rational{num: big.NewInt(x), den: big.NewInt(1)}
}

// FromUint64 returns x/1.
func FromUint64(x uint64) Rational {
	return Rational{num: new(big.Int).SetUint64(x), den: big.NewInt(1)}
}

// ParseDecimal parses a plain decimal literal such as "12", "-0.5", ".25" or "3." into
// the exact fraction digits/10^fractionDigits. Exponents, separators and whitespace
// inside the literal are rejected.
func ParseDecimal(s string) (Rational, error) {
	lit := strings.TrimSpace(s)
	body := lit
	neg := false
	if body != "" && (body[0] == '-' || body[0] == '+') {
		neg = body[0] == '-'
		body = body[1:]
	}

	intPart, fracPart, hasDot := strings.Cut(body, ".")
	if intPart == "" && fracPart == "" {
		return Rational{}, fmt.Errorf("%w: %q", ErrInvalidLiteral, s)
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return Rational{}, fmt.Errorf("%w: %q", ErrInvalidLiteral, s)
	}
	if !hasDot {
		fracPart = ""
	}

	digits := intPart + fracPart
	num, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Rational{}, fmt.Errorf("%w: %q", ErrInvalidLiteral, s)
	}
	if neg {
		num.Neg(num)
	}
	return Rational{num: num, den: new(big.Int).Set(scale(len(fracPart)))}, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FromFloat converts f through its shortest decimal representation, the same digits
// a human would read back from the number, so 0.1 becomes exactly 1/10.
func FromFloat(f float64) (Rational, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Rational{}, fmt.Errorf("%w: %v", ErrNotFinite, f)
	}
	return FromDecimal(decimal.NewFromFloat(f)), nil
}

// FromDecimal returns the exact value coefficient*10^exponent of d.
func FromDecimal(d decimal.Decimal) Rational {
	num := d.Coefficient()
	exp := d.Exponent()
	if exp >= 0 {
		num.Mul(num, scale(int(exp)))
		return Rational{num: num, den: big.NewInt(1)}
	}
	return Rational{num: num, den: new(big.Int).Set(scale(int(-exp)))}
}

// ParseNumber parses a JSON number literal, exponent forms included, into its exact value.
// Use ParseDecimal for user-entered amounts.
func ParseNumber(s string) (Rational, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Rational{}, fmt.Errorf("%w: %q", ErrInvalidLiteral, s)
	}
	return FromDecimal(d), nil
}

func (r Rational) n() *big.Int {
	if r.num == nil {
		return new(big.Int)
	}
	return r.num
}

func (r Rational) d() *big.Int {
	if r.den == nil {
		return big.NewInt(1)
	}
	return r.den
}

// Num returns a copy of the numerator.
func (r Rational) Num() *big.Int { return new(big.Int).Set(r.n()) }

// Den returns a copy of the denominator.
func (r Rational) Den() *big.Int { return new(big.Int).Set(r.d()) }

// Add returns r + o.
func (r Rational) Add(o Rational) Rational {
	num := new(big.Int).Mul(r.n(), o.d())
	num.Add(num, new(big.Int).Mul(o.n(), r.d()))
	return Rational{num: num, den: new(big.Int).Mul(r.d(), o.d())}
}

// Sub returns r - o.
func (r Rational) Sub(o Rational) Rational {
	num := new(big.Int).Mul(r.n(), o.d())
	num.Sub(num, new(big.Int).Mul(o.n(), r.d()))
	return Rational{num: num, den: new(big.Int).Mul(r.d(), o.d())}
}

// Mul returns r * o.
func (r Rational) Mul(o Rational) Rational {
	return Rational{
		num: new(big.Int).Mul(r.n(), o.n()),
		den: new(big.Int).Mul(r.d(), o.d()),
	}
}

// Quo returns r / o.
func (r Rational) Quo(o Rational) (Rational, error) {
	if o.n().Sign() == 0 {
		return Rational{}, ErrZeroDenominator
	}
	return New(new(big.Int).Mul(r.n(), o.d()), new(big.Int).Mul(r.d(), o.n()))
}

// MulPow10 returns r * 10^n.
func (r Rational) MulPow10(n uint8) Rational {
	return Rational{num: new(big.Int).Mul(r.n(), Pow10(n)), den: new(big.Int).Set(r.d())}
}

// DivPow10 returns r / 10^n.
func (r Rational) DivPow10(n uint8) Rational {
	return Rational{num: new(big.Int).Set(r.n()), den: new(big.Int).Mul(r.d(), Pow10(n))}
}

// Trunc returns the integer part of r, truncated toward zero.
func (r Rational) Trunc() *big.Int {
	return new(big.Int).Quo(r.n(), r.d())
}

// Sign returns -1, 0 or +1.
func (r Rational) Sign() int { return r.n().Sign() }

// IsZero reports whether r == 0.
func (r Rational) IsZero() bool { return r.n().Sign() == 0 }

// Cmp compares r and o by value.
func (r Rational) Cmp(o Rational) int {
	left := new(big.Int).Mul(r.n(), o.d())
	right := new(big.Int).Mul(o.n(), r.d())
	return left.Cmp(right)
}

// Equal reports whether r and o denote the same number, regardless of representation.
func (r Rational) Equal(o Rational) bool { return r.Cmp(o) == 0 }

// Reduce returns r in lowest terms.
func (r Rational) Reduce() Rational {
	num, den := r.Num(), r.Den()
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(num), den)
	if g.Sign() == 0 || g.Cmp(big.NewInt(1)) == 0 {
		return Rational{num: num, den: den}
	}
	return Rational{num: num.Quo(num, g), den: den.Quo(den, g)}
}

// Rat returns r as a *big.Rat.
func (r Rational) Rat() *big.Rat {
	return new(big.Rat).SetFrac(r.n(), r.d())
}

// String renders "num/den", or just "num" for integers.
func (r Rational) String() string {
	if r.d().Cmp(big.NewInt(1)) == 0 {
		return r.n().String()
	}
	return r.n().String() + "/" + r.d().String()
}

// ToFixed renders r with exactly digits fractional digits. Digits beyond the requested
// precision are dropped, never rounded.
func (r Rational) ToFixed(digits int) string {
	if digits < 0 {
		digits = 0
	}
	q := new(big.Int).Mul(r.n(), scale(digits))
	q.Quo(q, r.d())

	neg := q.Sign() < 0
	s := q.Abs(q).String()
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

// ToSignificant renders r with at most sig significant digits, truncating toward zero
// and trimming trailing fractional zeros.
func (r Rational) ToSignificant(sig int) string {
	if sig < 1 {
		sig = 1
	}
	if r.IsZero() {
		return "0"
	}

	absNum := new(big.Int).Abs(r.n())
	den := r.d()
	intPart := new(big.Int).Quo(absNum, den)

	var s string
	if intPart.Sign() > 0 {
		intDigits := len(intPart.String())
		if intDigits >= sig {
			cut := scale(intDigits - sig)
			intPart.Quo(intPart, cut).Mul(intPart, cut)
			s = intPart.String()
		} else {
			s = trimFraction(Rational{num: absNum, den: den}.ToFixed(sig - intDigits))
		}
	} else {
		// position of the first significant fractional digit
		lead := len(den.String()) - len(absNum.String()) - 1
		if lead < 0 {
			lead = 0
		}
		trial := new(big.Int)
		for {
			trial.Mul(absNum, scale(lead+1))
			if trial.Cmp(den) >= 0 {
				break
			}
			lead++
		}
		s = trimFraction(Rational{num: absNum, den: den}.ToFixed(lead + sig))
	}

	if r.Sign() < 0 && s != "0" {
		s = "-" + s
	}
	return s
}

func trimFraction(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
