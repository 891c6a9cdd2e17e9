// Package numeric implements exact rational amounts scaled to a commodity fraction.
//
// A Value is a numerator/denominator pair. The denominator is normally the
// fraction of the commodity the amount is expressed in (100 for a currency
// with cents). Arithmetic between values is exact; rounding only happens when
// a decimal or the result of a price conversion is scaled to a fraction, and it
// always uses banker's rounding (round half to even).
package numeric

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// divisionPrecision is the number of decimal places kept when an exact
// quotient is not representable before the final rounding step.
const divisionPrecision = 20

// MaxDecimals is the largest number of decimal places ParseExact accepts.
// 10^18 is the largest power of ten an int64 denominator holds.
const MaxDecimals = 18

// ErrOverflow is returned when a numerator or denominator does not fit in
// 64 bits.
var ErrOverflow = errors.New("amount out of range")

// Value is an exact rational amount. A zero Denom marks an unset value.
type Value struct {
	Num   int64 `gorm:"column:num;not null;default:0" json:"num"`
	Denom int64 `gorm:"column:denom;not null;default:0" json:"denom"`
}

// New reconstructs a value from a stored numerator and denominator.
func New(num, denom int64) Value {
	if denom < 0 {
		return Value{Num: -num, Denom: -denom}
	}
	return Value{Num: num, Denom: denom}
}

// Zero returns the zero amount in the given fraction.
func Zero(fraction int64) Value {
	return Value{Num: 0, Denom: fraction}
}

// FromInt returns n whole units in the given fraction.
func FromInt(n, fraction int64) Value {
	return Value{Num: n * fraction, Denom: fraction}
}

// Parse reads a decimal literal and rounds it to the given fraction.
func Parse(s string, fraction int64) (Value, error) {
	if fraction <= 0 {
		return Value{}, fmt.Errorf("invalid fraction %d", fraction)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d, fraction)
}

// MustParse is like Parse but panics on error. Use only in tests.
func MustParse(s string, fraction int64) Value {
	v, err := Parse(s, fraction)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseExact reads a decimal literal without rounding. The denominator is the
// smallest power of ten that holds every digit given.
func ParseExact(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if -d.Exponent() > MaxDecimals {
		return Value{}, fmt.Errorf("%w: %q has more than %d decimals", ErrOverflow, s, MaxDecimals)
	}
	fraction := int64(1)
	for i := int32(0); i < -d.Exponent(); i++ {
		fraction *= 10
	}
	return FromDecimal(d, fraction)
}

// FromDecimal scales d to the given fraction with banker's rounding. It fails
// with ErrOverflow when the scaled numerator does not fit in an int64.
func FromDecimal(d decimal.Decimal, fraction int64) (Value, error) {
	scaled := d.Mul(decimal.NewFromInt(fraction)).RoundBank(0)
	if !scaled.BigInt().IsInt64() {
		return Value{}, fmt.Errorf("%w: %s in fraction %d", ErrOverflow, d.String(), fraction)
	}
	return Value{Num: scaled.IntPart(), Denom: fraction}, nil
}

// IsSet reports whether the value carries a denominator.
func (v Value) IsSet() bool { return v.Denom != 0 }

// IsZero reports whether the value is zero. An unset value is zero.
func (v Value) IsZero() bool { return v.Num == 0 }

// Sign returns -1, 0 or +1.
func (v Value) Sign() int {
	switch {
	case v.Num < 0:
		return -1
	case v.Num > 0:
		return 1
	default:
		return 0
	}
}

// Neg returns -v.
func (v Value) Neg() Value { return Value{Num: -v.Num, Denom: v.Denom} }

// Add returns v + o. An unset operand counts as zero. The result fails with
// ErrOverflow instead of wrapping around.
func (v Value) Add(o Value) (Value, error) {
	if !o.IsSet() {
		return v, nil
	}
	if !v.IsSet() {
		return o, nil
	}
	if v.Denom == o.Denom {
		n, ok := addInt64(v.Num, o.Num)
		if !ok {
			return Value{}, overflow("add", v, o)
		}
		return Value{Num: n, Denom: v.Denom}, nil
	}
	l, ok := lcm(v.Denom, o.Denom)
	if !ok {
		return Value{}, overflow("add", v, o)
	}
	a, ok1 := mulInt64(v.Num, l/v.Denom)
	b, ok2 := mulInt64(o.Num, l/o.Denom)
	n, ok3 := addInt64(a, b)
	if !ok1 || !ok2 || !ok3 {
		return Value{}, overflow("add", v, o)
	}
	return Value{Num: n, Denom: l}, nil
}

// Sub returns v - o.
func (v Value) Sub(o Value) (Value, error) {
	if o.Num == math.MinInt64 {
		return Value{}, overflow("subtract", v, o)
	}
	return v.Add(o.Neg())
}

// Cmp compares v and o and returns -1, 0 or +1. It cross-multiplies in
// arbitrary precision and never overflows.
func (v Value) Cmp(o Value) int {
	vd, od := v.Denom, o.Denom
	if vd == 0 {
		vd = 1
	}
	if od == 0 {
		od = 1
	}
	left := new(big.Int).Mul(big.NewInt(v.Num), big.NewInt(od))
	right := new(big.Int).Mul(big.NewInt(o.Num), big.NewInt(vd))
	return left.Cmp(right)
}

// Equal reports whether v and o denote the same amount.
func (v Value) Equal(o Value) bool {
	if v.IsSet() != o.IsSet() {
		return false
	}
	return v.Cmp(o) == 0
}

// Decimal converts the value to a decimal.
func (v Value) Decimal() decimal.Decimal {
	if !v.IsSet() {
		return decimal.Zero
	}
	if exp, ok := powerOfTen(v.Denom); ok {
		return decimal.New(v.Num, -exp)
	}
	return decimal.NewFromInt(v.Num).DivRound(decimal.NewFromInt(v.Denom), divisionPrecision)
}

// Rescale expresses v in the given fraction, rounding half to even.
func (v Value) Rescale(fraction int64) (Value, error) {
	if v.Denom == fraction || !v.IsSet() {
		return Value{Num: v.Num, Denom: fraction}, nil
	}
	if fraction%v.Denom == 0 {
		n, ok := mulInt64(v.Num, fraction/v.Denom)
		if !ok {
			return Value{}, fmt.Errorf("%w: %s in fraction %d", ErrOverflow, v, fraction)
		}
		return Value{Num: n, Denom: fraction}, nil
	}
	q := decimal.NewFromInt(v.Num).Mul(decimal.NewFromInt(fraction)).
		DivRound(decimal.NewFromInt(v.Denom), divisionPrecision).RoundBank(0)
	if !q.BigInt().IsInt64() {
		return Value{}, fmt.Errorf("%w: %s in fraction %d", ErrOverflow, v, fraction)
	}
	return Value{Num: q.IntPart(), Denom: fraction}, nil
}

// Mul returns v * o expressed in the given fraction.
func (v Value) Mul(o Value, fraction int64) (Value, error) {
	return FromDecimal(v.Decimal().Mul(o.Decimal()), fraction)
}

// Div returns v / o expressed in the given fraction. o must not be zero.
func (v Value) Div(o Value, fraction int64) (Value, error) {
	return FromDecimal(v.Decimal().DivRound(o.Decimal(), divisionPrecision), fraction)
}

// String formats the value with as many decimals as its denominator implies.
func (v Value) String() string {
	if !v.IsSet() {
		return "<unset>"
	}
	if exp, ok := powerOfTen(v.Denom); ok {
		return decimal.New(v.Num, -exp).StringFixed(exp)
	}
	return fmt.Sprintf("%d/%d", v.Num, v.Denom)
}

func powerOfTen(n int64) (int32, bool) {
	var exp int32
	for n > 1 {
		if n%10 != 0 {
			return 0, false
		}
		n /= 10
		exp++
	}
	return exp, n == 1
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int64) (int64, bool) {
	return mulInt64(a/gcd(a, b), b)
}

func addInt64(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, false
	}
	return c, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}

func overflow(op string, v, o Value) error {
	return fmt.Errorf("%w: cannot %s %d/%d and %d/%d", ErrOverflow, op, v.Num, v.Denom, o.Num, o.Denom)
}
