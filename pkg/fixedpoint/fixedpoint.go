// Package fixedpoint provides checked integer arithmetic for balances and
// basis-point math. Products are widened to 128 bits before division so
// intermediate values never wrap.
package fixedpoint

import (
	"errors"
	"math"

	"lukechampine.com/uint128"
)

// BPS is the basis-point scale (10000 = 100%).
const BPS = 10000

var (
	// ErrOverflow is returned when a result does not fit in 64 bits.
	ErrOverflow = errors.New("fixedpoint: overflow")
	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = errors.New("fixedpoint: underflow")
	// ErrDivisionByZero is returned for a zero divisor.
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")
)

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrUnderflow.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// SaturatingSub returns a-b, or 0 when b > a.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// SaturatingAddInt64 returns a+b clamped to the int64 range.
func SaturatingAddInt64(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}

// Sum adds values with overflow checking.
func Sum(values ...uint64) (uint64, error) {
	var total uint64
	for _, v := range values {
		var err error
		if total, err = Add(total, v); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// MulDiv returns floor(a*b/d) computed on a 128-bit product.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	q := uint128.From64(a).Mul64(b).Div64(d)
	if q.Hi != 0 {
		return 0, ErrOverflow
	}
	return q.Lo, nil
}

// MulDivCeil returns ceil(a*b/d) computed on a 128-bit product.
func MulDivCeil(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	q, r := uint128.From64(a).Mul64(b).QuoRem64(d)
	if r != 0 {
		if q.Hi == math.MaxUint64 && q.Lo == math.MaxUint64 {
			return 0, ErrOverflow
		}
		q = q.Add64(1)
	}
	if q.Hi != 0 {
		return 0, ErrOverflow
	}
	return q.Lo, nil
}

// ApplyBps returns floor(amount*bps/BPS).
func ApplyBps(amount, bps uint64) (uint64, error) {
	return MulDiv(amount, bps, BPS)
}

// ApplyBpsCeil returns ceil(amount*bps/BPS).
func ApplyBpsCeil(amount, bps uint64) (uint64, error) {
	return MulDivCeil(amount, bps, BPS)
}

// Product returns the full 128-bit product a*b.
func Product(a, b uint64) uint128.Uint128 {
	return uint128.From64(a).Mul64(b)
}

// Min returns the smaller of a and b.
func Min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi uint64) uint64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
