// Package fixedmath holds the fixed-point arithmetic shared by the accrual
// engines. Points-per-share accumulators and exchange rates are carried at
// Scale (1e18); boost multipliers use basis points.
package fixedmath

import (
	"errors"
	"math/big"
)

const (
	scale    = int64(1_000_000_000_000_000_000)
	BpsDenom = 10_000
)

var (
	scaleBig = big.NewInt(scale)

	// maxSafeRate bounds configurable per-second rates so that
	// amount * rate * elapsed stays far inside big.Int practicality and a
	// misconfigured rate is caught at set time rather than during accrual.
	maxSafeRate = new(big.Int).Mul(scaleBig, big.NewInt(1_000_000))

	ErrDivisionByZero = errors.New("fixedmath: division by zero")
)

// Scale returns the 1e18 fixed-point scaling factor as a fresh big.Int.
func Scale() *big.Int {
	return new(big.Int).Set(scaleBig)
}

// MulDiv computes a*b/denom without intermediate overflow. denom must be
// nonzero.
func MulDiv(a, b, denom *big.Int) (*big.Int, error) {
	if denom == nil || denom.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	if a == nil || b == nil {
		return big.NewInt(0), nil
	}
	out := new(big.Int).Mul(a, b)
	return out.Quo(out, denom), nil
}

// MulBps applies a basis-point fraction to the amount, truncating.
func MulBps(amount *big.Int, bps uint64) *big.Int {
	if amount == nil || amount.Sign() == 0 || bps == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return out.Quo(out, big.NewInt(BpsDenom))
}

// ValidRate reports whether a configured per-second rate is inside the safe
// envelope. Rates outside it must be rejected when set.
func ValidRate(rate *big.Int) bool {
	if rate == nil || rate.Sign() < 0 {
		return false
	}
	return rate.Cmp(maxSafeRate) <= 0
}

// Min returns a copy of the smaller of a and b.
func Min(a, b *big.Int) *big.Int {
	if a == nil {
		return new(big.Int)
	}
	if b == nil || a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
