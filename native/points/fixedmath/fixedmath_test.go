package fixedmath

import (
	"math/big"
	"testing"
)

func TestMulDiv(t *testing.T) {
	out, err := MulDiv(big.NewInt(10), big.NewInt(20), big.NewInt(4))
	if err != nil {
		t.Fatalf("muldiv: %v", err)
	}
	if out.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("muldiv: got %s want 50", out)
	}
	if _, err := MulDiv(big.NewInt(1), big.NewInt(1), big.NewInt(0)); err != ErrDivisionByZero {
		t.Fatalf("zero denom: got %v", err)
	}
	out, err = MulDiv(nil, big.NewInt(5), big.NewInt(1))
	if err != nil || out.Sign() != 0 {
		t.Fatalf("nil operand: got %s, %v", out, err)
	}
}

func TestMulBps(t *testing.T) {
	if got := MulBps(big.NewInt(1000), 5_000); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("half: got %s", got)
	}
	if got := MulBps(big.NewInt(3), 3_333); got.Sign() != 0 {
		t.Fatalf("truncation: got %s want 0", got)
	}
	if got := MulBps(nil, 5_000); got.Sign() != 0 {
		t.Fatalf("nil amount: got %s", got)
	}
}

func TestValidRate(t *testing.T) {
	if !ValidRate(big.NewInt(0)) || !ValidRate(Scale()) {
		t.Fatalf("safe rates rejected")
	}
	if ValidRate(nil) || ValidRate(big.NewInt(-1)) {
		t.Fatalf("invalid rates accepted")
	}
	huge := new(big.Int).Mul(Scale(), big.NewInt(2_000_000))
	if ValidRate(huge) {
		t.Fatalf("oversized rate accepted")
	}
}

func TestMin(t *testing.T) {
	if got := Min(big.NewInt(3), big.NewInt(5)); got.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("min: got %s", got)
	}
	if got := Min(big.NewInt(5), big.NewInt(3)); got.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("min reversed: got %s", got)
	}
	if got := Min(nil, big.NewInt(3)); got.Sign() != 0 {
		t.Fatalf("nil a: got %s", got)
	}
}
