package points

import "testing"

func TestFlashLoanGuard(t *testing.T) {
	guard := FlashLoanGuard{MinHoldingBlocks: 10}
	if !guard.Allows(0, 5) {
		t.Fatalf("first checkpoint must always pass")
	}
	if guard.Allows(100, 105) {
		t.Fatalf("inside window must block")
	}
	if guard.Allows(100, 109) {
		t.Fatalf("one block short must block")
	}
	if !guard.Allows(100, 110) {
		t.Fatalf("exact boundary must pass")
	}
	if !guard.Allows(100, 200) {
		t.Fatalf("past window must pass")
	}
}

func TestFlashLoanGuardDisabled(t *testing.T) {
	guard := FlashLoanGuard{}
	if !guard.Allows(100, 100) {
		t.Fatalf("zero min holding disables the gate")
	}
}
