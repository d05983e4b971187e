package creditcard

import (
	"math/big"

	"pointshub/native/points"
	"pointshub/native/points/fixedmath"
)

// DefaultPenaltyBps halves the points a position earned when it exits
// early, scaled down further by how much of the lock already elapsed.
const DefaultPenaltyBps = uint64(5_000)

// PenaltyOutcome reports the deduction applied on an early exit.
type PenaltyOutcome struct {
	Theoretical *big.Int
	Applied     *big.Int
	WasCapped   bool
	Early       bool
}

// earlyExitPenalty computes the theoretical deduction for closing pos at
// now. Flexible positions and locks past their end carry no penalty. The
// theoretical value scales the position's lifetime earnings by the
// remaining fraction of the lock and the configured penalty fraction.
func earlyExitPenalty(pos *Position, earnedSinceEntry *big.Int, now uint64, penaltyBps uint64) *big.Int {
	if pos.Kind != KindLocked || now >= pos.LockEnd {
		return big.NewInt(0)
	}
	totalLockSeconds := pos.LockDays * secondsPerDay
	if totalLockSeconds == 0 || earnedSinceEntry == nil || earnedSinceEntry.Sign() <= 0 {
		return big.NewInt(0)
	}
	remaining := pos.LockEnd - now
	scaled := new(big.Int).Mul(earnedSinceEntry, new(big.Int).SetUint64(remaining))
	scaled.Quo(scaled, new(big.Int).SetUint64(totalLockSeconds))
	return fixedmath.MulBps(scaled, penaltyBps)
}

// applyPenalty caps the theoretical deduction at the realized balance so
// the ledger can never underflow, flagging the shortfall.
func applyPenalty(realized, theoretical *big.Int) PenaltyOutcome {
	applied := fixedmath.Min(theoretical, realized)
	return PenaltyOutcome{
		Theoretical: points.CopyAmount(theoretical),
		Applied:     applied,
		WasCapped:   applied.Cmp(theoretical) < 0,
		Early:       theoretical.Sign() > 0,
	}
}
