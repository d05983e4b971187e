package creditcard

import (
	"pointshub/native/points"
	"pointshub/native/points/fixedmath"
)

// BoostScale is the fixed denominator for boost multipliers: 10_000 is the
// base 1x multiplier.
const BoostScale = uint64(fixedmath.BpsDenom)

// BoostSchedule maps a lock commitment in days to a weight multiplier.
// Below MinLockDays the base multiplier applies; between MinLockDays and
// MaxLockDays the extra grows linearly with the committed days; beyond
// MaxLockDays the schedule tops out.
type BoostSchedule struct {
	MinLockDays uint64
	MaxLockDays uint64
	MaxExtraBps uint64
}

// DefaultBoostSchedule locks between one week and one year for up to a 2x
// multiplier at the full year.
func DefaultBoostSchedule() BoostSchedule {
	return BoostSchedule{MinLockDays: 7, MaxLockDays: 365, MaxExtraBps: BoostScale}
}

// Boost returns the multiplier for the given lock length, clamping
// out-of-range inputs. Too-short locks fall back to the base multiplier,
// which stake entry interprets as "not locked"; too-long locks earn the
// maximum.
func (s BoostSchedule) Boost(lockDays uint64) uint64 {
	if lockDays < s.MinLockDays {
		return BoostScale
	}
	if lockDays > s.MaxLockDays {
		lockDays = s.MaxLockDays
	}
	if s.MaxLockDays == 0 {
		return BoostScale
	}
	return BoostScale + lockDays*s.MaxExtraBps/s.MaxLockDays
}

// BoostStrict is the rejecting variant used by explicit boost queries,
// where silent clamping would hide a caller mistake.
func (s BoostSchedule) BoostStrict(lockDays uint64) (uint64, error) {
	if lockDays < s.MinLockDays || lockDays > s.MaxLockDays {
		return 0, points.ErrLockDurationRange
	}
	return s.Boost(lockDays), nil
}
