package points

import (
	"math/big"
	"time"
)

// Module is the query surface every earning module exposes to the hub.
// GetPoints must not error for an address with no position; it returns zero.
type Module interface {
	GetPoints(addr [20]byte) (*big.Int, error)
	IsActive() bool
	ModuleName() string
}

// PenaltySource reports the outstanding penalty balance for an address.
type PenaltySource interface {
	GetPenalty(addr [20]byte) (*big.Int, error)
}

// Clock supplies the engine's view of time. Timestamps drive accrual maths
// while the block height feeds the flash-loan guard; both must be
// monotonically non-decreasing across calls.
type Clock interface {
	Now() time.Time
	BlockHeight() uint64
}

// SystemClock derives a block height from wall time so the engines can run
// outside a block-producing substrate. BlockInterval must be positive.
type SystemClock struct {
	BlockInterval time.Duration
}

func (c SystemClock) Now() time.Time { return time.Now().UTC() }

func (c SystemClock) BlockHeight() uint64 {
	interval := c.BlockInterval
	if interval <= 0 {
		interval = time.Second
	}
	return uint64(time.Now().UnixNano() / int64(interval))
}

// ManualClock is a deterministic clock for tests and simulations.
type ManualClock struct {
	Time  time.Time
	Block uint64
}

func (c *ManualClock) Now() time.Time      { return c.Time }
func (c *ManualClock) BlockHeight() uint64 { return c.Block }

// Advance moves the clock forward by the given duration and block count.
func (c *ManualClock) Advance(d time.Duration, blocks uint64) {
	c.Time = c.Time.Add(d)
	c.Block += blocks
}

// CopyAmount returns a defensive copy of the supplied amount, treating nil
// as zero so ledger call sites never propagate nil big integers.
func CopyAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
