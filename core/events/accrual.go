package events

import (
	"math/big"

	"pointshub/core/types"
)

const (
	// TypePoolCheckpoint records a checkpoint attempt against a
	// time-weighted pool, whether or not points were credited.
	TypePoolCheckpoint = "points.pool.checkpoint"
	// TypePenaltyApplied records an explicit deduction from a user's
	// realized balance.
	TypePenaltyApplied = "points.penalty.applied"
	// TypePositionOpened records a new staking position.
	TypePositionOpened = "points.position.opened"
	// TypePositionClosed records a position exit, including any early-exit
	// penalty.
	TypePositionClosed = "points.position.closed"
	// TypeStakeCheckpoint records a checkpoint attempt against the staking
	// module's positions.
	TypeStakeCheckpoint = "points.stake.checkpoint"
)

// PoolCheckpoint captures a single checkpoint attempt on a shared-pool
// module. Blocked attempts carry Credited=false and a zero amount.
type PoolCheckpoint struct {
	Module   string
	User     [20]byte
	Credited bool
	Amount   *big.Int
	Block    uint64
}

// EventType satisfies the Event interface.
func (PoolCheckpoint) EventType() string { return TypePoolCheckpoint }

// Event renders the attribute form.
func (e PoolCheckpoint) Event() *types.Event {
	return &types.Event{
		Type: TypePoolCheckpoint,
		Attributes: map[string]string{
			"module":   e.Module,
			"user":     formatAddr(e.User),
			"credited": boolToString(e.Credited),
			"amount":   formatAmount(e.Amount),
			"block":    uintToString(e.Block),
		},
	}
}

// PenaltyApplied captures a bounded deduction against realized points.
type PenaltyApplied struct {
	Module    string
	User      [20]byte
	Requested *big.Int
	Applied   *big.Int
	WasCapped bool
}

// EventType satisfies the Event interface.
func (PenaltyApplied) EventType() string { return TypePenaltyApplied }

// Event renders the attribute form.
func (e PenaltyApplied) Event() *types.Event {
	return &types.Event{
		Type: TypePenaltyApplied,
		Attributes: map[string]string{
			"module":    e.Module,
			"user":      formatAddr(e.User),
			"requested": formatAmount(e.Requested),
			"applied":   formatAmount(e.Applied),
			"capped":    boolToString(e.WasCapped),
		},
	}
}

// PositionOpened captures a stake entry on the credit-card module.
type PositionOpened struct {
	Module   string
	Owner    [20]byte
	Slot     uint64
	Amount   *big.Int
	Boosted  *big.Int
	LockDays uint64
	LockEnd  uint64
}

// EventType satisfies the Event interface.
func (PositionOpened) EventType() string { return TypePositionOpened }

// Event renders the attribute form.
func (e PositionOpened) Event() *types.Event {
	return &types.Event{
		Type: TypePositionOpened,
		Attributes: map[string]string{
			"module":   e.Module,
			"owner":    formatAddr(e.Owner),
			"slot":     uintToString(e.Slot),
			"amount":   formatAmount(e.Amount),
			"boosted":  formatAmount(e.Boosted),
			"lockDays": uintToString(e.LockDays),
			"lockEnd":  uintToString(e.LockEnd),
		},
	}
}

// PositionClosed captures a stake exit, including the penalty outcome for
// early exits from locked positions.
type PositionClosed struct {
	Module        string
	Owner         [20]byte
	Slot          uint64
	Realized      *big.Int
	Penalty       *big.Int
	PenaltyCapped bool
	Early         bool
}

// EventType satisfies the Event interface.
func (PositionClosed) EventType() string { return TypePositionClosed }

// Event renders the attribute form.
func (e PositionClosed) Event() *types.Event {
	return &types.Event{
		Type: TypePositionClosed,
		Attributes: map[string]string{
			"module":        e.Module,
			"owner":         formatAddr(e.Owner),
			"slot":          uintToString(e.Slot),
			"realized":      formatAmount(e.Realized),
			"penalty":       formatAmount(e.Penalty),
			"penaltyCapped": boolToString(e.PenaltyCapped),
			"early":         boolToString(e.Early),
		},
	}
}

// StakeCheckpoint captures a checkpoint attempt on the credit-card module.
type StakeCheckpoint struct {
	Module   string
	User     [20]byte
	Credited bool
	Amount   *big.Int
	Block    uint64
}

// EventType satisfies the Event interface.
func (StakeCheckpoint) EventType() string { return TypeStakeCheckpoint }

// Event renders the attribute form.
func (e StakeCheckpoint) Event() *types.Event {
	return &types.Event{
		Type: TypeStakeCheckpoint,
		Attributes: map[string]string{
			"module":   e.Module,
			"user":     formatAddr(e.User),
			"credited": boolToString(e.Credited),
			"amount":   formatAmount(e.Amount),
			"block":    uintToString(e.Block),
		},
	}
}
