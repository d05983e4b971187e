// Package creditcard implements the successor accrual engine for the
// staking module. Every position earns amount x boost x rate x elapsed
// with no shared denominator, so no entrant ever dilutes another
// position's rate. The name comes from the billing model: each position
// runs its own tab.
package creditcard

import (
	"fmt"
	"math/big"

	"pointshub/core/events"
	"pointshub/native/points"
	"pointshub/native/points/fixedmath"
)

const secondsPerDay = uint64(24 * 60 * 60)

// DefaultMaxPositions caps how many positions one owner may ever open.
// Slots are not recycled after an exit; the cap is a lifetime cap.
const DefaultMaxPositions = 64

// Account is the per-owner staking record: the append-only position arena
// plus the realized point balance.
type Account struct {
	Positions           []*Position
	PointsEarned        *big.Int
	LastCheckpointBlock uint64
}

// Clone produces a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := &Account{
		PointsEarned:        points.CopyAmount(a.PointsEarned),
		LastCheckpointBlock: a.LastCheckpointBlock,
	}
	out.Positions = make([]*Position, len(a.Positions))
	for i, pos := range a.Positions {
		out.Positions[i] = pos.Clone()
	}
	return out
}

func (a *Account) normalize() *Account {
	if a.PointsEarned == nil {
		a.PointsEarned = big.NewInt(0)
	}
	for _, pos := range a.Positions {
		pos.normalize()
	}
	return a
}

// State is the persistence surface for the staking engine. Unknown owners
// yield empty accounts, not errors.
type State interface {
	StakeAccount(module string, owner [20]byte) (*Account, error)
	SetStakeAccount(module string, owner [20]byte, account *Account) error
	StakeActive(module string) (bool, error)
	SetStakeActive(module string, active bool) error
	AppendEvent(evt events.Event)
}

// Config fixes the engine parameters at construction. The rate is not
// mutable at runtime: position pending maths assume a constant rate since
// each baseline.
type Config struct {
	RatePerSecond *big.Int
	Schedule      BoostSchedule
	MaxPositions  int
	PenaltyBps    uint64
}

// StakeResult reports a newly opened position.
type StakeResult struct {
	Slot    uint64
	Boosted *big.Int
	LockEnd uint64
}

// UnstakeResult reports a closed position and its penalty outcome.
type UnstakeResult struct {
	Realized *big.Int
	Penalty  PenaltyOutcome
}

// CheckpointResult reports a checkpoint attempt.
type CheckpointResult struct {
	Credited bool
	Amount   *big.Int
}

// Engine drives the credit-card staking module.
type Engine struct {
	name  string
	st    State
	clock points.Clock
	guard points.FlashLoanGuard
	cfg   Config
}

// NewEngine validates the configuration and wires the engine.
func NewEngine(name string, st State, clock points.Clock, guard points.FlashLoanGuard, cfg Config) (*Engine, error) {
	if !fixedmath.ValidRate(cfg.RatePerSecond) {
		return nil, points.ErrRateOutOfRange
	}
	if cfg.MaxPositions <= 0 {
		cfg.MaxPositions = DefaultMaxPositions
	}
	if cfg.PenaltyBps == 0 {
		cfg.PenaltyBps = DefaultPenaltyBps
	}
	if cfg.Schedule == (BoostSchedule{}) {
		cfg.Schedule = DefaultBoostSchedule()
	}
	return &Engine{name: name, st: st, clock: clock, guard: guard, cfg: cfg}, nil
}

// ModuleName implements points.Module.
func (e *Engine) ModuleName() string { return e.name }

// IsActive implements points.Module.
func (e *Engine) IsActive() bool {
	active, err := e.st.StakeActive(e.name)
	return err == nil && active
}

// SetActive toggles the module. Accrual maths are per-position and keep
// running regardless; the flag gates new stakes and hub aggregation.
func (e *Engine) SetActive(active bool) error {
	return e.st.SetStakeActive(e.name, active)
}

// Boost exposes the strict schedule lookup for explicit queries.
func (e *Engine) Boost(lockDays uint64) (uint64, error) {
	return e.cfg.Schedule.BoostStrict(lockDays)
}

func (e *Engine) loadAccount(owner [20]byte) (*Account, error) {
	account, err := e.st.StakeAccount(e.name, owner)
	if err != nil {
		return nil, fmt.Errorf("creditcard: load account: %w", err)
	}
	if account == nil {
		account = &Account{}
	}
	return account.normalize(), nil
}

// pendingSince computes a position's unrealized points from its baseline
// to now, splitting the interval at lock expiry: the locked boost applies
// only up to LockEnd, base weight afterwards.
func (e *Engine) pendingSince(pos *Position, now uint64) *big.Int {
	if !pos.Active || now <= pos.Baseline {
		return big.NewInt(0)
	}
	boostedSeconds := uint64(0)
	baseSeconds := now - pos.Baseline
	if pos.Kind == KindLocked && pos.Baseline < pos.LockEnd {
		if now <= pos.LockEnd {
			boostedSeconds = now - pos.Baseline
		} else {
			boostedSeconds = pos.LockEnd - pos.Baseline
		}
		baseSeconds -= boostedSeconds
	}
	pending := big.NewInt(0)
	if boostedSeconds > 0 {
		part := new(big.Int).Mul(pos.BoostedAmount, e.cfg.RatePerSecond)
		part.Mul(part, new(big.Int).SetUint64(boostedSeconds))
		part.Quo(part, fixedmath.Scale())
		pending.Add(pending, part)
	}
	if baseSeconds > 0 {
		part := new(big.Int).Mul(pos.Amount, e.cfg.RatePerSecond)
		part.Mul(part, new(big.Int).SetUint64(baseSeconds))
		part.Quo(part, fixedmath.Scale())
		pending.Add(pending, part)
	}
	return pending
}

// GetPoints implements points.Module: realized balance plus every active
// position's pending points.
func (e *Engine) GetPoints(owner [20]byte) (*big.Int, error) {
	account, err := e.loadAccount(owner)
	if err != nil {
		return nil, err
	}
	now := uint64(e.clock.Now().UTC().Unix())
	total := points.CopyAmount(account.PointsEarned)
	for _, pos := range account.Positions {
		total.Add(total, e.pendingSince(pos, now))
	}
	return total, nil
}

// Stake opens a new position. Lock commitments shorter than the schedule
// minimum are accepted as flexible stakes rather than rejected.
func (e *Engine) Stake(owner [20]byte, amount *big.Int, lockDays uint64) (StakeResult, error) {
	if owner == ([20]byte{}) {
		return StakeResult{}, points.ErrZeroAddress
	}
	active, err := e.st.StakeActive(e.name)
	if err != nil {
		return StakeResult{}, err
	}
	if !active {
		return StakeResult{}, points.ErrModuleInactive
	}
	account, err := e.loadAccount(owner)
	if err != nil {
		return StakeResult{}, err
	}
	if len(account.Positions) >= e.cfg.MaxPositions {
		return StakeResult{}, points.ErrPositionCapSpent
	}

	now := uint64(e.clock.Now().UTC().Unix())
	kind := KindFlexible
	lockEnd := uint64(0)
	boostBps := BoostScale
	if lockDays >= e.cfg.Schedule.MinLockDays {
		kind = KindLocked
		boostBps = e.cfg.Schedule.Boost(lockDays)
		if lockDays > e.cfg.Schedule.MaxLockDays {
			lockDays = e.cfg.Schedule.MaxLockDays
		}
		lockEnd = now + lockDays*secondsPerDay
	} else {
		lockDays = 0
	}

	pos, err := newPosition(amount, boostBps, now, lockEnd, lockDays, kind)
	if err != nil {
		return StakeResult{}, err
	}
	account.Positions = append(account.Positions, pos)
	slot := uint64(len(account.Positions) - 1)
	if err := e.st.SetStakeAccount(e.name, owner, account); err != nil {
		return StakeResult{}, err
	}
	e.st.AppendEvent(events.PositionOpened{
		Module:   e.name,
		Owner:    owner,
		Slot:     slot,
		Amount:   points.CopyAmount(pos.Amount),
		Boosted:  points.CopyAmount(pos.BoostedAmount),
		LockDays: pos.LockDays,
		LockEnd:  pos.LockEnd,
	})
	return StakeResult{Slot: slot, Boosted: points.CopyAmount(pos.BoostedAmount), LockEnd: pos.LockEnd}, nil
}

// Unstake closes the position in the given slot. The position's pending
// points are realized exactly, then the early-exit penalty (if the lock
// has not expired) is deducted, capped at the realized balance.
func (e *Engine) Unstake(owner [20]byte, slot uint64) (UnstakeResult, error) {
	if owner == ([20]byte{}) {
		return UnstakeResult{}, points.ErrZeroAddress
	}
	account, err := e.loadAccount(owner)
	if err != nil {
		return UnstakeResult{}, err
	}
	if slot >= uint64(len(account.Positions)) {
		return UnstakeResult{}, points.ErrIndexOutOfRange
	}
	pos := account.Positions[slot]
	if !pos.Active {
		return UnstakeResult{}, points.ErrPositionInactive
	}

	now := uint64(e.clock.Now().UTC().Unix())
	pending := e.pendingSince(pos, now)
	pos.Realized.Add(pos.Realized, pending)
	account.PointsEarned.Add(account.PointsEarned, pending)
	pos.Baseline = now
	pos.Active = false

	outcome := applyPenalty(account.PointsEarned, earlyExitPenalty(pos, pos.Realized, now, e.cfg.PenaltyBps))
	account.PointsEarned.Sub(account.PointsEarned, outcome.Applied)

	if err := e.st.SetStakeAccount(e.name, owner, account); err != nil {
		return UnstakeResult{}, err
	}
	e.st.AppendEvent(events.PositionClosed{
		Module:        e.name,
		Owner:         owner,
		Slot:          slot,
		Realized:      points.CopyAmount(pos.Realized),
		Penalty:       points.CopyAmount(outcome.Applied),
		PenaltyCapped: outcome.WasCapped,
		Early:         outcome.Early,
	})
	return UnstakeResult{Realized: points.CopyAmount(pos.Realized), Penalty: outcome}, nil
}

// Checkpoint realizes pending points across all of the owner's active
// positions, subject to the flash-loan guard. Blocked attempts re-arm the
// guard clock and leave every baseline untouched, so the pending value is
// deferred rather than lost.
func (e *Engine) Checkpoint(owner [20]byte) (CheckpointResult, error) {
	if owner == ([20]byte{}) {
		return CheckpointResult{}, points.ErrZeroAddress
	}
	account, err := e.loadAccount(owner)
	if err != nil {
		return CheckpointResult{}, err
	}
	now := uint64(e.clock.Now().UTC().Unix())
	block := e.clock.BlockHeight()

	result := CheckpointResult{Amount: big.NewInt(0)}
	if e.guard.Allows(account.LastCheckpointBlock, block) {
		credited := big.NewInt(0)
		for _, pos := range account.Positions {
			pending := e.pendingSince(pos, now)
			if pending.Sign() == 0 {
				continue
			}
			pos.Realized.Add(pos.Realized, pending)
			pos.Baseline = now
			credited.Add(credited, pending)
		}
		account.PointsEarned.Add(account.PointsEarned, credited)
		result.Credited = true
		result.Amount = credited
	}
	account.LastCheckpointBlock = block

	if err := e.st.SetStakeAccount(e.name, owner, account); err != nil {
		return CheckpointResult{}, err
	}
	e.st.AppendEvent(events.StakeCheckpoint{
		Module:   e.name,
		User:     owner,
		Credited: result.Credited,
		Amount:   points.CopyAmount(result.Amount),
		Block:    block,
	})
	return result, nil
}

// CheckpointUsers applies Checkpoint to each owner, bounded by maxBatch.
func (e *Engine) CheckpointUsers(owners [][20]byte, maxBatch int) ([]CheckpointResult, error) {
	if maxBatch > 0 && len(owners) > maxBatch {
		return nil, points.ErrBatchTooLarge
	}
	results := make([]CheckpointResult, 0, len(owners))
	for _, owner := range owners {
		res, err := e.Checkpoint(owner)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// PositionInfo returns a defensive copy of one position for queries.
func (e *Engine) PositionInfo(owner [20]byte, slot uint64) (*Position, error) {
	account, err := e.loadAccount(owner)
	if err != nil {
		return nil, err
	}
	if slot >= uint64(len(account.Positions)) {
		return nil, points.ErrIndexOutOfRange
	}
	return account.Positions[slot].Clone(), nil
}
