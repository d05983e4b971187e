// Package timeweighted implements the shared-denominator accrual engine
// used by the holding and liquidity modules. A single global
// points-per-share accumulator rolls forward lazily; each participant's
// earnings are the product of their boosted weight and the accumulator
// delta since their last credit. Because the denominator is shared, a
// large late entrant reduces the marginal rate of everyone already in the
// pool from that point on.
package timeweighted

import (
	"fmt"
	"math/big"
	"time"

	"pointshub/core/events"
	"pointshub/native/points"
	"pointshub/native/points/fixedmath"
)

// GlobalState is the pool-wide accumulator snapshot. It is owned by the
// engine and mutated only through engine operations.
type GlobalState struct {
	PointsPerShareStored *big.Int
	LastUpdateTime       uint64
	TotalBoostedStaked   *big.Int
	RatePerSecond        *big.Int
	Active               bool
}

// Clone produces a deep copy of the global state.
func (g *GlobalState) Clone() *GlobalState {
	if g == nil {
		return nil
	}
	return &GlobalState{
		PointsPerShareStored: points.CopyAmount(g.PointsPerShareStored),
		LastUpdateTime:       g.LastUpdateTime,
		TotalBoostedStaked:   points.CopyAmount(g.TotalBoostedStaked),
		RatePerSecond:        points.CopyAmount(g.RatePerSecond),
		Active:               g.Active,
	}
}

func (g *GlobalState) normalize() *GlobalState {
	if g.PointsPerShareStored == nil {
		g.PointsPerShareStored = big.NewInt(0)
	}
	if g.TotalBoostedStaked == nil {
		g.TotalBoostedStaked = big.NewInt(0)
	}
	if g.RatePerSecond == nil {
		g.RatePerSecond = big.NewInt(0)
	}
	return g
}

// UserLedger is the per-user accrual record.
type UserLedger struct {
	TotalBoostedAmount  *big.Int
	PointsPerSharePaid  *big.Int
	PointsEarned        *big.Int
	LastCheckpointBlock uint64
}

// Clone produces a deep copy of the ledger entry.
func (u *UserLedger) Clone() *UserLedger {
	if u == nil {
		return nil
	}
	return &UserLedger{
		TotalBoostedAmount:  points.CopyAmount(u.TotalBoostedAmount),
		PointsPerSharePaid:  points.CopyAmount(u.PointsPerSharePaid),
		PointsEarned:        points.CopyAmount(u.PointsEarned),
		LastCheckpointBlock: u.LastCheckpointBlock,
	}
}

func (u *UserLedger) normalize() *UserLedger {
	if u.TotalBoostedAmount == nil {
		u.TotalBoostedAmount = big.NewInt(0)
	}
	if u.PointsPerSharePaid == nil {
		u.PointsPerSharePaid = big.NewInt(0)
	}
	if u.PointsEarned == nil {
		u.PointsEarned = big.NewInt(0)
	}
	return u
}

// State is the persistence surface the engine requires. Implementations
// must return zero-valued records (not errors) for unknown users.
type State interface {
	PoolGlobal(module string) (*GlobalState, error)
	SetPoolGlobal(module string, global *GlobalState) error
	PoolUser(module string, addr [20]byte) (*UserLedger, error)
	SetPoolUser(module string, addr [20]byte, ledger *UserLedger) error
	AppendEvent(evt events.Event)
}

// CheckpointResult reports the outcome of a single checkpoint attempt.
type CheckpointResult struct {
	Credited bool
	Amount   *big.Int
}

// PenaltyResult reports an applied penalty deduction.
type PenaltyResult struct {
	Applied   *big.Int
	WasCapped bool
}

// Engine drives a single time-weighted pool instance. The name doubles as
// the module name reported to the hub and the state namespace.
type Engine struct {
	name  string
	st    State
	clock points.Clock
	guard points.FlashLoanGuard
}

// NewEngine wires a pool engine over the given state backend.
func NewEngine(name string, st State, clock points.Clock, guard points.FlashLoanGuard) *Engine {
	return &Engine{name: name, st: st, clock: clock, guard: guard}
}

// ModuleName implements points.Module.
func (e *Engine) ModuleName() string { return e.name }

// IsActive implements points.Module.
func (e *Engine) IsActive() bool {
	global, err := e.st.PoolGlobal(e.name)
	if err != nil || global == nil {
		return false
	}
	return global.Active
}

// pointsPerShare evaluates the accumulator lazily at ts without mutating
// state. An empty pool or an inactive module contributes no new accrual.
func pointsPerShare(global *GlobalState, ts uint64) *big.Int {
	stored := points.CopyAmount(global.PointsPerShareStored)
	if !global.Active || global.TotalBoostedStaked.Sign() == 0 || ts <= global.LastUpdateTime {
		return stored
	}
	elapsed := new(big.Int).SetUint64(ts - global.LastUpdateTime)
	accrued := new(big.Int).Mul(elapsed, global.RatePerSecond)
	accrued.Mul(accrued, fixedmath.Scale())
	accrued.Quo(accrued, global.TotalBoostedStaked)
	return stored.Add(stored, accrued)
}

// updateGlobal rolls the stored accumulator forward to now. Every mutation
// of rate, activity or supply must pass through here first so an elapsed
// interval is never re-priced under new parameters.
func (e *Engine) updateGlobal(global *GlobalState, now time.Time) {
	ts := uint64(now.UTC().Unix())
	global.PointsPerShareStored = pointsPerShare(global, ts)
	if ts > global.LastUpdateTime {
		global.LastUpdateTime = ts
	}
}

func (e *Engine) loadGlobal() (*GlobalState, error) {
	global, err := e.st.PoolGlobal(e.name)
	if err != nil {
		return nil, fmt.Errorf("timeweighted: load global: %w", err)
	}
	if global == nil {
		global = &GlobalState{}
	}
	return global.normalize(), nil
}

func (e *Engine) loadUser(addr [20]byte) (*UserLedger, error) {
	ledger, err := e.st.PoolUser(e.name, addr)
	if err != nil {
		return nil, fmt.Errorf("timeweighted: load user: %w", err)
	}
	if ledger == nil {
		ledger = &UserLedger{}
	}
	return ledger.normalize(), nil
}

func pendingFor(ledger *UserLedger, currentPerShare *big.Int) *big.Int {
	delta := new(big.Int).Sub(currentPerShare, ledger.PointsPerSharePaid)
	if delta.Sign() <= 0 || ledger.TotalBoostedAmount.Sign() == 0 {
		return big.NewInt(0)
	}
	pending := new(big.Int).Mul(ledger.TotalBoostedAmount, delta)
	return pending.Quo(pending, fixedmath.Scale())
}

// GetPoints implements points.Module: realized plus lazily-evaluated
// pending points. Unknown addresses yield zero.
func (e *Engine) GetPoints(addr [20]byte) (*big.Int, error) {
	global, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}
	ledger, err := e.loadUser(addr)
	if err != nil {
		return nil, err
	}
	current := pointsPerShare(global, uint64(e.clock.Now().UTC().Unix()))
	total := points.CopyAmount(ledger.PointsEarned)
	return total.Add(total, pendingFor(ledger, current)), nil
}

// Checkpoint realizes the caller's pending points, subject to the
// flash-loan guard. A blocked attempt re-arms the guard clock but leaves
// the earned balance and paid accumulator untouched, so the pending delta
// survives for a later successful checkpoint.
func (e *Engine) Checkpoint(addr [20]byte) (CheckpointResult, error) {
	if addr == ([20]byte{}) {
		return CheckpointResult{}, points.ErrZeroAddress
	}
	global, err := e.loadGlobal()
	if err != nil {
		return CheckpointResult{}, err
	}
	ledger, err := e.loadUser(addr)
	if err != nil {
		return CheckpointResult{}, err
	}
	now := e.clock.Now()
	block := e.clock.BlockHeight()
	e.updateGlobal(global, now)

	result := CheckpointResult{Amount: big.NewInt(0)}
	if e.guard.Allows(ledger.LastCheckpointBlock, block) {
		credited := pendingFor(ledger, global.PointsPerShareStored)
		ledger.PointsEarned.Add(ledger.PointsEarned, credited)
		ledger.PointsPerSharePaid = points.CopyAmount(global.PointsPerShareStored)
		result.Credited = true
		result.Amount = points.CopyAmount(credited)
	}
	ledger.LastCheckpointBlock = block

	if err := e.st.SetPoolGlobal(e.name, global); err != nil {
		return CheckpointResult{}, err
	}
	if err := e.st.SetPoolUser(e.name, addr, ledger); err != nil {
		return CheckpointResult{}, err
	}
	e.st.AppendEvent(events.PoolCheckpoint{
		Module:   e.name,
		User:     addr,
		Credited: result.Credited,
		Amount:   points.CopyAmount(result.Amount),
		Block:    block,
	})
	return result, nil
}

// CheckpointUsers applies Checkpoint to each address, bounded by maxBatch.
// Individual guard blocks are not errors; the per-user results report them.
func (e *Engine) CheckpointUsers(addrs [][20]byte, maxBatch int) ([]CheckpointResult, error) {
	if maxBatch > 0 && len(addrs) > maxBatch {
		return nil, points.ErrBatchTooLarge
	}
	results := make([]CheckpointResult, 0, len(addrs))
	for _, addr := range addrs {
		res, err := e.Checkpoint(addr)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// settle credits the user's pending delta exactly, bypassing the guard.
// Weight changes must settle first or the old interval would be re-priced
// under the new weight; the guard only gates the public checkpoint surface
// where a caller can manipulate timing.
func settle(global *GlobalState, ledger *UserLedger) {
	pending := pendingFor(ledger, global.PointsPerShareStored)
	ledger.PointsEarned.Add(ledger.PointsEarned, pending)
	ledger.PointsPerSharePaid = points.CopyAmount(global.PointsPerShareStored)
}

// Enter adds boosted weight for the user, settling their prior interval at
// the old weight first.
func (e *Engine) Enter(addr [20]byte, boostedAmount *big.Int) error {
	if addr == ([20]byte{}) {
		return points.ErrZeroAddress
	}
	if boostedAmount == nil || boostedAmount.Sign() <= 0 {
		return points.ErrZeroAmount
	}
	global, err := e.loadGlobal()
	if err != nil {
		return err
	}
	if !global.Active {
		return points.ErrModuleInactive
	}
	ledger, err := e.loadUser(addr)
	if err != nil {
		return err
	}
	e.updateGlobal(global, e.clock.Now())
	settle(global, ledger)
	ledger.TotalBoostedAmount.Add(ledger.TotalBoostedAmount, boostedAmount)
	global.TotalBoostedStaked.Add(global.TotalBoostedStaked, boostedAmount)
	if err := e.st.SetPoolGlobal(e.name, global); err != nil {
		return err
	}
	return e.st.SetPoolUser(e.name, addr, ledger)
}

// Exit removes boosted weight, settling first. Removing more weight than
// the user holds is an input error.
func (e *Engine) Exit(addr [20]byte, boostedAmount *big.Int) error {
	if addr == ([20]byte{}) {
		return points.ErrZeroAddress
	}
	if boostedAmount == nil || boostedAmount.Sign() <= 0 {
		return points.ErrZeroAmount
	}
	global, err := e.loadGlobal()
	if err != nil {
		return err
	}
	ledger, err := e.loadUser(addr)
	if err != nil {
		return err
	}
	if ledger.TotalBoostedAmount.Cmp(boostedAmount) < 0 {
		return points.ErrInsufficientStake
	}
	e.updateGlobal(global, e.clock.Now())
	settle(global, ledger)
	ledger.TotalBoostedAmount.Sub(ledger.TotalBoostedAmount, boostedAmount)
	global.TotalBoostedStaked.Sub(global.TotalBoostedStaked, boostedAmount)
	if err := e.st.SetPoolGlobal(e.name, global); err != nil {
		return err
	}
	return e.st.SetPoolUser(e.name, addr, ledger)
}

// SetRate changes the per-second emission rate after rolling the
// accumulator forward under the old rate.
func (e *Engine) SetRate(rate *big.Int) error {
	if !fixedmath.ValidRate(rate) {
		return points.ErrRateOutOfRange
	}
	global, err := e.loadGlobal()
	if err != nil {
		return err
	}
	e.updateGlobal(global, e.clock.Now())
	global.RatePerSecond = points.CopyAmount(rate)
	return e.st.SetPoolGlobal(e.name, global)
}

// SetActive toggles accrual, rolling forward first so a deactivation stops
// the clock exactly at the toggle.
func (e *Engine) SetActive(active bool) error {
	global, err := e.loadGlobal()
	if err != nil {
		return err
	}
	e.updateGlobal(global, e.clock.Now())
	global.Active = active
	return e.st.SetPoolGlobal(e.name, global)
}

// ApplyPenalty deducts up to amount from the user's realized points,
// saturating at zero. The applied value and the cap bit are reported for
// observability.
func (e *Engine) ApplyPenalty(addr [20]byte, amount *big.Int) (PenaltyResult, error) {
	if addr == ([20]byte{}) {
		return PenaltyResult{}, points.ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return PenaltyResult{}, points.ErrZeroAmount
	}
	ledger, err := e.loadUser(addr)
	if err != nil {
		return PenaltyResult{}, err
	}
	applied := fixedmath.Min(amount, ledger.PointsEarned)
	capped := applied.Cmp(amount) < 0
	ledger.PointsEarned.Sub(ledger.PointsEarned, applied)
	if err := e.st.SetPoolUser(e.name, addr, ledger); err != nil {
		return PenaltyResult{}, err
	}
	e.st.AppendEvent(events.PenaltyApplied{
		Module:    e.name,
		User:      addr,
		Requested: points.CopyAmount(amount),
		Applied:   points.CopyAmount(applied),
		WasCapped: capped,
	})
	return PenaltyResult{Applied: applied, WasCapped: capped}, nil
}
