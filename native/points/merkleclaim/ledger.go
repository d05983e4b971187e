// Package merkleclaim holds the off-chain-computed claim machinery: a
// delayed-activation Merkle root state machine and cumulative claim and
// penalty ledgers verified against the active root. Leaves always encode
// absolute cumulative totals, never deltas, so replays and stale totals
// fail the monotonicity check rather than double-paying; a domain tag in
// the leaf keeps claim and penalty proofs from standing in for each
// other.
package merkleclaim

import (
	"fmt"
	"math/big"
	"time"

	"pointshub/core/events"
	"pointshub/native/points"
)

// DefaultRootDelay is the mandatory wait between queueing a root and its
// activation.
const DefaultRootDelay = 24 * time.Hour

// DefaultMaxBatch caps batch claim sizes.
const DefaultMaxBatch = 100

// State is the persistence surface for the claim ledgers. Unknown users
// yield zero, not errors.
type State interface {
	ClaimTimelock() (*TimelockState, error)
	SetClaimTimelock(state *TimelockState) error
	CumulativeClaimed(addr [20]byte) (*big.Int, error)
	SetCumulativeClaimed(addr [20]byte, total *big.Int) error
	CumulativePenalty(addr [20]byte) (*big.Int, error)
	SetCumulativePenalty(addr [20]byte, total *big.Int) error
	AppendEvent(evt events.Event)
}

// Config fixes the ledger parameters at construction.
type Config struct {
	RootDelay       time.Duration
	HistoryCapacity int
	MaxBatch        int
}

// BatchOutcome reports a single batch entry: either the settled delta or
// the skip reason.
type BatchOutcome struct {
	Settled bool
	Delta   *big.Int
	Reason  string
}

// Ledger drives the activity-rewards claim module. It doubles as an
// earning module for the hub: a user's points are their cumulative
// claimed total.
type Ledger struct {
	name  string
	st    State
	clock points.Clock
	cfg   Config
}

// NewLedger wires a claim ledger over the given state backend.
func NewLedger(name string, st State, clock points.Clock, cfg Config) *Ledger {
	if cfg.RootDelay <= 0 {
		cfg.RootDelay = DefaultRootDelay
	}
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = DefaultHistoryCapacity
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}
	return &Ledger{name: name, st: st, clock: clock, cfg: cfg}
}

// ModuleName implements points.Module.
func (l *Ledger) ModuleName() string { return l.name }

// IsActive implements points.Module: the module earns once a root has been
// activated.
func (l *Ledger) IsActive() bool {
	state, err := l.loadTimelock()
	if err != nil {
		return false
	}
	return state.ActiveRoot != ([32]byte{})
}

// GetPoints implements points.Module.
func (l *Ledger) GetPoints(addr [20]byte) (*big.Int, error) {
	claimed, err := l.st.CumulativeClaimed(addr)
	if err != nil {
		return nil, fmt.Errorf("merkleclaim: load claimed: %w", err)
	}
	return points.CopyAmount(claimed), nil
}

// GetPenalty implements points.PenaltySource.
func (l *Ledger) GetPenalty(addr [20]byte) (*big.Int, error) {
	penalty, err := l.st.CumulativePenalty(addr)
	if err != nil {
		return nil, fmt.Errorf("merkleclaim: load penalty: %w", err)
	}
	return points.CopyAmount(penalty), nil
}

func (l *Ledger) loadTimelock() (*TimelockState, error) {
	state, err := l.st.ClaimTimelock()
	if err != nil {
		return nil, fmt.Errorf("merkleclaim: load timelock: %w", err)
	}
	if state == nil {
		state = &TimelockState{}
	}
	return state, nil
}

func (l *Ledger) nowUnix() uint64 {
	return uint64(l.clock.Now().UTC().Unix())
}

// validTotal bounds an externally supplied cumulative total to the leaf
// encoding's unsigned 256-bit range before it reaches the hasher.
func validTotal(total *big.Int) error {
	if total == nil {
		return nil
	}
	if total.Sign() < 0 || total.BitLen() > 256 {
		return points.ErrAmountOutOfRange
	}
	return nil
}

// QueueRoot stages a new root behind the activation delay. A pending root
// that already reached its effective time is activated first so published
// roots are never silently skipped.
func (l *Ledger) QueueRoot(root [32]byte, metadata string) error {
	if root == ([32]byte{}) {
		return ErrZeroRoot
	}
	state, err := l.loadTimelock()
	if err != nil {
		return err
	}
	now := l.nowUnix()
	var activated [32]byte
	if state.HasPending() && now >= state.PendingEffective {
		activated = state.promotePending(now, l.cfg.HistoryCapacity)
	}
	state.PendingRoot = root
	state.PendingEffective = now + uint64(l.cfg.RootDelay/time.Second)
	state.PendingMetadata = metadata
	if err := l.st.SetClaimTimelock(state); err != nil {
		return err
	}
	if activated != ([32]byte{}) {
		l.st.AppendEvent(events.RootActivated{Root: activated, Epoch: state.Epoch})
	}
	l.st.AppendEvent(events.RootQueued{Root: root, EffectiveTime: state.PendingEffective, Metadata: metadata})
	return nil
}

// ActivateRoot promotes the pending root once its delay has elapsed. Any
// caller may invoke it.
func (l *Ledger) ActivateRoot() error {
	return l.activate(false)
}

// EmergencyActivateRoot bypasses the delay. Privileged surface; the caller
// is responsible for authorization.
func (l *Ledger) EmergencyActivateRoot() error {
	return l.activate(true)
}

func (l *Ledger) activate(emergency bool) error {
	state, err := l.loadTimelock()
	if err != nil {
		return err
	}
	if !state.HasPending() {
		return ErrNoPendingRoot
	}
	now := l.nowUnix()
	if !emergency && now < state.PendingEffective {
		return ErrRootNotReady
	}
	activated := state.promotePending(now, l.cfg.HistoryCapacity)
	if err := l.st.SetClaimTimelock(state); err != nil {
		return err
	}
	l.st.AppendEvent(events.RootActivated{Root: activated, Epoch: state.Epoch, Emergency: emergency})
	return nil
}

// CancelPendingRoot clears a staged root before it takes effect.
// Privileged surface.
func (l *Ledger) CancelPendingRoot() error {
	state, err := l.loadTimelock()
	if err != nil {
		return err
	}
	if !state.HasPending() {
		return ErrNoPendingRoot
	}
	cancelled := state.PendingRoot
	state.PendingRoot = [32]byte{}
	state.PendingEffective = 0
	state.PendingMetadata = ""
	if err := l.st.SetClaimTimelock(state); err != nil {
		return err
	}
	l.st.AppendEvent(events.RootCancelled{Root: cancelled})
	return nil
}

// ActiveRoot returns the root claims are currently verified against.
func (l *Ledger) ActiveRoot() ([32]byte, error) {
	state, err := l.loadTimelock()
	if err != nil {
		return [32]byte{}, err
	}
	return state.ActiveRoot, nil
}

// PendingRoot returns the staged root and its effective time, if any.
func (l *Ledger) PendingRoot() ([32]byte, uint64, bool, error) {
	state, err := l.loadTimelock()
	if err != nil {
		return [32]byte{}, 0, false, err
	}
	return state.PendingRoot, state.PendingEffective, state.HasPending(), nil
}

// Epoch returns the number of root activations so far.
func (l *Ledger) Epoch() (uint64, error) {
	state, err := l.loadTimelock()
	if err != nil {
		return 0, err
	}
	return state.Epoch, nil
}

// HistoryAt returns the i-th most recent archived root, 0 being the
// latest.
func (l *Ledger) HistoryAt(i int) (RootRecord, error) {
	state, err := l.loadTimelock()
	if err != nil {
		return RootRecord{}, err
	}
	return state.HistoryAt(i, l.cfg.HistoryCapacity)
}

// Claim settles a cumulative claim against the active root. The recorded
// total is set to the absolute leaf value; claims that do not move the
// ledger forward fail with ErrNothingToClaim.
func (l *Ledger) Claim(addr [20]byte, cumulativeTotal *big.Int, proof [][32]byte) (*big.Int, error) {
	delta, err := l.claimOne(addr, cumulativeTotal, proof, false)
	if err != nil {
		return nil, err
	}
	return delta, nil
}

func (l *Ledger) claimOne(addr [20]byte, cumulativeTotal *big.Int, proof [][32]byte, viaBatch bool) (*big.Int, error) {
	if addr == ([20]byte{}) {
		return nil, points.ErrZeroAddress
	}
	if err := validTotal(cumulativeTotal); err != nil {
		return nil, err
	}
	state, err := l.loadTimelock()
	if err != nil {
		return nil, err
	}
	if state.ActiveRoot == ([32]byte{}) {
		return nil, ErrNoActiveRoot
	}
	if !VerifyProof(ClaimLeafHash(addr, cumulativeTotal), proof, state.ActiveRoot) {
		return nil, ErrInvalidProof
	}
	claimed, err := l.st.CumulativeClaimed(addr)
	if err != nil {
		return nil, fmt.Errorf("merkleclaim: load claimed: %w", err)
	}
	claimed = points.CopyAmount(claimed)
	total := points.CopyAmount(cumulativeTotal)
	delta := new(big.Int).Sub(total, claimed)
	if delta.Sign() <= 0 {
		return nil, ErrNothingToClaim
	}
	if err := l.st.SetCumulativeClaimed(addr, total); err != nil {
		return nil, err
	}
	l.st.AppendEvent(events.ClaimSettled{
		User:     addr,
		Total:    total,
		Delta:    points.CopyAmount(delta),
		Root:     state.ActiveRoot,
		Epoch:    state.Epoch,
		ViaBatch: viaBatch,
	})
	return delta, nil
}

// BatchClaim settles entries best-effort: a bad proof or a non-advancing
// total skips that entry with a reason event instead of aborting the
// batch. Shape errors (length mismatch, oversized batch) reject the whole
// call before any work.
func (l *Ledger) BatchClaim(addrs [][20]byte, totals []*big.Int, proofs [][][32]byte) ([]BatchOutcome, error) {
	if len(addrs) != len(totals) || len(addrs) != len(proofs) {
		return nil, points.ErrLengthMismatch
	}
	if len(addrs) > l.cfg.MaxBatch {
		return nil, points.ErrBatchTooLarge
	}
	outcomes := make([]BatchOutcome, len(addrs))
	for i := range addrs {
		delta, err := l.claimOne(addrs[i], totals[i], proofs[i], true)
		switch err {
		case nil:
			outcomes[i] = BatchOutcome{Settled: true, Delta: delta}
		case ErrInvalidProof:
			outcomes[i] = BatchOutcome{Reason: events.SkipReasonInvalidProof}
			l.st.AppendEvent(events.ClaimSkipped{User: addrs[i], Total: points.CopyAmount(totals[i]), Reason: events.SkipReasonInvalidProof})
		case ErrNothingToClaim:
			outcomes[i] = BatchOutcome{Reason: events.SkipReasonNothingToClaim}
			l.st.AppendEvent(events.ClaimSkipped{User: addrs[i], Total: points.CopyAmount(totals[i]), Reason: events.SkipReasonNothingToClaim})
		default:
			return outcomes, err
		}
	}
	return outcomes, nil
}

// RecordPenalty advances the confirmed-penalty ledger against the active
// root, with the same cumulative-total semantics as Claim.
func (l *Ledger) RecordPenalty(addr [20]byte, cumulativeTotal *big.Int, proof [][32]byte) (*big.Int, error) {
	if addr == ([20]byte{}) {
		return nil, points.ErrZeroAddress
	}
	if err := validTotal(cumulativeTotal); err != nil {
		return nil, err
	}
	state, err := l.loadTimelock()
	if err != nil {
		return nil, err
	}
	if state.ActiveRoot == ([32]byte{}) {
		return nil, ErrNoActiveRoot
	}
	if !VerifyProof(PenaltyLeafHash(addr, cumulativeTotal), proof, state.ActiveRoot) {
		return nil, ErrInvalidProof
	}
	return l.advancePenalty(addr, cumulativeTotal, state.ActiveRoot, false)
}

// OverridePenalty is the administrative path around a missing proof. The
// monotonicity rule still binds: any attempt to lower the confirmed
// penalty is rejected.
func (l *Ledger) OverridePenalty(addr [20]byte, cumulativeTotal *big.Int) (*big.Int, error) {
	if addr == ([20]byte{}) {
		return nil, points.ErrZeroAddress
	}
	if err := validTotal(cumulativeTotal); err != nil {
		return nil, err
	}
	return l.advancePenalty(addr, cumulativeTotal, [32]byte{}, false)
}

func (l *Ledger) advancePenalty(addr [20]byte, cumulativeTotal *big.Int, root [32]byte, viaBatch bool) (*big.Int, error) {
	confirmed, err := l.st.CumulativePenalty(addr)
	if err != nil {
		return nil, fmt.Errorf("merkleclaim: load penalty: %w", err)
	}
	confirmed = points.CopyAmount(confirmed)
	total := points.CopyAmount(cumulativeTotal)
	if total.Cmp(confirmed) < 0 {
		return nil, ErrPenaltyDecrease
	}
	delta := new(big.Int).Sub(total, confirmed)
	if err := l.st.SetCumulativePenalty(addr, total); err != nil {
		return nil, err
	}
	l.st.AppendEvent(events.PenaltyRecorded{
		User:     addr,
		Total:    total,
		Delta:    points.CopyAmount(delta),
		Root:     root,
		ViaBatch: viaBatch,
	})
	return delta, nil
}
