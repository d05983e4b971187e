package creditcard

import (
	"math/big"
	"testing"
	"time"

	"pointshub/core/events"
	"pointshub/native/points"
	"pointshub/native/points/fixedmath"
)

type memState struct {
	accounts map[string]*Account
	active   map[string]bool
	events   []events.Event
}

func newMemState() *memState {
	return &memState{
		accounts: make(map[string]*Account),
		active:   make(map[string]bool),
	}
}

func accountKey(module string, owner [20]byte) string {
	return module + "/" + string(owner[:])
}

func (s *memState) StakeAccount(module string, owner [20]byte) (*Account, error) {
	return s.accounts[accountKey(module, owner)].Clone(), nil
}

func (s *memState) SetStakeAccount(module string, owner [20]byte, account *Account) error {
	s.accounts[accountKey(module, owner)] = account.Clone()
	return nil
}

func (s *memState) StakeActive(module string) (bool, error) {
	return s.active[module], nil
}

func (s *memState) SetStakeActive(module string, active bool) error {
	s.active[module] = active
	return nil
}

func (s *memState) AppendEvent(evt events.Event) {
	s.events = append(s.events, evt)
}

var (
	carol = [20]byte{0xcc}
	dave  = [20]byte{0xdd}
)

const dayf = 24 * time.Hour

// testSchedule keeps the lock range small so interval arithmetic in the
// assertions stays readable.
func testSchedule() BoostSchedule {
	return BoostSchedule{MinLockDays: 1, MaxLockDays: 10, MaxExtraBps: fixedmath.BpsDenom}
}

func newTestEngine(t *testing.T, minHolding uint64) (*Engine, *memState, *points.ManualClock) {
	t.Helper()
	st := newMemState()
	clock := &points.ManualClock{Time: time.Unix(1_700_000_000, 0), Block: 1}
	engine, err := NewEngine("staking", st, clock, points.FlashLoanGuard{MinHoldingBlocks: minHolding}, Config{
		RatePerSecond: fixedmath.Scale(),
		Schedule:      testSchedule(),
		MaxPositions:  4,
		PenaltyBps:    DefaultPenaltyBps,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.SetActive(true); err != nil {
		t.Fatalf("set active: %v", err)
	}
	return engine, st, clock
}

func mustPoints(t *testing.T, engine *Engine, owner [20]byte) *big.Int {
	t.Helper()
	value, err := engine.GetPoints(owner)
	if err != nil {
		t.Fatalf("get points: %v", err)
	}
	return value
}

func TestNoDilutionAcrossEntrants(t *testing.T) {
	engine, _, clock := newTestEngine(t, 0)
	if _, err := engine.Stake(carol, big.NewInt(1000), 0); err != nil {
		t.Fatalf("stake carol: %v", err)
	}
	clock.Advance(dayf, 1)
	carolDayOne := mustPoints(t, engine, carol)

	// Dave enters on day two with the same size; his presence must not
	// change Carol's marginal rate.
	if _, err := engine.Stake(dave, big.NewInt(1000), 0); err != nil {
		t.Fatalf("stake dave: %v", err)
	}
	clock.Advance(dayf, 1)

	carolDayTwo := new(big.Int).Sub(mustPoints(t, engine, carol), carolDayOne)
	davePoints := mustPoints(t, engine, dave)
	if carolDayTwo.Cmp(davePoints) != 0 {
		t.Fatalf("equal windows accrued unequally: carol day two %s, dave %s", carolDayTwo, davePoints)
	}
	want := new(big.Int).Mul(big.NewInt(1000), big.NewInt(86400))
	if davePoints.Cmp(want) != 0 {
		t.Fatalf("dave points: got %s want %s", davePoints, want)
	}
}

func TestLockBoostSplitsAtExpiry(t *testing.T) {
	engine, _, clock := newTestEngine(t, 0)
	// Two-day lock at the test schedule: 10000 + 2*10000/10 = 12000 bps.
	res, err := engine.Stake(carol, big.NewInt(1000), 2)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if res.Boosted.Cmp(big.NewInt(1200)) != 0 {
		t.Fatalf("boosted amount: got %s want 1200", res.Boosted)
	}

	clock.Advance(4*dayf, 1)
	// Two boosted days then two base days.
	want := new(big.Int).Mul(big.NewInt(1200), big.NewInt(2*86400))
	want.Add(want, new(big.Int).Mul(big.NewInt(1000), big.NewInt(2*86400)))
	got := mustPoints(t, engine, carol)
	if got.Cmp(want) != 0 {
		t.Fatalf("points across expiry: got %s want %s", got, want)
	}
}

func TestShortLockFallsBackToFlexible(t *testing.T) {
	engine, _, _ := newTestEngine(t, 0)
	if _, err := engine.Stake(carol, big.NewInt(500), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	pos, err := engine.PositionInfo(carol, 0)
	if err != nil {
		t.Fatalf("position info: %v", err)
	}
	if pos.Kind != KindFlexible || pos.LockEnd != 0 || pos.BoostBps != BoostScale {
		t.Fatalf("short lock not flexible: kind=%v lockEnd=%d boost=%d", pos.Kind, pos.LockEnd, pos.BoostBps)
	}
}

func TestEarlyExitPenaltyProportional(t *testing.T) {
	engine, _, clock := newTestEngine(t, 0)
	// Ten-day lock: boost 20000 bps, boosted weight 2000.
	if _, err := engine.Stake(carol, big.NewInt(1000), 10); err != nil {
		t.Fatalf("stake: %v", err)
	}
	clock.Advance(5*dayf, 1)

	res, err := engine.Unstake(carol, 0)
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	realized := new(big.Int).Mul(big.NewInt(2000), big.NewInt(5*86400))
	if res.Realized.Cmp(realized) != 0 {
		t.Fatalf("realized: got %s want %s", res.Realized, realized)
	}
	// Half the lock remains, penalty fraction 50%: a quarter is deducted.
	wantPenalty := new(big.Int).Quo(realized, big.NewInt(4))
	if res.Penalty.Applied.Cmp(wantPenalty) != 0 {
		t.Fatalf("penalty: got %s want %s", res.Penalty.Applied, wantPenalty)
	}
	if res.Penalty.WasCapped || !res.Penalty.Early {
		t.Fatalf("penalty flags: capped=%v early=%v", res.Penalty.WasCapped, res.Penalty.Early)
	}
	balance := mustPoints(t, engine, carol)
	want := new(big.Int).Sub(realized, wantPenalty)
	if balance.Cmp(want) != 0 {
		t.Fatalf("balance: got %s want %s", balance, want)
	}
}

func TestExitAfterLockExpiryHasNoPenalty(t *testing.T) {
	engine, _, clock := newTestEngine(t, 0)
	if _, err := engine.Stake(carol, big.NewInt(1000), 2); err != nil {
		t.Fatalf("stake: %v", err)
	}
	clock.Advance(3*dayf, 1)
	res, err := engine.Unstake(carol, 0)
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if res.Penalty.Applied.Sign() != 0 || res.Penalty.Early {
		t.Fatalf("penalty after expiry: applied=%s early=%v", res.Penalty.Applied, res.Penalty.Early)
	}
}

func TestPenaltyCapsAtRealizedBalance(t *testing.T) {
	engine, st, clock := newTestEngine(t, 0)
	now := uint64(clock.Now().Unix())
	// An account whose realized balance is already lower than the
	// position's lifetime earnings (e.g. after earlier deductions): the
	// deduction must saturate, never underflow.
	lockEnd := now + 10*86400
	st.accounts[accountKey("staking", carol)] = &Account{
		Positions: []*Position{{
			Amount:        big.NewInt(1000),
			BoostedAmount: big.NewInt(2000),
			BoostBps:      20000,
			CreatedAt:     now - 5*86400,
			Baseline:      now,
			Realized:      big.NewInt(1_000_000),
			LockEnd:       lockEnd,
			LockDays:      10,
			Kind:          KindLocked,
			Active:        true,
		}},
		PointsEarned: big.NewInt(10),
	}

	res, err := engine.Unstake(carol, 0)
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if !res.Penalty.WasCapped {
		t.Fatalf("expected capped penalty")
	}
	if res.Penalty.Applied.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("applied: got %s want 10", res.Penalty.Applied)
	}
	balance := mustPoints(t, engine, carol)
	if balance.Sign() != 0 {
		t.Fatalf("balance went negative or nonzero: %s", balance)
	}
}

func TestPositionLifetimeCap(t *testing.T) {
	engine, _, _ := newTestEngine(t, 0)
	for i := 0; i < 4; i++ {
		if _, err := engine.Stake(carol, big.NewInt(10), 0); err != nil {
			t.Fatalf("stake %d: %v", i, err)
		}
	}
	if _, err := engine.Stake(carol, big.NewInt(10), 0); err != points.ErrPositionCapSpent {
		t.Fatalf("expected cap error, got %v", err)
	}
	// Closing a position does not free its slot: the cap is lifetime.
	if _, err := engine.Unstake(carol, 0); err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if _, err := engine.Stake(carol, big.NewInt(10), 0); err != points.ErrPositionCapSpent {
		t.Fatalf("expected cap to persist after exit, got %v", err)
	}
}

func TestUnstakeClosedPositionRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t, 0)
	if _, err := engine.Stake(carol, big.NewInt(10), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, err := engine.Unstake(carol, 0); err != nil {
		t.Fatalf("first unstake: %v", err)
	}
	if _, err := engine.Unstake(carol, 0); err != points.ErrPositionInactive {
		t.Fatalf("expected inactive error, got %v", err)
	}
	if _, err := engine.Unstake(carol, 5); err != points.ErrIndexOutOfRange {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestCheckpointGuardDefersWithoutLoss(t *testing.T) {
	engine, _, clock := newTestEngine(t, 10)
	if _, err := engine.Stake(carol, big.NewInt(100), 0); err != nil {
		t.Fatalf("stake: %v", err)
	}
	clock.Advance(5*time.Second, 1)
	first, err := engine.Checkpoint(carol)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if !first.Credited || first.Amount.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("first checkpoint: credited=%v amount=%s", first.Credited, first.Amount)
	}

	clock.Advance(5*time.Second, 1)
	blocked, err := engine.Checkpoint(carol)
	if err != nil {
		t.Fatalf("blocked checkpoint: %v", err)
	}
	if blocked.Credited {
		t.Fatalf("checkpoint inside window was credited")
	}

	clock.Advance(5*time.Second, 20)
	final, err := engine.Checkpoint(carol)
	if err != nil {
		t.Fatalf("final checkpoint: %v", err)
	}
	if !final.Credited || final.Amount.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("final checkpoint: credited=%v amount=%s want 1000", final.Credited, final.Amount)
	}
	total := mustPoints(t, engine, carol)
	if total.Cmp(big.NewInt(1500)) != 0 {
		t.Fatalf("total: got %s want 1500", total)
	}
}

func TestStakeValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t, 0)
	if _, err := engine.Stake([20]byte{}, big.NewInt(10), 0); err != points.ErrZeroAddress {
		t.Fatalf("zero address: got %v", err)
	}
	if _, err := engine.Stake(carol, big.NewInt(0), 0); err != points.ErrZeroAmount {
		t.Fatalf("zero amount: got %v", err)
	}
	if err := engine.SetActive(false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := engine.Stake(carol, big.NewInt(10), 0); err != points.ErrModuleInactive {
		t.Fatalf("inactive: got %v", err)
	}
}
