package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"pointshub/core/events"
	"pointshub/native/points/creditcard"
	"pointshub/native/points/hub"
	"pointshub/native/points/merkleclaim"
	"pointshub/native/points/timeweighted"
	"pointshub/storage"
)

var (
	_ timeweighted.State = (*Manager)(nil)
	_ creditcard.State   = (*Manager)(nil)
	_ merkleclaim.State  = (*Manager)(nil)
	_ hub.State          = (*Manager)(nil)
)

func newTestManager(t *testing.T) (*Manager, *events.MemorySink) {
	t.Helper()
	sink := &events.MemorySink{}
	return NewManager(storage.NewMemDB(), sink), sink
}

func TestPoolGlobalRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)

	missing, err := m.PoolGlobal("holding")
	require.NoError(t, err)
	require.Nil(t, missing)

	global := &timeweighted.GlobalState{
		PointsPerShareStored: big.NewInt(123456),
		LastUpdateTime:       1_700_000_000,
		TotalBoostedStaked:   big.NewInt(500),
		RatePerSecond:        big.NewInt(7),
		Active:               true,
	}
	require.NoError(t, m.SetPoolGlobal("holding", global))

	loaded, err := m.PoolGlobal("holding")
	require.NoError(t, err)
	require.Equal(t, global, loaded)

	// A second pool does not see the first pool's record.
	other, err := m.PoolGlobal("liquidity")
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestPoolUserRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	addr := [20]byte{0x01}

	missing, err := m.PoolUser("holding", addr)
	require.NoError(t, err)
	require.Nil(t, missing)

	ledger := &timeweighted.UserLedger{
		TotalBoostedAmount:  big.NewInt(200),
		PointsPerSharePaid:  big.NewInt(99),
		PointsEarned:        big.NewInt(1500),
		LastCheckpointBlock: 42,
	}
	require.NoError(t, m.SetPoolUser("holding", addr, ledger))

	loaded, err := m.PoolUser("holding", addr)
	require.NoError(t, err)
	require.Equal(t, ledger, loaded)

	// Nil amounts are normalized to zero rather than persisted as nil.
	require.NoError(t, m.SetPoolUser("holding", [20]byte{0x02}, &timeweighted.UserLedger{}))
	bare, err := m.PoolUser("holding", [20]byte{0x02})
	require.NoError(t, err)
	require.Zero(t, bare.PointsEarned.Sign())
	require.Zero(t, bare.TotalBoostedAmount.Sign())
}

func TestStakeAccountRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	owner := [20]byte{0x03}

	account := &creditcard.Account{
		Positions: []*creditcard.Position{
			{
				Amount:        big.NewInt(1000),
				BoostedAmount: big.NewInt(1200),
				BoostBps:      12_000,
				CreatedAt:     1_700_000_000,
				Baseline:      1_700_000_100,
				Realized:      big.NewInt(77),
				LockEnd:       1_700_600_000,
				LockDays:      7,
				Kind:          creditcard.KindLocked,
				Active:        true,
			},
			{
				Amount:        big.NewInt(500),
				BoostedAmount: big.NewInt(500),
				BoostBps:      10_000,
				CreatedAt:     1_700_000_050,
				Baseline:      1_700_000_050,
				Realized:      big.NewInt(0),
				Kind:          creditcard.KindFlexible,
			},
		},
		PointsEarned:        big.NewInt(300),
		LastCheckpointBlock: 9,
	}
	require.NoError(t, m.SetStakeAccount("staking", owner, account))

	loaded, err := m.StakeAccount("staking", owner)
	require.NoError(t, err)
	require.Equal(t, account, loaded)
}

func TestStakeActiveFlag(t *testing.T) {
	m, _ := newTestManager(t)

	active, err := m.StakeActive("staking")
	require.NoError(t, err)
	require.False(t, active)

	require.NoError(t, m.SetStakeActive("staking", true))
	active, err = m.StakeActive("staking")
	require.NoError(t, err)
	require.True(t, active)
}

func TestClaimTimelockRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)

	missing, err := m.ClaimTimelock()
	require.NoError(t, err)
	require.Nil(t, missing)

	state := &merkleclaim.TimelockState{
		ActiveRoot:       [32]byte{0x0a},
		PendingRoot:      [32]byte{0x0b},
		PendingEffective: 1_700_090_000,
		PendingMetadata:  "epoch-12",
		Epoch:            12,
		History: []merkleclaim.RootRecord{
			{Root: [32]byte{0x08}, ActivatedAt: 1_700_000_000},
			{Root: [32]byte{0x09}, ActivatedAt: 1_700_050_000},
		},
		HistoryHead: 1,
		HistoryFull: true,
	}
	require.NoError(t, m.SetClaimTimelock(state))

	loaded, err := m.ClaimTimelock()
	require.NoError(t, err)
	require.Equal(t, state, loaded)
}

func TestCumulativeLedgersDefaultZero(t *testing.T) {
	m, _ := newTestManager(t)
	addr := [20]byte{0x04}

	claimed, err := m.CumulativeClaimed(addr)
	require.NoError(t, err)
	require.Zero(t, claimed.Sign())

	penalty, err := m.CumulativePenalty(addr)
	require.NoError(t, err)
	require.Zero(t, penalty.Sign())

	require.NoError(t, m.SetCumulativeClaimed(addr, big.NewInt(123)))
	require.NoError(t, m.SetCumulativePenalty(addr, big.NewInt(45)))

	claimed, err = m.CumulativeClaimed(addr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(123), claimed)

	penalty, err = m.CumulativePenalty(addr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(45), penalty)
}

func TestRedemptionLedgerRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	addr := [20]byte{0x05}

	require.NoError(t, m.SetRedeemedPoints(addr, big.NewInt(400)))
	require.NoError(t, m.SetTotalRedeemedPoints(big.NewInt(900)))

	redeemed, err := m.RedeemedPoints(addr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(400), redeemed)

	total, err := m.TotalRedeemedPoints()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(900), total)
}

func TestEventsForwardToSink(t *testing.T) {
	m, sink := newTestManager(t)
	m.AppendEvent(events.ModuleRegistered{Name: "holding"})
	require.Len(t, sink.Events, 1)
	require.Equal(t, events.TypeModuleRegistered, sink.Events[0].EventType())
}
