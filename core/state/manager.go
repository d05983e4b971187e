// Package state persists every ledger the points engines depend on.
// Records are RLP-encoded under namespaced keys in a storage.Database, so
// no value affecting point totals lives only in memory.
package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"pointshub/core/events"
	"pointshub/native/points/creditcard"
	"pointshub/native/points/merkleclaim"
	"pointshub/native/points/timeweighted"
	"pointshub/storage"
)

// Manager implements the State surfaces of all four engine packages over
// a single key-value backend. Events are forwarded to the configured sink.
type Manager struct {
	db   storage.Database
	sink events.Sink
}

// NewManager wires a manager over the database. A nil sink discards
// events.
func NewManager(db storage.Database, sink events.Sink) *Manager {
	if sink == nil {
		sink = events.NoopSink{}
	}
	return &Manager{db: db, sink: sink}
}

// AppendEvent forwards an engine event to the sink.
func (m *Manager) AppendEvent(evt events.Event) {
	m.sink.AppendEvent(evt)
}

func (m *Manager) load(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) store(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, raw)
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// --- timeweighted.State ---

type storedPoolGlobal struct {
	PointsPerShare *big.Int
	LastUpdateTime uint64
	TotalBoosted   *big.Int
	Rate           *big.Int
	Active         bool
}

type storedPoolUser struct {
	Boosted             *big.Int
	PerSharePaid        *big.Int
	Earned              *big.Int
	LastCheckpointBlock uint64
}

func (m *Manager) PoolGlobal(module string) (*timeweighted.GlobalState, error) {
	var stored storedPoolGlobal
	ok, err := m.load(poolGlobalKey(module), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &timeweighted.GlobalState{
		PointsPerShareStored: nonNil(stored.PointsPerShare),
		LastUpdateTime:       stored.LastUpdateTime,
		TotalBoostedStaked:   nonNil(stored.TotalBoosted),
		RatePerSecond:        nonNil(stored.Rate),
		Active:               stored.Active,
	}, nil
}

func (m *Manager) SetPoolGlobal(module string, global *timeweighted.GlobalState) error {
	if global == nil {
		return fmt.Errorf("state: nil pool global")
	}
	return m.store(poolGlobalKey(module), &storedPoolGlobal{
		PointsPerShare: nonNil(global.PointsPerShareStored),
		LastUpdateTime: global.LastUpdateTime,
		TotalBoosted:   nonNil(global.TotalBoostedStaked),
		Rate:           nonNil(global.RatePerSecond),
		Active:         global.Active,
	})
}

func (m *Manager) PoolUser(module string, addr [20]byte) (*timeweighted.UserLedger, error) {
	var stored storedPoolUser
	ok, err := m.load(poolUserKey(module, addr), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &timeweighted.UserLedger{
		TotalBoostedAmount:  nonNil(stored.Boosted),
		PointsPerSharePaid:  nonNil(stored.PerSharePaid),
		PointsEarned:        nonNil(stored.Earned),
		LastCheckpointBlock: stored.LastCheckpointBlock,
	}, nil
}

func (m *Manager) SetPoolUser(module string, addr [20]byte, ledger *timeweighted.UserLedger) error {
	if ledger == nil {
		return fmt.Errorf("state: nil pool user")
	}
	return m.store(poolUserKey(module, addr), &storedPoolUser{
		Boosted:             nonNil(ledger.TotalBoostedAmount),
		PerSharePaid:        nonNil(ledger.PointsPerSharePaid),
		Earned:              nonNil(ledger.PointsEarned),
		LastCheckpointBlock: ledger.LastCheckpointBlock,
	})
}

// --- creditcard.State ---

type storedPosition struct {
	Amount    *big.Int
	Boosted   *big.Int
	BoostBps  uint64
	CreatedAt uint64
	Baseline  uint64
	Realized  *big.Int
	LockEnd   uint64
	LockDays  uint64
	Kind      uint8
	Active    bool
}

type storedStakeAccount struct {
	Positions           []storedPosition
	Earned              *big.Int
	LastCheckpointBlock uint64
}

func (m *Manager) StakeAccount(module string, owner [20]byte) (*creditcard.Account, error) {
	var stored storedStakeAccount
	ok, err := m.load(stakeAccountKey(module, owner), &stored)
	if err != nil || !ok {
		return nil, err
	}
	account := &creditcard.Account{
		PointsEarned:        nonNil(stored.Earned),
		LastCheckpointBlock: stored.LastCheckpointBlock,
	}
	account.Positions = make([]*creditcard.Position, len(stored.Positions))
	for i, pos := range stored.Positions {
		account.Positions[i] = &creditcard.Position{
			Amount:        nonNil(pos.Amount),
			BoostedAmount: nonNil(pos.Boosted),
			BoostBps:      pos.BoostBps,
			CreatedAt:     pos.CreatedAt,
			Baseline:      pos.Baseline,
			Realized:      nonNil(pos.Realized),
			LockEnd:       pos.LockEnd,
			LockDays:      pos.LockDays,
			Kind:          creditcard.StakeKind(pos.Kind),
			Active:        pos.Active,
		}
	}
	return account, nil
}

func (m *Manager) SetStakeAccount(module string, owner [20]byte, account *creditcard.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil stake account")
	}
	stored := storedStakeAccount{
		Positions:           make([]storedPosition, len(account.Positions)),
		Earned:              nonNil(account.PointsEarned),
		LastCheckpointBlock: account.LastCheckpointBlock,
	}
	for i, pos := range account.Positions {
		stored.Positions[i] = storedPosition{
			Amount:    nonNil(pos.Amount),
			Boosted:   nonNil(pos.BoostedAmount),
			BoostBps:  pos.BoostBps,
			CreatedAt: pos.CreatedAt,
			Baseline:  pos.Baseline,
			Realized:  nonNil(pos.Realized),
			LockEnd:   pos.LockEnd,
			LockDays:  pos.LockDays,
			Kind:      uint8(pos.Kind),
			Active:    pos.Active,
		}
	}
	return m.store(stakeAccountKey(module, owner), &stored)
}

func (m *Manager) StakeActive(module string) (bool, error) {
	var active bool
	ok, err := m.load(stakeActiveKey(module), &active)
	if err != nil || !ok {
		return false, err
	}
	return active, nil
}

func (m *Manager) SetStakeActive(module string, active bool) error {
	return m.store(stakeActiveKey(module), active)
}

// --- merkleclaim.State ---

type storedRootRecord struct {
	Root        [32]byte
	ActivatedAt uint64
}

type storedTimelock struct {
	ActiveRoot       [32]byte
	PendingRoot      [32]byte
	PendingEffective uint64
	PendingMetadata  string
	Epoch            uint64
	History          []storedRootRecord
	HistoryHead      uint64
	HistoryFull      bool
}

func (m *Manager) ClaimTimelock() (*merkleclaim.TimelockState, error) {
	var stored storedTimelock
	ok, err := m.load([]byte(claimTimelockKey), &stored)
	if err != nil || !ok {
		return nil, err
	}
	state := &merkleclaim.TimelockState{
		ActiveRoot:       stored.ActiveRoot,
		PendingRoot:      stored.PendingRoot,
		PendingEffective: stored.PendingEffective,
		PendingMetadata:  stored.PendingMetadata,
		Epoch:            stored.Epoch,
		HistoryHead:      int(stored.HistoryHead),
		HistoryFull:      stored.HistoryFull,
	}
	state.History = make([]merkleclaim.RootRecord, len(stored.History))
	for i, rec := range stored.History {
		state.History[i] = merkleclaim.RootRecord{Root: rec.Root, ActivatedAt: rec.ActivatedAt}
	}
	return state, nil
}

func (m *Manager) SetClaimTimelock(state *merkleclaim.TimelockState) error {
	if state == nil {
		return fmt.Errorf("state: nil claim timelock")
	}
	stored := storedTimelock{
		ActiveRoot:       state.ActiveRoot,
		PendingRoot:      state.PendingRoot,
		PendingEffective: state.PendingEffective,
		PendingMetadata:  state.PendingMetadata,
		Epoch:            state.Epoch,
		History:          make([]storedRootRecord, len(state.History)),
		HistoryHead:      uint64(state.HistoryHead),
		HistoryFull:      state.HistoryFull,
	}
	for i, rec := range state.History {
		stored.History[i] = storedRootRecord{Root: rec.Root, ActivatedAt: rec.ActivatedAt}
	}
	return m.store([]byte(claimTimelockKey), &stored)
}

func (m *Manager) amountAt(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.load(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

func (m *Manager) CumulativeClaimed(addr [20]byte) (*big.Int, error) {
	return m.amountAt(addrKey(claimedPrefix, addr))
}

func (m *Manager) SetCumulativeClaimed(addr [20]byte, total *big.Int) error {
	return m.store(addrKey(claimedPrefix, addr), nonNil(total))
}

func (m *Manager) CumulativePenalty(addr [20]byte) (*big.Int, error) {
	return m.amountAt(addrKey(penaltyPrefix, addr))
}

func (m *Manager) SetCumulativePenalty(addr [20]byte, total *big.Int) error {
	return m.store(addrKey(penaltyPrefix, addr), nonNil(total))
}

// --- hub.State ---

func (m *Manager) RedeemedPoints(addr [20]byte) (*big.Int, error) {
	return m.amountAt(addrKey(redeemedPrefix, addr))
}

func (m *Manager) SetRedeemedPoints(addr [20]byte, total *big.Int) error {
	return m.store(addrKey(redeemedPrefix, addr), nonNil(total))
}

func (m *Manager) TotalRedeemedPoints() (*big.Int, error) {
	return m.amountAt([]byte(totalRedeemedKey))
}

func (m *Manager) SetTotalRedeemedPoints(total *big.Int) error {
	return m.store([]byte(totalRedeemedKey), nonNil(total))
}
