package hub

import (
	"errors"
	"math/big"
	"sync"

	"pointshub/native/points"
)

// RewardToken is the custody surface the hub redeems against. Transfer
// moves tokens out of the hub's custody pool to the recipient.
type RewardToken interface {
	CustodyBalance() (*big.Int, error)
	Transfer(to [20]byte, amount *big.Int) error
}

var errCustodyShort = errors.New("hub: custody balance below transfer amount")

// LedgerToken is a book-entry reward token: a custody pool plus per-holder
// balances. It backs tests and deployments where the reward token is
// managed by the same process.
type LedgerToken struct {
	mu       sync.Mutex
	custody  *big.Int
	balances map[[20]byte]*big.Int
}

// NewLedgerToken seeds the custody pool.
func NewLedgerToken(custody *big.Int) *LedgerToken {
	return &LedgerToken{
		custody:  points.CopyAmount(custody),
		balances: make(map[[20]byte]*big.Int),
	}
}

// CustodyBalance implements RewardToken.
func (t *LedgerToken) CustodyBalance() (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.custody), nil
}

// Fund adds tokens to the custody pool.
func (t *LedgerToken) Fund(amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.custody.Add(t.custody, amount)
}

// Transfer implements RewardToken, failing closed when custody cannot
// cover the amount.
func (t *LedgerToken) Transfer(to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return points.ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.custody.Cmp(amount) < 0 {
		return errCustodyShort
	}
	t.custody.Sub(t.custody, amount)
	balance, ok := t.balances[to]
	if !ok {
		balance = big.NewInt(0)
		t.balances[to] = balance
	}
	balance.Add(balance, amount)
	return nil
}

// BalanceOf reports a holder's received tokens.
func (t *LedgerToken) BalanceOf(addr [20]byte) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return points.CopyAmount(t.balances[addr])
}
