package creditcard

import (
	"math/big"

	"github.com/holiman/uint256"

	"pointshub/native/points"
)

// StakeKind distinguishes positions with a lock commitment from flexible
// ones.
type StakeKind uint8

const (
	KindFlexible StakeKind = iota
	KindLocked
)

func (k StakeKind) String() string {
	switch k {
	case KindFlexible:
		return "flexible"
	case KindLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Position is one staking record. Records are append-only per owner: an
// exit flips Active off and the slot is never reused, so history survives
// for audit and penalty computation.
type Position struct {
	Amount        *big.Int
	BoostedAmount *big.Int
	BoostBps      uint64
	CreatedAt     uint64
	Baseline      uint64
	Realized      *big.Int
	LockEnd       uint64
	LockDays      uint64
	Kind          StakeKind
	Active        bool
}

// Clone produces a deep copy of the position record.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	out := *p
	out.Amount = points.CopyAmount(p.Amount)
	out.BoostedAmount = points.CopyAmount(p.BoostedAmount)
	out.Realized = points.CopyAmount(p.Realized)
	return &out
}

func (p *Position) normalize() *Position {
	if p.Amount == nil {
		p.Amount = big.NewInt(0)
	}
	if p.BoostedAmount == nil {
		p.BoostedAmount = big.NewInt(0)
	}
	if p.Realized == nil {
		p.Realized = big.NewInt(0)
	}
	return p
}

// newPosition bounds-checks the amount into the representable range and
// derives the boosted weight. The range check mirrors the packed on-ledger
// record: amounts must fit an unsigned 256-bit word after boosting.
func newPosition(amount *big.Int, boostBps uint64, now, lockEnd, lockDays uint64, kind StakeKind) (*Position, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, points.ErrZeroAmount
	}
	if _, overflow := uint256.FromBig(amount); overflow {
		return nil, points.ErrAmountOutOfRange
	}
	boosted := new(big.Int).Mul(amount, new(big.Int).SetUint64(boostBps))
	boosted.Quo(boosted, new(big.Int).SetUint64(BoostScale))
	if _, overflow := uint256.FromBig(boosted); overflow {
		return nil, points.ErrAmountOutOfRange
	}
	return &Position{
		Amount:        new(big.Int).Set(amount),
		BoostedAmount: boosted,
		BoostBps:      boostBps,
		CreatedAt:     now,
		Baseline:      now,
		Realized:      big.NewInt(0),
		LockEnd:       lockEnd,
		LockDays:      lockDays,
		Kind:          kind,
		Active:        true,
	}, nil
}
