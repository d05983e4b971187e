// Package hub aggregates points across the registered earning modules,
// nets out penalties and prior redemptions, and redeems the remainder into
// the reward token. Module queries run behind an isolation boundary: one
// faulting module contributes zero instead of poisoning the aggregate.
package hub

import (
	"errors"
	"fmt"
	"math/big"

	"pointshub/core/events"
	"pointshub/native/points"
	"pointshub/native/points/fixedmath"
)

var (
	ErrRedeemDisabled        = errors.New("hub: redemption disabled")
	ErrExchangeRateUnset     = errors.New("hub: exchange rate unset")
	ErrRedeemCapExceeded     = errors.New("hub: amount exceeds per-tx cap")
	ErrInsufficientClaimable = errors.New("hub: amount exceeds claimable points")
	ErrInsufficientCustody   = errors.New("hub: insufficient reward token custody")
	ErrTokenUnset            = errors.New("hub: reward token unset")
	ErrModuleExists          = errors.New("hub: module already registered")
	ErrModuleNotFound        = errors.New("hub: module not registered")
	ErrRegistryFull          = errors.New("hub: module registry full")
	ErrMalformedModule       = errors.New("hub: module failed registration probe")
)

// DefaultMaxModules bounds the registry.
const DefaultMaxModules = 16

// State persists the redemption ledger. Unknown users yield zero, not
// errors.
type State interface {
	RedeemedPoints(addr [20]byte) (*big.Int, error)
	SetRedeemedPoints(addr [20]byte, total *big.Int) error
	TotalRedeemedPoints() (*big.Int, error)
	SetTotalRedeemedPoints(total *big.Int) error
	AppendEvent(evt events.Event)
}

// ModulePoints is one row of a per-module breakdown. OK is false when the
// module's query faulted and its contribution was zeroed.
type ModulePoints struct {
	Name   string
	Points *big.Int
	OK     bool
}

// Hub is the aggregation and redemption engine.
type Hub struct {
	st             State
	modules        []points.Module
	present        map[string]bool
	penalty        points.PenaltySource
	token          RewardToken
	exchangeRate   *big.Int
	redeemEnabled  bool
	maxRedeemPerTx *big.Int
	maxModules     int
}

// New constructs an empty hub over the given redemption ledger.
func New(st State) *Hub {
	return &Hub{
		st:           st,
		present:      make(map[string]bool),
		exchangeRate: big.NewInt(0),
		maxModules:   DefaultMaxModules,
	}
}

// probe exercises the minimal module surface, converting panics into a
// rejection so a malformed module is caught at registration rather than
// on the query path.
func probe(m points.Module) (name string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrMalformedModule, r)
		}
	}()
	name = m.ModuleName()
	if name == "" {
		return "", fmt.Errorf("%w: empty module name", ErrMalformedModule)
	}
	m.IsActive()
	if _, perr := m.GetPoints([20]byte{1}); perr != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedModule, perr)
	}
	return name, nil
}

// RegisterModule probes and adds an earning module. Privileged surface.
func (h *Hub) RegisterModule(m points.Module) error {
	if m == nil {
		return ErrMalformedModule
	}
	if len(h.modules) >= h.maxModules {
		return ErrRegistryFull
	}
	name, err := probe(m)
	if err != nil {
		return err
	}
	if h.present[name] {
		return ErrModuleExists
	}
	h.modules = append(h.modules, m)
	h.present[name] = true
	h.st.AppendEvent(events.ModuleRegistered{Name: name})
	return nil
}

// RemoveModule drops a module by name, swap-and-truncate; registry order
// is not preserved. Privileged surface.
func (h *Hub) RemoveModule(name string) error {
	if !h.present[name] {
		return ErrModuleNotFound
	}
	for i, m := range h.modules {
		if moduleName(m) == name {
			last := len(h.modules) - 1
			h.modules[i] = h.modules[last]
			h.modules[last] = nil
			h.modules = h.modules[:last]
			break
		}
	}
	delete(h.present, name)
	h.st.AppendEvent(events.ModuleRemoved{Name: name})
	return nil
}

// HasModule reports registry membership.
func (h *Hub) HasModule(name string) bool { return h.present[name] }

// SetPenaltyModule wires the penalty source. Privileged surface.
func (h *Hub) SetPenaltyModule(p points.PenaltySource) { h.penalty = p }

// SetRewardToken wires the custody token. Privileged surface.
func (h *Hub) SetRewardToken(t RewardToken) { h.token = t }

// SetExchangeRate sets the points-to-token rate at fixedmath.Scale
// precision.
// Privileged surface.
func (h *Hub) SetExchangeRate(rate *big.Int) error {
	if rate == nil || rate.Sign() < 0 {
		return points.ErrRateOutOfRange
	}
	h.exchangeRate = points.CopyAmount(rate)
	return nil
}

// SetRedeemEnabled toggles redemption. Privileged surface.
func (h *Hub) SetRedeemEnabled(enabled bool) { h.redeemEnabled = enabled }

// SetMaxRedeemPerTx caps single redemptions; nil or zero removes the cap.
// Privileged surface.
func (h *Hub) SetMaxRedeemPerTx(cap *big.Int) {
	if cap == nil || cap.Sign() <= 0 {
		h.maxRedeemPerTx = nil
		return
	}
	h.maxRedeemPerTx = points.CopyAmount(cap)
}

func moduleName(m points.Module) (name string) {
	defer func() {
		if recover() != nil {
			name = ""
		}
	}()
	return m.ModuleName()
}

// queryModule runs one module query under the isolation boundary.
func queryModule(m points.Module, addr [20]byte) (amount *big.Int, reason string) {
	defer func() {
		if r := recover(); r != nil {
			amount = nil
			reason = fmt.Sprintf("panic: %v", r)
		}
	}()
	if !m.IsActive() {
		return big.NewInt(0), ""
	}
	value, err := m.GetPoints(addr)
	if err != nil {
		return nil, err.Error()
	}
	if value == nil || value.Sign() < 0 {
		return nil, "malformed return"
	}
	return value, ""
}

// GetPointsBreakdown returns each module's contribution. A faulting module
// appears with OK=false and zero points; the call never propagates module
// failures.
func (h *Hub) GetPointsBreakdown(addr [20]byte) []ModulePoints {
	breakdown := make([]ModulePoints, 0, len(h.modules))
	for _, m := range h.modules {
		name := moduleName(m)
		value, reason := queryModule(m, addr)
		if value == nil {
			h.st.AppendEvent(events.ModuleFault{Name: name, User: addr, Reason: reason})
			breakdown = append(breakdown, ModulePoints{Name: name, Points: big.NewInt(0)})
			continue
		}
		breakdown = append(breakdown, ModulePoints{Name: name, Points: value, OK: true})
	}
	return breakdown
}

// GetTotalPoints sums the per-module contributions.
func (h *Hub) GetTotalPoints(addr [20]byte) *big.Int {
	total := big.NewInt(0)
	for _, row := range h.GetPointsBreakdown(addr) {
		total.Add(total, row.Points)
	}
	return total
}

// GetClaimablePoints nets penalties and prior redemptions out of the
// aggregate, saturating at zero. A penalty-source failure propagates
// rather than being zeroed: the isolation boundary covers earning modules
// only, and a dropped penalty overstates claimable.
func (h *Hub) GetClaimablePoints(addr [20]byte) (*big.Int, error) {
	total := h.GetTotalPoints(addr)
	if h.penalty != nil {
		penalty, err := h.penalty.GetPenalty(addr)
		if err != nil {
			return nil, fmt.Errorf("hub: penalty query: %w", err)
		}
		if penalty != nil && penalty.Sign() > 0 {
			total.Sub(total, penalty)
		}
	}
	redeemed, err := h.st.RedeemedPoints(addr)
	if err != nil {
		return nil, fmt.Errorf("hub: load redeemed: %w", err)
	}
	if redeemed != nil {
		total.Sub(total, redeemed)
	}
	if total.Sign() < 0 {
		total.SetInt64(0)
	}
	return total, nil
}

// PreviewRedeem converts points to the token amount the current exchange
// rate would pay.
func (h *Hub) PreviewRedeem(amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, points.ErrZeroAmount
	}
	out, err := fixedmath.MulDiv(amount, h.exchangeRate, fixedmath.Scale())
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Redeem burns claimable points for reward tokens. The redemption ledger
// is advanced before the token transfer so a reentrant token cannot
// observe stale claimable state; a failed transfer unwinds the ledger.
func (h *Hub) Redeem(addr [20]byte, amount *big.Int) (*big.Int, error) {
	if addr == ([20]byte{}) {
		return nil, points.ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, points.ErrZeroAmount
	}
	if !h.redeemEnabled {
		return nil, ErrRedeemDisabled
	}
	if h.exchangeRate == nil || h.exchangeRate.Sign() == 0 {
		return nil, ErrExchangeRateUnset
	}
	if h.token == nil {
		return nil, ErrTokenUnset
	}
	if h.maxRedeemPerTx != nil && amount.Cmp(h.maxRedeemPerTx) > 0 {
		return nil, ErrRedeemCapExceeded
	}
	claimable, err := h.GetClaimablePoints(addr)
	if err != nil {
		return nil, err
	}
	if amount.Cmp(claimable) > 0 {
		return nil, fmt.Errorf("%w: claimable %s", ErrInsufficientClaimable, claimable)
	}
	tokenAmount, err := h.PreviewRedeem(amount)
	if err != nil {
		return nil, err
	}
	custody, err := h.token.CustodyBalance()
	if err != nil {
		return nil, fmt.Errorf("hub: custody query: %w", err)
	}
	if custody.Cmp(tokenAmount) < 0 {
		return nil, fmt.Errorf("%w: have %s need %s", ErrInsufficientCustody, custody, tokenAmount)
	}

	redeemed, err := h.st.RedeemedPoints(addr)
	if err != nil {
		return nil, fmt.Errorf("hub: load redeemed: %w", err)
	}
	newRedeemed := new(big.Int).Add(points.CopyAmount(redeemed), amount)
	if err := h.st.SetRedeemedPoints(addr, newRedeemed); err != nil {
		return nil, err
	}
	totalRedeemed, err := h.st.TotalRedeemedPoints()
	if err != nil {
		return nil, fmt.Errorf("hub: load total redeemed: %w", err)
	}
	newTotal := new(big.Int).Add(points.CopyAmount(totalRedeemed), amount)
	if err := h.st.SetTotalRedeemedPoints(newTotal); err != nil {
		return nil, err
	}

	if err := h.token.Transfer(addr, tokenAmount); err != nil {
		// Unwind the ledger advance so a custody race does not strand
		// unredeemed points.
		_ = h.st.SetRedeemedPoints(addr, points.CopyAmount(redeemed))
		_ = h.st.SetTotalRedeemedPoints(points.CopyAmount(totalRedeemed))
		return nil, fmt.Errorf("hub: transfer: %w", err)
	}
	h.st.AppendEvent(events.Redeemed{
		User:        addr,
		Points:      points.CopyAmount(amount),
		TokenAmount: points.CopyAmount(tokenAmount),
	})
	return tokenAmount, nil
}
