package events

import (
	"math/big"

	"pointshub/core/types"
)

const (
	// TypeClaimSettled records a successful cumulative claim.
	TypeClaimSettled = "points.claim.settled"
	// TypeClaimSkipped records a batch entry that was skipped rather than
	// aborting the batch.
	TypeClaimSkipped = "points.claim.skipped"
	// TypePenaltyRecorded records a confirmed-penalty ledger advance.
	TypePenaltyRecorded = "points.claim.penaltyRecorded"
	// TypeRootQueued records a pending Merkle root entering the timelock.
	TypeRootQueued = "points.root.queued"
	// TypeRootActivated records a pending root becoming active.
	TypeRootActivated = "points.root.activated"
	// TypeRootCancelled records a pending root cleared before activation.
	TypeRootCancelled = "points.root.cancelled"

	// SkipReasonInvalidProof marks a batch entry whose Merkle proof failed
	// verification against the active root.
	SkipReasonInvalidProof = "invalid_proof"
	// SkipReasonNothingToClaim marks a batch entry whose cumulative total
	// does not exceed the recorded ledger value.
	SkipReasonNothingToClaim = "nothing_to_claim"
)

// ClaimSettled captures a cumulative claim moving the ledger forward.
type ClaimSettled struct {
	User     [20]byte
	Total    *big.Int
	Delta    *big.Int
	Root     [32]byte
	Epoch    uint64
	ViaBatch bool
}

// EventType satisfies the Event interface.
func (ClaimSettled) EventType() string { return TypeClaimSettled }

// Event renders the attribute form.
func (e ClaimSettled) Event() *types.Event {
	return &types.Event{
		Type: TypeClaimSettled,
		Attributes: map[string]string{
			"user":     formatAddr(e.User),
			"total":    formatAmount(e.Total),
			"delta":    formatAmount(e.Delta),
			"root":     formatHash(e.Root),
			"epoch":    uintToString(e.Epoch),
			"viaBatch": boolToString(e.ViaBatch),
		},
	}
}

// ClaimSkipped captures a rejected batch entry with its distinguishing
// skip reason.
type ClaimSkipped struct {
	User   [20]byte
	Total  *big.Int
	Reason string
}

// EventType satisfies the Event interface.
func (ClaimSkipped) EventType() string { return TypeClaimSkipped }

// Event renders the attribute form.
func (e ClaimSkipped) Event() *types.Event {
	return &types.Event{
		Type: TypeClaimSkipped,
		Attributes: map[string]string{
			"user":   formatAddr(e.User),
			"total":  formatAmount(e.Total),
			"reason": e.Reason,
		},
	}
}

// PenaltyRecorded captures a confirmed-penalty ledger advance.
type PenaltyRecorded struct {
	User     [20]byte
	Total    *big.Int
	Delta    *big.Int
	Root     [32]byte
	ViaBatch bool
}

// EventType satisfies the Event interface.
func (PenaltyRecorded) EventType() string { return TypePenaltyRecorded }

// Event renders the attribute form.
func (e PenaltyRecorded) Event() *types.Event {
	return &types.Event{
		Type: TypePenaltyRecorded,
		Attributes: map[string]string{
			"user":     formatAddr(e.User),
			"total":    formatAmount(e.Total),
			"delta":    formatAmount(e.Delta),
			"root":     formatHash(e.Root),
			"viaBatch": boolToString(e.ViaBatch),
		},
	}
}

// RootQueued captures a new Merkle root entering the activation delay.
type RootQueued struct {
	Root          [32]byte
	EffectiveTime uint64
	Metadata      string
}

// EventType satisfies the Event interface.
func (RootQueued) EventType() string { return TypeRootQueued }

// Event renders the attribute form.
func (e RootQueued) Event() *types.Event {
	return &types.Event{
		Type: TypeRootQueued,
		Attributes: map[string]string{
			"root":          formatHash(e.Root),
			"effectiveTime": uintToString(e.EffectiveTime),
			"metadata":      e.Metadata,
		},
	}
}

// RootActivated captures a root transition into the active slot.
type RootActivated struct {
	Root      [32]byte
	Epoch     uint64
	Emergency bool
}

// EventType satisfies the Event interface.
func (RootActivated) EventType() string { return TypeRootActivated }

// Event renders the attribute form.
func (e RootActivated) Event() *types.Event {
	return &types.Event{
		Type: TypeRootActivated,
		Attributes: map[string]string{
			"root":      formatHash(e.Root),
			"epoch":     uintToString(e.Epoch),
			"emergency": boolToString(e.Emergency),
		},
	}
}

// RootCancelled captures a pending root cleared before activation.
type RootCancelled struct {
	Root [32]byte
}

// EventType satisfies the Event interface.
func (RootCancelled) EventType() string { return TypeRootCancelled }

// Event renders the attribute form.
func (e RootCancelled) Event() *types.Event {
	return &types.Event{
		Type: TypeRootCancelled,
		Attributes: map[string]string{
			"root": formatHash(e.Root),
		},
	}
}
