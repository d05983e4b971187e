package events

import (
	"math/big"

	"pointshub/core/types"
)

const (
	// TypeRedeemed records a points-to-token redemption.
	TypeRedeemed = "points.hub.redeemed"
	// TypeModuleRegistered records an earning module joining the registry.
	TypeModuleRegistered = "points.hub.moduleRegistered"
	// TypeModuleRemoved records an earning module leaving the registry.
	TypeModuleRemoved = "points.hub.moduleRemoved"
	// TypeModuleFault records a registered module failing a query; the
	// aggregate treated it as a zero contribution.
	TypeModuleFault = "points.hub.moduleFault"
)

// Redeemed captures a successful redemption.
type Redeemed struct {
	User        [20]byte
	Points      *big.Int
	TokenAmount *big.Int
}

// EventType satisfies the Event interface.
func (Redeemed) EventType() string { return TypeRedeemed }

// Event renders the attribute form.
func (e Redeemed) Event() *types.Event {
	return &types.Event{
		Type: TypeRedeemed,
		Attributes: map[string]string{
			"user":        formatAddr(e.User),
			"points":      formatAmount(e.Points),
			"tokenAmount": formatAmount(e.TokenAmount),
		},
	}
}

// ModuleRegistered captures a registry addition.
type ModuleRegistered struct {
	Name string
}

// EventType satisfies the Event interface.
func (ModuleRegistered) EventType() string { return TypeModuleRegistered }

// Event renders the attribute form.
func (e ModuleRegistered) Event() *types.Event {
	return &types.Event{Type: TypeModuleRegistered, Attributes: map[string]string{"name": e.Name}}
}

// ModuleRemoved captures a registry removal.
type ModuleRemoved struct {
	Name string
}

// EventType satisfies the Event interface.
func (ModuleRemoved) EventType() string { return TypeModuleRemoved }

// Event renders the attribute form.
func (e ModuleRemoved) Event() *types.Event {
	return &types.Event{Type: TypeModuleRemoved, Attributes: map[string]string{"name": e.Name}}
}

// ModuleFault captures an isolated module failure during aggregation.
type ModuleFault struct {
	Name   string
	User   [20]byte
	Reason string
}

// EventType satisfies the Event interface.
func (ModuleFault) EventType() string { return TypeModuleFault }

// Event renders the attribute form.
func (e ModuleFault) Event() *types.Event {
	return &types.Event{
		Type: TypeModuleFault,
		Attributes: map[string]string{
			"name":   e.Name,
			"user":   formatAddr(e.User),
			"reason": e.Reason,
		},
	}
}
