package types

// Event is a typed record emitted during ledger mutations, shaped as a
// flat attribute map for downstream log and metrics sinks.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
