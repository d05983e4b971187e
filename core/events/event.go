package events

import "pointshub/core/types"

// Event is a structured state change emitted by an engine. Every event can
// render itself into the flat attribute form consumed by log sinks.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Sink receives events as engines emit them.
type Sink interface {
	AppendEvent(evt Event)
}

// NoopSink discards all events; useful for tests that only assert ledger
// state.
type NoopSink struct{}

// AppendEvent implements the Sink interface.
func (NoopSink) AppendEvent(Event) {}

// MemorySink buffers events in order of emission.
type MemorySink struct {
	Events []Event
}

// AppendEvent implements the Sink interface.
func (s *MemorySink) AppendEvent(evt Event) {
	s.Events = append(s.Events, evt)
}

// ByType filters the buffered events to the given type.
func (s *MemorySink) ByType(eventType string) []Event {
	var out []Event
	for _, evt := range s.Events {
		if evt.EventType() == eventType {
			out = append(out, evt)
		}
	}
	return out
}
