package merkleclaim

// DefaultHistoryCapacity bounds the retained root audit trail.
const DefaultHistoryCapacity = 32

// RootRecord is one activated root with its activation timestamp.
type RootRecord struct {
	Root        [32]byte
	ActivatedAt uint64
}

// TimelockState is the persisted pending/active root machine plus the
// bounded history ring. The ring overwrites its oldest entry once full;
// reads beyond the current length are rejected.
type TimelockState struct {
	ActiveRoot       [32]byte
	PendingRoot      [32]byte
	PendingEffective uint64
	PendingMetadata  string
	Epoch            uint64
	History          []RootRecord
	HistoryHead      int
	HistoryFull      bool
}

// Clone produces a deep copy of the timelock state.
func (t *TimelockState) Clone() *TimelockState {
	if t == nil {
		return nil
	}
	out := *t
	out.History = append([]RootRecord(nil), t.History...)
	return &out
}

// HasPending reports whether a root is waiting out its delay.
func (t *TimelockState) HasPending() bool {
	return t.PendingRoot != ([32]byte{})
}

// HistoryLen reports how many records the ring currently holds.
func (t *TimelockState) HistoryLen(capacity int) int {
	if t.HistoryFull {
		return capacity
	}
	return t.HistoryHead
}

// HistoryAt returns the i-th most recent record, 0 being the latest.
func (t *TimelockState) HistoryAt(i, capacity int) (RootRecord, error) {
	length := t.HistoryLen(capacity)
	if i < 0 || i >= length {
		return RootRecord{}, ErrHistoryRange
	}
	idx := (t.HistoryHead - 1 - i + capacity) % capacity
	return t.History[idx], nil
}

// appendHistory pushes a record, evicting the oldest when the ring is
// full.
func (t *TimelockState) appendHistory(record RootRecord, capacity int) {
	if len(t.History) < capacity {
		t.History = append(t.History, RootRecord{})
	}
	t.History[t.HistoryHead] = record
	t.HistoryHead = (t.HistoryHead + 1) % capacity
	if t.HistoryHead == 0 {
		t.HistoryFull = true
	}
}

// promotePending moves the pending root into the active slot, archiving
// the displaced active root and advancing the epoch.
func (t *TimelockState) promotePending(now uint64, capacity int) [32]byte {
	if t.ActiveRoot != ([32]byte{}) {
		t.appendHistory(RootRecord{Root: t.ActiveRoot, ActivatedAt: now}, capacity)
	}
	activated := t.PendingRoot
	t.ActiveRoot = t.PendingRoot
	t.PendingRoot = [32]byte{}
	t.PendingEffective = 0
	t.PendingMetadata = ""
	t.Epoch++
	return activated
}
