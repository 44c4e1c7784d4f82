package reconcile

import (
	"slices"
	"time"
)

// DefaultWindow is how long an optimistic value masks the authoritative one.
const DefaultWindow = 4000 * time.Millisecond

// Entry is one locally issued, unconfirmed change.
type Entry struct {
	Field    Field
	Value    any
	IssuedAt time.Time
	Seq      uint64 // identifies the dispatch that created the entry
}

// Ledger holds at most one entry per field, each with its own window.
// It is not safe for concurrent use; the Engine serializes access.
type Ledger struct {
	window  time.Duration
	entries map[Field]Entry
	seq     uint64
}

func NewLedger(window time.Duration) *Ledger {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Ledger{window: window, entries: map[Field]Entry{}}
}

// Window returns the suppression window.
func (l *Ledger) Window() time.Duration { return l.window }

// NextSeq reserves a dispatch sequence number.
func (l *Ledger) NextSeq() uint64 {
	l.seq++
	return l.seq
}

// Record stores value for f, replacing any earlier entry and restarting its window.
func (l *Ledger) Record(f Field, value any, now time.Time, seq uint64) Entry {
	e := Entry{Field: f, Value: value, IssuedAt: now, Seq: seq}
	l.entries[f] = e
	return e
}

// Drop removes the entry for f only if it was created by dispatch seq.
// A newer issue on the same field is left alone.
func (l *Ledger) Drop(f Field, seq uint64) bool {
	e, ok := l.entries[f]
	if !ok || e.Seq != seq {
		return false
	}
	delete(l.entries, f)
	return true
}

// Discard removes the entry for f whatever dispatch created it.
func (l *Ledger) Discard(f Field) bool {
	_, ok := l.entries[f]
	delete(l.entries, f)
	return ok
}

// Prune removes every entry whose age has reached the window and returns their fields.
func (l *Ledger) Prune(now time.Time) []Field {
	var expired []Field
	for f, e := range l.entries {
		if now.Sub(e.IssuedAt) >= l.window {
			expired = append(expired, f)
			delete(l.entries, f)
		}
	}
	slices.Sort(expired)
	return expired
}

// Get returns the entry for f.
func (l *Ledger) Get(f Field) (Entry, bool) {
	e, ok := l.entries[f]
	return e, ok
}

// Entries returns the live entries sorted by field so merges are deterministic.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.Field < b.Field:
			return -1
		case a.Field > b.Field:
			return 1
		}
		return 0
	})
	return out
}

func (l *Ledger) Len() int { return len(l.entries) }
