// Package ledger tracks which identities have been marked present during a run
// and appends each first sighting to the daily attendance log.
package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// Record is one presence event.
type Record struct {
	Name      string
	Timestamp time.Time
}

// RecordWriter durably appends records.
type RecordWriter interface {
	Append(rec Record) error
}

// Ledger holds the pending set of a run. It is not safe for concurrent use;
// the session loop is its only caller.
type Ledger struct {
	pending map[string]struct{}
	records []Record
	writer  RecordWriter
}

// New creates a ledger whose pending set contains every given name.
func New(names []string, writer RecordWriter) *Ledger {
	pending := make(map[string]struct{}, len(names))
	for _, name := range names {
		pending[name] = struct{}{}
	}
	return &Ledger{
		pending: pending,
		writer:  writer,
	}
}

// Consider marks name present at now if it is still pending. It returns true when a
// record was written. Unknown and already recorded names are ignored. If the write
// fails the name stays pending and the error is returned.
func (l *Ledger) Consider(name string, now time.Time) (bool, error) {
	if name == facematch.Unknown || !l.IsPending(name) {
		return false, nil
	}

	// Rows stay in chronological order even if the wall clock steps backwards.
	if n := len(l.records); n > 0 && now.Before(l.records[n-1].Timestamp) {
		now = l.records[n-1].Timestamp
	}

	rec := Record{Name: name, Timestamp: now}
	delete(l.pending, name)
	if err := l.writer.Append(rec); err != nil {
		l.pending[name] = struct{}{}
		return false, fmt.Errorf("recording %s: %w", name, err)
	}
	l.records = append(l.records, rec)
	return true, nil
}

// IsPending reports whether name has not been recorded yet.
func (l *Ledger) IsPending(name string) bool {
	_, ok := l.pending[name]
	return ok
}

// Pending returns the names not yet recorded, sorted.
func (l *Ledger) Pending() []string {
	names := make([]string, 0, len(l.pending))
	for name := range l.pending {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Records returns the records written during this run, in order.
func (l *Ledger) Records() []Record {
	return slices.Clone(l.records)
}
