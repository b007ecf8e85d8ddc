// Package history records the edit commands a wiki editor has executed,
// together with per-command diff statistics, so the recent activity can be
// rendered back to the model.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Entry is one executed (or attempted) edit command.
type Entry struct {
	ID        string
	Timestamp time.Time
	Command   string
	Success   bool
	Error     string
	Changes   int
	Additions int
	Deletions int
}

// Store keeps a bounded, newest-last list of entries. When the bound is
// exceeded the oldest entries are dropped.
type Store struct {
	mu      sync.Mutex
	max     int
	entries []Entry
}

// NewStore creates a store keeping at most max entries; max <= 0 means
// unbounded.
func NewStore(max int) *Store {
	return &Store{max: max}
}

// Record appends an entry for one command execution, computing character
// addition/deletion counts from the before and after document text.
func (s *Store) Record(command string, success bool, errMsg string, changes int, before, after string) Entry {
	additions, deletions := diffStats(before, after)
	entry := Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Command:   command,
		Success:   success,
		Error:     errMsg,
		Changes:   changes,
		Additions: additions,
		Deletions: deletions,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if s.max > 0 && len(s.entries) > s.max {
		s.entries = s.entries[len(s.entries)-s.max:]
	}
	return entry
}

// Entries returns a copy of all recorded entries, oldest first.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Tail returns the most recent n entries, oldest first.
func (s *Store) Tail(n int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]Entry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out
}

// Len returns the number of recorded entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// diffStats counts added and deleted characters between two document
// versions.
func diffStats(before, after string) (additions, deletions int) {
	if before == after {
		return 0, 0
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, true)
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			additions += len(diff.Text)
		case diffmatchpatch.DiffDelete:
			deletions += len(diff.Text)
		}
	}
	return additions, deletions
}
