package engine

import (
	"strings"
	"sync"
	"time"

	"github.com/getmockd/contractmock/internal/matching"
)

// JournalEntry records one served exchange.
type JournalEntry struct {
	ID          string              `json:"id"`
	Timestamp   time.Time           `json:"timestamp"`
	Method      string              `json:"method"`
	Path        string              `json:"path"`
	QueryString string              `json:"queryString,omitempty"`
	Body        string              `json:"body,omitempty"`
	StubID      string              `json:"stubId,omitempty"`
	Status      int                 `json:"status"`
	Outcome     string              `json:"outcome"`
	DurationMs  int                 `json:"durationMs"`
	NearMisses  []matching.NearMiss `json:"nearMisses,omitempty"`
}

// JournalFilter narrows List results. Zero fields match everything.
type JournalFilter struct {
	Method  string
	Path    string // prefix
	StubID  string
	Outcome string
	Limit   int
}

// Journal is an in-memory ring of recent exchanges.
type Journal struct {
	entries    []*JournalEntry
	maxEntries int
	mu         sync.RWMutex
}

// NewJournal creates a Journal holding at most maxEntries entries.
func NewJournal(maxEntries int) *Journal {
	if maxEntries <= 0 {
		maxEntries = 1000 // Default
	}
	return &Journal{
		entries:    make([]*JournalEntry, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

// Log records an entry, evicting the oldest when full.
func (j *Journal) Log(entry *JournalEntry) {
	if entry == nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	// FIFO eviction: remove oldest if at capacity
	if len(j.entries) >= j.maxEntries {
		j.entries = j.entries[1:]
	}
	j.entries = append(j.entries, entry)
}

// List returns entries newest first, optionally filtered.
func (j *Journal) List(filter *JournalFilter) []*JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	result := make([]*JournalEntry, 0, len(j.entries))
	for i := len(j.entries) - 1; i >= 0; i-- {
		entry := j.entries[i]
		if filter != nil && !filter.matches(entry) {
			continue
		}
		result = append(result, entry)
		if filter != nil && filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result
}

func (f *JournalFilter) matches(entry *JournalEntry) bool {
	if f.Method != "" && !strings.EqualFold(entry.Method, f.Method) {
		return false
	}
	if f.Path != "" && !strings.HasPrefix(entry.Path, f.Path) {
		return false
	}
	if f.StubID != "" && entry.StubID != f.StubID {
		return false
	}
	if f.Outcome != "" && entry.Outcome != f.Outcome {
		return false
	}
	return true
}

// Clear removes all entries.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = make([]*JournalEntry, 0, j.maxEntries)
}

// Count returns the number of entries.
func (j *Journal) Count() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}
