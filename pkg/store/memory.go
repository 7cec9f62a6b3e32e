package store

import (
	"sync"
	"time"

	"github.com/praetorian-inc/cato/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []Record
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// AddOutcome records one outcome for a target.
func (m *MemoryStore) AddOutcome(target string, outcome types.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, Record{
		ID:        m.nextID,
		Target:    target,
		Outcome:   outcome,
		CheckedAt: time.Now().UTC(),
	})
	m.nextID++
	return nil
}

// Outcomes retrieves all records, oldest first.
func (m *MemoryStore) Outcomes() ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Summary aggregates the stored records.
func (m *MemoryStore) Summary() (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s Summary
	for _, r := range m.records {
		s.Total++
		s.TotalBytes += r.Outcome.Size
		if r.Outcome.Flagged {
			s.Flagged++
		}
	}
	return s, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}
