// Package store persists evaluation outcomes so a check run can be reported
// on later.
package store

import (
	"fmt"
	"time"

	"github.com/praetorian-inc/cato/pkg/types"
)

// Record is one stored outcome.
type Record struct {
	// ID is the storage-assigned row identifier.
	ID int64

	// Target is the top-level path the check was invoked on.
	Target string

	// Outcome is the evaluation result.
	Outcome types.Outcome

	// CheckedAt is when the outcome was recorded.
	CheckedAt time.Time
}

// Summary aggregates a run for the CLI footer.
type Summary struct {
	Total      int
	Flagged    int
	TotalBytes int64
}

// Store provides persistence for evaluation outcomes.
// This interface abstracts the underlying storage implementation.
type Store interface {
	// AddOutcome records one outcome for a target.
	AddOutcome(target string, outcome types.Outcome) error

	// Outcomes retrieves all records, oldest first.
	Outcomes() ([]Record, error)

	// Summary aggregates the stored records.
	Summary() (Summary, error)

	// Close closes the underlying storage.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store (useful for testing).
	Path string
}

// New creates a store. ":memory:" paths get the in-memory implementation;
// file paths get SQLite.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}
	return NewSQLite(cfg.Path)
}
