package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/praetorian-inc/cato/pkg/types"
)

// SQLiteStore implements Store using SQLite (pure-Go driver, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// AddOutcome records one outcome for a target.
func (s *SQLiteStore) AddOutcome(target string, outcome types.Outcome) error {
	cause := ""
	if outcome.Cause != nil {
		cause = outcome.Cause.Error()
	}

	_, err := s.db.Exec(`
		INSERT INTO outcomes (target, display_path, flagged, status, size, extension, details, cause, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		target,
		outcome.DisplayPath,
		outcome.Flagged,
		string(outcome.Status),
		outcome.Size,
		outcome.Extension,
		outcome.Details,
		cause,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting outcome: %w", err)
	}
	return nil
}

// Outcomes retrieves all records, oldest first.
func (s *SQLiteStore) Outcomes() ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT id, target, display_path, flagged, status, size, extension, details, cause, checked_at
		FROM outcomes ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r         Record
			status    string
			cause     string
			checkedAt string
		)
		if err := rows.Scan(&r.ID, &r.Target, &r.Outcome.DisplayPath, &r.Outcome.Flagged,
			&status, &r.Outcome.Size, &r.Outcome.Extension, &r.Outcome.Details,
			&cause, &checkedAt); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		r.Outcome.Status = types.Status(status)
		if cause != "" {
			r.Outcome.Cause = fmt.Errorf("%s", cause)
		}
		if t, err := time.Parse(time.RFC3339Nano, checkedAt); err == nil {
			r.CheckedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Summary aggregates the stored records.
func (s *SQLiteStore) Summary() (Summary, error) {
	var sum Summary
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(flagged), 0), COALESCE(SUM(size), 0) FROM outcomes
	`).Scan(&sum.Total, &sum.Flagged, &sum.TotalBytes)
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing outcomes: %w", err)
	}
	return sum, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// createSchema initializes the outcomes table.
func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS outcomes (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			target       TEXT NOT NULL,
			display_path TEXT NOT NULL,
			flagged      INTEGER NOT NULL,
			status       TEXT NOT NULL,
			size         INTEGER NOT NULL,
			extension    TEXT NOT NULL DEFAULT '',
			details      TEXT NOT NULL DEFAULT '',
			cause        TEXT NOT NULL DEFAULT '',
			checked_at   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_outcomes_flagged ON outcomes(flagged);
	`)
	return err
}
