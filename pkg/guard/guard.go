// Package guard adapts the evaluator for host applications that sit in
// front of a content-extraction pipeline: give it a path or a raw byte
// buffer plus its original filename, and it either passes the document or
// rejects it with a security error carrying the full outcome.
package guard

import (
	"fmt"

	"github.com/praetorian-inc/cato"
	"github.com/praetorian-inc/cato/pkg/types"
)

// SecurityError is returned when a document is flagged. It wraps the full
// outcome so callers can log the status and display path of the finding.
type SecurityError struct {
	Outcome types.Outcome
}

// Error renders the rejection the way an indexing pipeline would log it.
func (e *SecurityError) Error() string {
	return fmt.Sprintf("security violation detected in document %q: %s - %s",
		e.Outcome.DisplayPath, e.Outcome.Status, e.Outcome.Details)
}

// Unwrap exposes the underlying parser or I/O failure, when one exists.
func (e *SecurityError) Unwrap() error {
	return e.Outcome.Cause
}

// Guard validates documents before a host application processes them.
type Guard struct {
	evaluator *cato.Evaluator
}

// New creates a Guard around an evaluator. A nil evaluator gets defaults.
func New(evaluator *cato.Evaluator) (*Guard, error) {
	if evaluator == nil {
		ev, err := cato.NewEvaluator()
		if err != nil {
			return nil, err
		}
		evaluator = ev
	}
	return &Guard{evaluator: evaluator}, nil
}

// ValidatePath checks the file at path. A flagged outcome becomes a
// *SecurityError; a clean outcome returns nil.
func (g *Guard) ValidatePath(path string) error {
	return reject(g.evaluator.Evaluate(path))
}

// ValidateBytes checks a raw document buffer. The filename preserves the
// extension for format routing and names the document in any rejection.
// The staging temporary file never outlives this call.
func (g *Guard) ValidateBytes(content []byte, filename string) error {
	return reject(g.evaluator.EvaluateBytes(content, filename))
}

func reject(outcome types.Outcome) error {
	if outcome.Flagged {
		return &SecurityError{Outcome: outcome}
	}
	return nil
}
