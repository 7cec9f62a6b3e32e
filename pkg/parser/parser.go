// Package parser probes document formats just far enough to confirm they
// parse: open the container, walk the primary content member, and report a
// typed failure on malformed input. Content is discarded; these probes exist
// so the evaluator can classify parse failures, not to extract text.
package parser

import "errors"

// ErrFormatMismatch marks bytes that parse as a different format family than
// their extension implies. Extension/content mismatches can be used to dodge
// per-extension limits, so callers treat this as a flagged condition.
var ErrFormatMismatch = errors.New("file content does not match its extension's format family")
