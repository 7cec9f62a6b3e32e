// Package archive inspects archive directories for decompression-bomb
// anomalies and performs bounded extraction of nested entries.
//
// The structural pass reads only the archive's entry directory (names and
// declared sizes); entry bodies are never decompressed during analysis.
package archive

import (
	"github.com/praetorian-inc/cato/pkg/types"
)

// Entry describes one non-directory entry found during structural analysis.
type Entry struct {
	Name         string
	Extension    string
	Compressed   uint64
	Uncompressed uint64
}

// Analysis is the result of a structural pass over one archive.
type Analysis struct {
	// Status classifies the pass. Empty only when Failure is set.
	Status types.Status

	// Flagged mirrors Status: true for policy violations.
	Flagged bool

	// Details is the human-readable diagnostic for a violation.
	Details string

	// Failure is set when the archive opened far enough to look like an
	// archive but failed mid-read. The caller classifies it.
	Failure *types.ParserFailure

	// Entries lists the non-directory entries, for the recursion pass.
	// Populated only when the structure passed.
	Entries []Entry

	// TotalUncompressed is the sum of declared uncompressed entry sizes.
	TotalUncompressed uint64
}

// Extraction is the result of extracting one entry to temporary storage.
type Extraction struct {
	// Path is the temporary file holding the entry bytes. Set only when
	// Status is empty. The caller owns the file and must remove it.
	Path string

	// Status is NESTED_ENTRY_TOO_LARGE or NESTED_ENTRY_EXTRACTION_OVERFLOW
	// when the extraction was refused or aborted; empty on success.
	Status types.Status

	// Details describes a refusal.
	Details string
}

// Refused reports whether the extraction was stopped by the extraction cap.
func (e Extraction) Refused() bool {
	return e.Status != ""
}
