// Package classify decides whether a parser failure looks like a
// decompression bomb or ordinary corruption.
//
// The decision is a vocabulary heuristic, not a sound contract: a failure
// whose kind or message mentions archive- or bomb-related words is treated
// as an attack, everything else as benign breakage. Both false positives and
// false negatives are possible; callers that need different behavior supply
// their own Func.
package classify

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/praetorian-inc/cato/pkg/types"
)

// Func maps a parser failure to a status and a flagged decision.
type Func func(types.ParserFailure) (types.Status, bool)

// vocabulary are the substrings that mark a failure as bomb-like. Matching
// is case-insensitive over kind and message together.
var vocabulary = []string{
	"zip",
	"bomb",
	"corrupt",
	"uncompressed",
	"ratio",
	"record format",
	"too large",
}

// Default returns the stock classifier.
func Default() Func {
	matcher := ahocorasick.NewStringMatcher(vocabulary)

	return func(f types.ParserFailure) (types.Status, bool) {
		haystack := strings.ToLower(f.Kind + " " + f.Message)
		if len(matcher.Match([]byte(haystack))) > 0 {
			return types.StatusPossibleZipBomb, true
		}
		return types.StatusProcessingError, false
	}
}
