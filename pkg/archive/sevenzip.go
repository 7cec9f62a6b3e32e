package archive

import (
	"fmt"
	"os"

	"github.com/bodgit/sevenzip"

	"github.com/praetorian-inc/cato/pkg/policy"
	"github.com/praetorian-inc/cato/pkg/types"
)

// Analyze7z runs the structural pass over a 7z archive. 7z solid streams do
// not expose per-entry compressed sizes, so the ratio rule is enforced for
// the archive as a whole: total declared uncompressed bytes against the
// container's size on disk. Absolute entry and total ceilings apply as for
// zip.
func Analyze7z(path string, limits policy.Limits) Analysis {
	info, err := os.Stat(path)
	if err != nil {
		failure := types.NewParserFailure("io", err)
		return Analysis{Failure: &failure}
	}

	reader, err := sevenzip.OpenReader(path)
	if err != nil {
		failure := types.NewParserFailure("7z", err)
		return Analysis{Failure: &failure}
	}
	defer reader.Close()

	analysis := Analysis{Status: types.StatusValid7z}

	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}

		uncompressed := f.UncompressedSize

		if uncompressed > limits.MaxEntrySize {
			return Analysis{
				Status:  types.StatusEntrySizeLimitExceeded,
				Flagged: true,
				Details: fmt.Sprintf("entry %q: uncompressed size %d bytes exceeds limit of %d bytes",
					f.Name, uncompressed, limits.MaxEntrySize),
			}
		}

		analysis.TotalUncompressed += uncompressed
		if analysis.TotalUncompressed > limits.MaxTotalSize {
			return Analysis{
				Status:  types.StatusTotalSizeLimitExceeded,
				Flagged: true,
				Details: fmt.Sprintf("total uncompressed size %d bytes exceeds maximum allowed %d bytes",
					analysis.TotalUncompressed, limits.MaxTotalSize),
			}
		}

		analysis.Entries = append(analysis.Entries, Entry{
			Name:         f.Name,
			Extension:    types.Extension(f.Name),
			Uncompressed: uncompressed,
		})

		if limits.MaxEntryCount > 0 && len(analysis.Entries) > limits.MaxEntryCount {
			return Analysis{
				Status:  types.StatusEntryCountLimitExceeded,
				Flagged: true,
				Details: fmt.Sprintf("archive directory lists more than %d entries", limits.MaxEntryCount),
			}
		}
	}

	if size := info.Size(); size > 0 {
		if ratio := analysis.TotalUncompressed / uint64(size); ratio > limits.MaxCompressionRatio {
			return Analysis{
				Status:  types.StatusExcessiveRatio,
				Flagged: true,
				Details: fmt.Sprintf("archive expands at %d:1 (container: %d bytes, declared contents: %d bytes)",
					ratio, size, analysis.TotalUncompressed),
			}
		}
	}

	return analysis
}

// Extract7zEntry copies one 7z entry to a fresh temporary file under the same
// declared-size and streaming caps as zip extraction.
func Extract7zEntry(f *sevenzip.File, displayPath string, limits policy.Limits) (Extraction, error) {
	declared := f.UncompressedSize
	if declared > limits.MaxExtractSize {
		return Extraction{
			Status: types.StatusNestedEntryTooLarge,
			Details: fmt.Sprintf("nested entry %q in %q declares size %d bytes (exceeds extraction safety limit of %d bytes)",
				f.Name, displayPath, declared, limits.MaxExtractSize),
		}, nil
	}

	rc, err := f.Open()
	if err != nil {
		return Extraction{}, fmt.Errorf("opening entry %q: %w", f.Name, err)
	}
	defer rc.Close()

	return boundedCopy(rc, f.Name, displayPath, limits)
}
