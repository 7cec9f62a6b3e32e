package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/praetorian-inc/cato/pkg/policy"
	"github.com/praetorian-inc/cato/pkg/types"
)

// copyChunk is the buffer size for bounded entry copies.
const copyChunk = 8192

// AnalyzeZip runs the structural pass over a zip archive's central directory.
// Entry bodies are not decompressed. Declared sizes are attacker-controlled
// input: the analysis bounds what the archive claims, and the bounded
// extractor separately bounds what it actually delivers.
func AnalyzeZip(path string, limits policy.Limits) Analysis {
	reader, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			// Not an archive at all. A routing signal, not a threat.
			return Analysis{Status: types.StatusNotZip}
		}
		failure := types.NewParserFailure("zip", err)
		return Analysis{Failure: &failure}
	}
	defer reader.Close()

	analysis := Analysis{Status: types.StatusValidZip}

	for _, f := range reader.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}

		compressed := f.CompressedSize64
		uncompressed := f.UncompressedSize64

		if uncompressed > limits.MaxEntrySize {
			return Analysis{
				Status:  types.StatusEntrySizeLimitExceeded,
				Flagged: true,
				Details: fmt.Sprintf("entry %q: uncompressed size %d bytes exceeds limit of %d bytes",
					f.Name, uncompressed, limits.MaxEntrySize),
			}
		}

		// An entry with zero compressed size has no defined ratio; it is
		// caught by the absolute size rules only.
		if compressed > 0 {
			if ratio := uncompressed / compressed; ratio > limits.MaxCompressionRatio {
				return Analysis{
					Status:  types.StatusExcessiveRatio,
					Flagged: true,
					Details: fmt.Sprintf("entry %q: suspicious compression ratio of %d:1 (compressed: %d bytes, uncompressed: %d bytes)",
						f.Name, ratio, compressed, uncompressed),
				}
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
			Compressed:   compressed,
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

	return analysis
}

// ExtractZipEntry copies one zip entry to a fresh temporary file, preserving
// the entry's extension so downstream routing sees the same format it would
// for a standalone file.
//
// The entry's declared size is checked first, then the copy itself is capped
// by actual bytes observed. The streaming cap is the real defense: declared
// sizes in zip metadata cannot be trusted.
func ExtractZipEntry(f *zip.File, displayPath string, limits policy.Limits) (Extraction, error) {
	declared := f.UncompressedSize64
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

// boundedCopy streams rc to a new temp file in fixed-size chunks, aborting
// as soon as the observed byte count exceeds the extraction cap. Partial
// output is discarded on every failure path.
func boundedCopy(rc io.Reader, entryName, displayPath string, limits policy.Limits) (Extraction, error) {
	suffix := ""
	if ext := types.Extension(entryName); ext != "" {
		suffix = "." + ext
	}

	tmp, err := os.CreateTemp("", "cato_*"+suffix)
	if err != nil {
		return Extraction{}, fmt.Errorf("creating temp file: %w", err)
	}

	discard := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	buf := make([]byte, copyChunk)
	var written uint64
	for {
		n, rerr := rc.Read(buf)
		if n > 0 {
			written += uint64(n)
			if written > limits.MaxExtractSize {
				discard()
				return Extraction{
					Status: types.StatusNestedEntryOverflow,
					Details: fmt.Sprintf("nested entry %q in %q exceeded extraction limit during read (%d bytes extracted before abort)",
						entryName, displayPath, written),
				}, nil
			}
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				discard()
				return Extraction{}, fmt.Errorf("writing temp file: %w", werr)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			discard()
			return Extraction{}, fmt.Errorf("reading entry %q: %w", entryName, rerr)
		}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Extraction{}, fmt.Errorf("closing temp file: %w", err)
	}
	return Extraction{Path: tmp.Name()}, nil
}
