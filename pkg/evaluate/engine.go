// Package evaluate drives the recursive archive evaluation: route a file by
// extension, analyze archive structure, extract recognizable nested entries
// to bounded temporary storage, and re-run the same evaluation on them.
//
// The engine is single-threaded and depth-first. Total work is bounded by
// max depth x entries per archive x the extraction cap, so the evaluation
// itself cannot be amplified into a bomb. Every collaborator failure is
// converted into an outcome at the boundary where it occurs; callers always
// receive exactly one outcome per input and never a raw error.
package evaluate

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"

	"github.com/praetorian-inc/cato/pkg/archive"
	"github.com/praetorian-inc/cato/pkg/classify"
	"github.com/praetorian-inc/cato/pkg/parser"
	"github.com/praetorian-inc/cato/pkg/policy"
	"github.com/praetorian-inc/cato/pkg/types"
)

// Engine evaluates files for decompression-bomb conditions.
type Engine struct {
	limits   policy.Limits
	classify classify.Func
}

// New creates an engine with the given limits. A nil classifier uses the
// default vocabulary heuristic.
func New(limits policy.Limits, fn classify.Func) *Engine {
	if fn == nil {
		fn = classify.Default()
	}
	return &Engine{limits: limits, classify: fn}
}

// Limits returns the engine's limit policy.
func (e *Engine) Limits() policy.Limits {
	return e.limits
}

// Evaluate inspects one file and returns its outcome. It never returns an
// error: failures are classified into the outcome.
func (e *Engine) Evaluate(path string) types.Outcome {
	return e.evaluateFile(path, filepath.Base(path), 0, "")
}

// EvaluateNamed evaluates the file at path but reports it under name. Used
// when the bytes live in a temporary file and the caller knows the original
// filename the outcome should carry.
func (e *Engine) EvaluateNamed(path, name string) types.Outcome {
	return e.evaluateFile(path, name, 0, "")
}

// evaluateFile evaluates path as name at the given depth. name differs from
// the path's basename for nested entries, where the bytes live in a temp
// file but the display path must show the entry's own name.
func (e *Engine) evaluateFile(path, name string, depth int, ancestor string) types.Outcome {
	display := types.JoinDisplayPath(ancestor, name)
	ext := types.Extension(name)

	if depth > e.limits.MaxDepth {
		return types.Outcome{
			DisplayPath: display,
			Flagged:     true,
			Status:      types.StatusMaxDepthExceeded,
			Extension:   ext,
			Details: fmt.Sprintf("archive nesting exceeds maximum depth of %d levels - possible recursive bomb",
				e.limits.MaxDepth),
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		// Fail safe: a file we cannot even stat is rejected, not skipped.
		return types.Outcome{
			DisplayPath: display,
			Flagged:     true,
			Status:      types.StatusIOError,
			Extension:   ext,
			Details:     "failed to access file: " + err.Error(),
			Cause:       err,
		}
	}
	size := info.Size()

	switch format := types.FormatForExtension(ext); format {
	case types.FormatZipArchive:
		return e.evaluateZip(path, display, ext, size, depth)
	case types.FormatSevenZip:
		return e.evaluate7z(path, display, ext, size, depth)
	case types.FormatXLSX, types.FormatDOCX, types.FormatPPTX:
		return e.evaluateOOXML(path, display, ext, size, format)
	case types.FormatOpenDocument:
		return e.evaluateODF(path, display, ext, size)
	case types.FormatXLS, types.FormatDOC, types.FormatPPT:
		return e.evaluateLegacyOffice(path, display, ext, size, format)
	case types.FormatPDF:
		return e.evaluatePDF(path, display, ext, size)
	default:
		return e.evaluateGeneric(path, display, ext, size, depth)
	}
}

// evaluateZip runs the two-pass archive evaluation: structure first, then
// recursive inspection of recognizable nested entries.
func (e *Engine) evaluateZip(path, display, ext string, size int64, depth int) types.Outcome {
	analysis := archive.AnalyzeZip(path, e.limits)
	if out, done := e.structuralOutcome(analysis, display, ext, size); done {
		return out
	}
	if out := e.recurseZip(path, display, size, depth); out != nil {
		return *out
	}
	return clean(display, types.StatusValidZip, size, ext)
}

func (e *Engine) evaluate7z(path, display, ext string, size int64, depth int) types.Outcome {
	analysis := archive.Analyze7z(path, e.limits)
	if out, done := e.structuralOutcome(analysis, display, ext, size); done {
		return out
	}
	if out := e.recurse7z(path, display, size, depth); out != nil {
		return *out
	}
	return clean(display, types.StatusValid7z, size, ext)
}

// evaluateGeneric handles unrecognized extensions: if the bytes parse as a
// zip, the archive checks and recursion apply; if they do not, the file
// passes as UNKNOWN_FORMAT with no further inspection.
func (e *Engine) evaluateGeneric(path, display, ext string, size int64, depth int) types.Outcome {
	analysis := archive.AnalyzeZip(path, e.limits)
	if analysis.Flagged {
		return e.flaggedStructural(analysis, display, ext, size)
	}
	if analysis.Status == types.StatusValidZip {
		if out := e.recurseZip(path, display, size, depth); out != nil {
			return *out
		}
	}
	return clean(display, types.StatusUnknownFormat, size, ext)
}

// evaluateOOXML checks a zip-based Office document: structural analysis
// first (it is a zip, so the ratio and size rules apply before any content
// parser touches it), then the format probe.
func (e *Engine) evaluateOOXML(path, display, ext string, size int64, format types.Format) types.Outcome {
	analysis := archive.AnalyzeZip(path, e.limits)
	if analysis.Flagged {
		return e.flaggedStructural(analysis, display, ext, size)
	}
	if analysis.Failure != nil {
		return e.classified(*analysis.Failure, display, ext, size)
	}

	if failure := parser.ProbeOOXML(path, format); failure != nil {
		return e.parserOutcome(*failure, display, ext, size)
	}
	return clean(display, validStatus(format), size, ext)
}

func (e *Engine) evaluateODF(path, display, ext string, size int64) types.Outcome {
	analysis := archive.AnalyzeZip(path, e.limits)
	if analysis.Flagged {
		return e.flaggedStructural(analysis, display, ext, size)
	}
	if analysis.Failure != nil {
		return e.classified(*analysis.Failure, display, ext, size)
	}

	if failure := parser.ProbeODF(path); failure != nil {
		return e.parserOutcome(*failure, display, ext, size)
	}
	return clean(display, types.StatusValidODF, size, ext)
}

func (e *Engine) evaluateLegacyOffice(path, display, ext string, size int64, format types.Format) types.Outcome {
	if failure := parser.ProbeOLE(path); failure != nil {
		return e.parserOutcome(*failure, display, ext, size)
	}
	return clean(display, validStatus(format), size, ext)
}

func (e *Engine) evaluatePDF(path, display, ext string, size int64) types.Outcome {
	if failure := parser.ProbePDF(path); failure != nil {
		return e.parserOutcome(*failure, display, ext, size)
	}
	return clean(display, types.StatusValidPDF, size, ext)
}

// recurseZip extracts each recursable entry to a bounded temp file and
// evaluates it one level deeper. The first flagged result wins; remaining
// entries are not scanned. Returns nil when every entry passes.
func (e *Engine) recurseZip(path, display string, outerSize int64, depth int) *types.Outcome {
	reader, err := zip.OpenReader(path)
	if err != nil {
		// The structural pass already vouched for this archive; a reopen
		// failure here is transient I/O, not a verdict on the contents.
		return nil
	}
	defer reader.Close()

	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !e.limits.Recursable(types.Extension(f.Name)) {
			continue
		}

		extraction, err := archive.ExtractZipEntry(f, display, e.limits)
		if err != nil {
			// Extraction I/O trouble does not condemn the archive; keep
			// checking the remaining entries.
			continue
		}
		if out := e.nestedOutcome(extraction, f.Name, display, outerSize, depth); out != nil {
			return out
		}
	}
	return nil
}

func (e *Engine) recurse7z(path, display string, outerSize int64, depth int) *types.Outcome {
	reader, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil
	}
	defer reader.Close()

	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !e.limits.Recursable(types.Extension(f.Name)) {
			continue
		}

		extraction, err := archive.Extract7zEntry(f, display, e.limits)
		if err != nil {
			continue
		}
		if out := e.nestedOutcome(extraction, f.Name, display, outerSize, depth); out != nil {
			return out
		}
	}
	return nil
}

// nestedOutcome turns one entry's extraction into a verdict: a refused
// extraction is itself a flagged outcome, and an extracted entry is
// evaluated one level deeper. The temp file is owned by this call and is
// removed before it returns, on every path.
func (e *Engine) nestedOutcome(extraction archive.Extraction, entryName, display string, outerSize int64, depth int) *types.Outcome {
	if extraction.Refused() {
		return &types.Outcome{
			DisplayPath: types.JoinDisplayPath(display, entryName),
			Flagged:     true,
			Status:      extraction.Status,
			Size:        outerSize,
			Extension:   types.Extension(entryName),
			Details:     extraction.Details,
		}
	}

	defer os.Remove(extraction.Path)

	nested := e.evaluateFile(extraction.Path, entryName, depth+1, display)
	if nested.Flagged {
		return &nested
	}
	return nil
}

// structuralOutcome converts a structural analysis into a terminal outcome
// where one exists. done is false when the structure passed and the caller
// should continue with the recursion pass.
func (e *Engine) structuralOutcome(analysis archive.Analysis, display, ext string, size int64) (types.Outcome, bool) {
	if analysis.Flagged {
		return e.flaggedStructural(analysis, display, ext, size), true
	}
	if analysis.Failure != nil {
		return e.classified(*analysis.Failure, display, ext, size), true
	}
	if analysis.Status == types.StatusNotZip {
		return clean(display, types.StatusNotZip, size, ext), true
	}
	return types.Outcome{}, false
}

func (e *Engine) flaggedStructural(analysis archive.Analysis, display, ext string, size int64) types.Outcome {
	return types.Outcome{
		DisplayPath: display,
		Flagged:     true,
		Status:      analysis.Status,
		Size:        size,
		Extension:   ext,
		Details:     analysis.Details,
	}
}

// parserOutcome maps a probe failure to an outcome, treating an explicit
// format mismatch as its own flagged status rather than running the
// classifier heuristic.
func (e *Engine) parserOutcome(failure types.ParserFailure, display, ext string, size int64) types.Outcome {
	if errors.Is(failure.Err, parser.ErrFormatMismatch) {
		return types.Outcome{
			DisplayPath: display,
			Flagged:     true,
			Status:      types.StatusFormatMismatch,
			Size:        size,
			Extension:   ext,
			Details:     failure.Message,
			Cause:       failure.Err,
		}
	}
	return e.classified(failure, display, ext, size)
}

func (e *Engine) classified(failure types.ParserFailure, display, ext string, size int64) types.Outcome {
	status, flagged := e.classify(failure)
	out := types.Outcome{
		DisplayPath: display,
		Flagged:     flagged,
		Status:      status,
		Size:        size,
		Extension:   ext,
		Details:     fmt.Sprintf("%s parser: %s", failure.Kind, failure.Message),
	}
	if flagged {
		out.Cause = failure.Err
	}
	return out
}

func clean(display string, status types.Status, size int64, ext string) types.Outcome {
	return types.Outcome{
		DisplayPath: display,
		Status:      status,
		Size:        size,
		Extension:   ext,
	}
}

// validStatus maps a format to its clean status code.
func validStatus(format types.Format) types.Status {
	switch format {
	case types.FormatXLSX:
		return types.StatusValidXLSX
	case types.FormatDOCX:
		return types.StatusValidDOCX
	case types.FormatPPTX:
		return types.StatusValidPPTX
	case types.FormatXLS:
		return types.StatusValidXLS
	case types.FormatDOC:
		return types.StatusValidDOC
	case types.FormatPPT:
		return types.StatusValidPPT
	case types.FormatPDF:
		return types.StatusValidPDF
	case types.FormatOpenDocument:
		return types.StatusValidODF
	case types.FormatSevenZip:
		return types.StatusValid7z
	default:
		return types.StatusValidZip
	}
}
