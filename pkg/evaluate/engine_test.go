package evaluate

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/cato/pkg/policy"
	"github.com/praetorian-inc/cato/pkg/types"
)

type zentry struct {
	name   string
	data   []byte
	method uint16
}

func zipBytes(t *testing.T, entries []zentry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		method := e.method
		if method == 0 && len(e.data) > 0 {
			method = zip.Deflate
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: method})
		require.NoError(t, err)
		_, err = fw.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// validXLSX builds a minimal well-formed spreadsheet.
func validXLSX(t *testing.T) []byte {
	t.Helper()
	return zipBytes(t, []zentry{
		{name: "[Content_Types].xml", data: []byte(`<?xml version="1.0"?><Types/>`)},
		{name: "xl/workbook.xml", data: []byte(`<?xml version="1.0"?><workbook><sheets/></workbook>`)},
		{name: "xl/worksheets/sheet1.xml", data: []byte(`<?xml version="1.0"?><worksheet/>`)},
	})
}

// bombXLSX builds a spreadsheet whose sheet deflates far past the default
// 100:1 ceiling.
func bombXLSX(t *testing.T) []byte {
	t.Helper()
	sheet := []byte(`<?xml version="1.0"?><worksheet><v>` +
		strings.Repeat("a", 2_500_000) + `</v></worksheet>`)
	return zipBytes(t, []zentry{
		{name: "[Content_Types].xml", data: []byte(`<Types/>`)},
		{name: "xl/workbook.xml", data: []byte(`<workbook/>`)},
		{name: "xl/worksheets/sheet1.xml", data: sheet},
	})
}

// nestedZipChain wraps a one-entry zip in `wraps` further zip layers.
func nestedZipChain(t *testing.T, wraps int) []byte {
	t.Helper()
	data := zipBytes(t, []zentry{{name: "payload.txt", data: []byte("x")}})
	for i := wraps; i >= 1; i-- {
		data = zipBytes(t, []zentry{{name: fmt.Sprintf("level%d.zip", i), data: data}})
	}
	return data
}

func defaultEngine() *Engine {
	return New(policy.Default(), nil)
}

func TestEvaluatePlainText(t *testing.T) {
	path := writeFile(t, "readme.txt", []byte("hello, world"))

	out := defaultEngine().Evaluate(path)

	assert.Equal(t, types.StatusUnknownFormat, out.Status)
	assert.False(t, out.Flagged)
	assert.Nil(t, out.Cause)
	assert.Equal(t, "readme.txt", out.DisplayPath)
	assert.Equal(t, int64(12), out.Size)
	assert.Equal(t, "txt", out.Extension)
}

func TestEvaluateRatioBombSpreadsheet(t *testing.T) {
	path := writeFile(t, "bomb.xlsx", bombXLSX(t))

	out := defaultEngine().Evaluate(path)

	assert.True(t, out.Flagged)
	assert.Equal(t, types.StatusExcessiveRatio, out.Status)
	assert.Equal(t, "bomb.xlsx", out.DisplayPath)
	assert.Contains(t, out.Details, "sheet1.xml")
	assert.Contains(t, out.Details, "ratio")
	// Pure policy violations carry no underlying error
	assert.Nil(t, out.Cause)
}

func TestEvaluateNestedBombDisplayPath(t *testing.T) {
	outer := zipBytes(t, []zentry{{name: "bomb.xlsx", data: bombXLSX(t)}})
	path := writeFile(t, "outer.zip", outer)

	out := defaultEngine().Evaluate(path)

	assert.True(t, out.Flagged)
	assert.Equal(t, types.StatusExcessiveRatio, out.Status)
	assert.Equal(t, "outer.zip -> bomb.xlsx", out.DisplayPath)
}

func TestEvaluateCleanZip(t *testing.T) {
	entries := make([]zentry, 10)
	for i := range entries {
		entries[i] = zentry{
			name: fmt.Sprintf("doc%d.txt", i),
			data: []byte(fmt.Sprintf("document number %d", i)),
		}
	}
	path := writeFile(t, "bundle.zip", zipBytes(t, entries))

	out := defaultEngine().Evaluate(path)

	assert.Equal(t, types.StatusValidZip, out.Status)
	assert.False(t, out.Flagged)
	assert.Nil(t, out.Cause)
}

func TestEvaluateEntrySizeFlaggedWithoutExtraction(t *testing.T) {
	tmpRoot := t.TempDir()
	t.Setenv("TMPDIR", tmpRoot)

	limits := policy.Default()
	limits.MaxEntrySize = 1000
	engine := New(limits, nil)

	// The oversized entry is itself recursable, but the structural pass must
	// flag it before any extraction happens.
	path := writeFile(t, "outer.zip", zipBytes(t, []zentry{
		{name: "huge.zip", data: bytes.Repeat([]byte("b"), 2000), method: zip.Store},
	}))

	out := engine.Evaluate(path)

	assert.True(t, out.Flagged)
	assert.Equal(t, types.StatusEntrySizeLimitExceeded, out.Status)
	assert.Equal(t, "outer.zip", out.DisplayPath)

	leftovers, err := filepath.Glob(filepath.Join(tmpRoot, "cato_*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestEvaluateMaxDepthDefaultLimits(t *testing.T) {
	path := writeFile(t, "deep.zip", nestedZipChain(t, 11))

	out := defaultEngine().Evaluate(path)

	assert.True(t, out.Flagged)
	assert.Equal(t, types.StatusMaxDepthExceeded, out.Status)
	assert.Contains(t, out.Details, "depth of 10")
}

func TestEvaluateMaxDepthDisplayChain(t *testing.T) {
	limits := policy.Default()
	limits.MaxDepth = 2
	engine := New(limits, nil)

	path := writeFile(t, "deep.zip", nestedZipChain(t, 3))

	out := engine.Evaluate(path)

	assert.True(t, out.Flagged)
	assert.Equal(t, types.StatusMaxDepthExceeded, out.Status)
	assert.Equal(t, "deep.zip -> level1.zip -> level2.zip -> level3.zip", out.DisplayPath)
}

func TestEvaluateWithinMaxDepth(t *testing.T) {
	limits := policy.Default()
	limits.MaxDepth = 3
	engine := New(limits, nil)

	path := writeFile(t, "deep.zip", nestedZipChain(t, 3))

	out := engine.Evaluate(path)

	assert.False(t, out.Flagged)
	assert.Equal(t, types.StatusValidZip, out.Status)
}

func TestEvaluateTempFilesCleanedUp(t *testing.T) {
	tmpRoot := t.TempDir()
	t.Setenv("TMPDIR", tmpRoot)

	engine := defaultEngine()

	cleanPath := writeFile(t, "clean.zip", nestedZipChain(t, 2))
	flaggedPath := writeFile(t, "flagged.zip", zipBytes(t, []zentry{{name: "bomb.xlsx", data: bombXLSX(t)}}))

	assert.False(t, engine.Evaluate(cleanPath).Flagged)
	assert.True(t, engine.Evaluate(flaggedPath).Flagged)

	leftovers, err := filepath.Glob(filepath.Join(tmpRoot, "cato_*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "every nested temp file must be removed")
}

func TestEvaluateIdempotent(t *testing.T) {
	path := writeFile(t, "bomb.xlsx", bombXLSX(t))
	engine := defaultEngine()

	first := engine.Evaluate(path)
	second := engine.Evaluate(path)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Flagged, second.Flagged)
	assert.Equal(t, first.DisplayPath, second.DisplayPath)
	assert.Equal(t, first.Details, second.Details)
}

func TestEvaluateMissingFile(t *testing.T) {
	out := defaultEngine().Evaluate(filepath.Join(t.TempDir(), "absent.zip"))

	assert.True(t, out.Flagged)
	assert.Equal(t, types.StatusIOError, out.Status)
	assert.Error(t, out.Cause)
}

func TestEvaluateNotZipExtension(t *testing.T) {
	path := writeFile(t, "fake.zip", []byte("only text"))

	out := defaultEngine().Evaluate(path)

	assert.Equal(t, types.StatusNotZip, out.Status)
	assert.False(t, out.Flagged)
}

func TestEvaluateUnknownExtensionWithZipContent(t *testing.T) {
	// Zip bytes behind an unrecognized extension still get the archive
	// treatment, including recursion into nested entries.
	bomb := writeFile(t, "data.bin", zipBytes(t, []zentry{{name: "bomb.xlsx", data: bombXLSX(t)}}))
	out := defaultEngine().Evaluate(bomb)
	assert.True(t, out.Flagged)
	assert.Equal(t, types.StatusExcessiveRatio, out.Status)

	// A clean zip behind an unrecognized extension still reports
	// UNKNOWN_FORMAT, not VALID_ZIP.
	clean := writeFile(t, "clean.bin", zipBytes(t, []zentry{{name: "a.txt", data: []byte("x")}}))
	out = defaultEngine().Evaluate(clean)
	assert.False(t, out.Flagged)
	assert.Equal(t, types.StatusUnknownFormat, out.Status)
}

func TestEvaluateLegacyExtensionHidingZip(t *testing.T) {
	path := writeFile(t, "sheet.xls", zipBytes(t, []zentry{{name: "a.txt", data: []byte("x")}}))

	out := defaultEngine().Evaluate(path)

	assert.True(t, out.Flagged)
	assert.Equal(t, types.StatusFormatMismatch, out.Status)
	assert.Error(t, out.Cause)
}

func TestEvaluateValidSpreadsheet(t *testing.T) {
	path := writeFile(t, "report.xlsx", validXLSX(t))

	out := defaultEngine().Evaluate(path)

	assert.Equal(t, types.StatusValidXLSX, out.Status)
	assert.False(t, out.Flagged)
}

func TestEvaluateSpreadsheetMissingWorkbook(t *testing.T) {
	// Structurally a fine zip, but not a spreadsheet. The missing-member
	// failure has no bomb vocabulary, so it classifies as benign breakage.
	path := writeFile(t, "odd.xlsx", zipBytes(t, []zentry{
		{name: "other.xml", data: []byte(`<x/>`)},
	}))

	out := defaultEngine().Evaluate(path)

	assert.Equal(t, types.StatusProcessingError, out.Status)
	assert.False(t, out.Flagged)
	assert.Nil(t, out.Cause)
}

func TestEvaluateValidODF(t *testing.T) {
	path := writeFile(t, "sheet.ods", zipBytes(t, []zentry{
		{name: "mimetype", data: []byte("application/vnd.oasis.opendocument.spreadsheet")},
		{name: "content.xml", data: []byte(`<?xml version="1.0"?><office/>`)},
	}))

	out := defaultEngine().Evaluate(path)

	assert.Equal(t, types.StatusValidODF, out.Status)
	assert.False(t, out.Flagged)
}

func TestEvaluateJarRoutedAsZip(t *testing.T) {
	path := writeFile(t, "lib.jar", zipBytes(t, []zentry{
		{name: "META-INF/MANIFEST.MF", data: []byte("Manifest-Version: 1.0\n")},
	}))

	out := defaultEngine().Evaluate(path)

	assert.Equal(t, types.StatusValidZip, out.Status)
	assert.False(t, out.Flagged)
}

func TestEvaluateNamed(t *testing.T) {
	path := writeFile(t, "cato_12345.xlsx", validXLSX(t))

	out := defaultEngine().EvaluateNamed(path, "quarterly.xlsx")

	assert.Equal(t, "quarterly.xlsx", out.DisplayPath)
	assert.Equal(t, types.StatusValidXLSX, out.Status)
}

func TestEvaluateCustomClassifier(t *testing.T) {
	// A paranoid classifier that flags every parser failure.
	engine := New(policy.Default(), func(types.ParserFailure) (types.Status, bool) {
		return types.StatusPossibleZipBomb, true
	})

	path := writeFile(t, "broken.xlsx", zipBytes(t, []zentry{
		{name: "xl/workbook.xml", data: []byte(`<workbook><unclosed>`)},
	}))

	out := engine.Evaluate(path)

	assert.True(t, out.Flagged)
	assert.Equal(t, types.StatusPossibleZipBomb, out.Status)
	assert.Error(t, out.Cause)
}

func TestEvaluateFlaggedImpliesThreatStatus(t *testing.T) {
	engine := defaultEngine()
	paths := []string{
		writeFile(t, "bomb.xlsx", bombXLSX(t)),
		writeFile(t, "clean.zip", zipBytes(t, []zentry{{name: "a.txt", data: []byte("x")}})),
		writeFile(t, "readme.txt", []byte("plain")),
	}

	for _, p := range paths {
		out := engine.Evaluate(p)
		if !out.Flagged {
			assert.True(t, out.Status.IsClean(), "unflagged outcome must carry a clean status, got %s", out.Status)
			assert.Nil(t, out.Cause)
		} else {
			assert.False(t, out.Status.IsClean())
		}
	}
}
