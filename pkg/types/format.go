package types

import (
	"path/filepath"
	"strings"
)

// Format is the closed set of container families the evaluator understands.
// Routing is a total function over this enum; anything unrecognized maps to
// FormatUnknown rather than silently falling through.
type Format int

const (
	FormatUnknown Format = iota
	FormatZipArchive            // zip, jar, war, ear
	FormatSevenZip              // 7z
	FormatXLSX
	FormatDOCX
	FormatPPTX
	FormatOpenDocument // ods, odt, odp
	FormatXLS
	FormatDOC
	FormatPPT
	FormatPDF
)

// FormatForExtension maps a normalized (lowercase, no dot) extension to its
// format family.
func FormatForExtension(ext string) Format {
	switch ext {
	case "zip", "jar", "war", "ear":
		return FormatZipArchive
	case "7z":
		return FormatSevenZip
	case "xlsx":
		return FormatXLSX
	case "docx":
		return FormatDOCX
	case "pptx":
		return FormatPPTX
	case "ods", "odt", "odp":
		return FormatOpenDocument
	case "xls":
		return FormatXLS
	case "doc":
		return FormatDOC
	case "ppt":
		return FormatPPT
	case "pdf":
		return FormatPDF
	default:
		return FormatUnknown
	}
}

// ZipBased reports whether the format is structurally a zip archive and thus
// subject to structural analysis before any content parser runs.
func (f Format) ZipBased() bool {
	switch f {
	case FormatZipArchive, FormatXLSX, FormatDOCX, FormatPPTX, FormatOpenDocument:
		return true
	default:
		return false
	}
}

// Extension extracts the normalized extension from a file name: lowercased,
// without the leading dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
