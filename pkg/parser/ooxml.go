package parser

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/praetorian-inc/cato/pkg/types"
)

// markerMember is the content member whose presence and well-formedness
// confirm the document family.
var markerMember = map[types.Format]string{
	types.FormatXLSX: "xl/workbook.xml",
	types.FormatDOCX: "word/document.xml",
	types.FormatPPTX: "ppt/presentation.xml",
}

// ProbeOOXML opens a zip-based Office document and parses its marker member.
// Returns nil when the document opens and parses; otherwise a typed failure.
func ProbeOOXML(path string, format types.Format) *types.ParserFailure {
	marker, ok := markerMember[format]
	if !ok {
		failure := types.ParserFailure{Kind: "ooxml", Message: fmt.Sprintf("no marker member for format %d", format)}
		return &failure
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		failure := types.NewParserFailure("zip", err)
		return &failure
	}
	defer reader.Close()

	for _, f := range reader.File {
		if f.Name != marker {
			continue
		}
		if failure := parseXMLMember(f); failure != nil {
			return failure
		}
		return nil
	}

	failure := types.ParserFailure{Kind: "ooxml", Message: fmt.Sprintf("missing %s member", marker)}
	return &failure
}

// ProbeODF opens an OpenDocument file and parses its content member.
func ProbeODF(path string) *types.ParserFailure {
	reader, err := zip.OpenReader(path)
	if err != nil {
		failure := types.NewParserFailure("zip", err)
		return &failure
	}
	defer reader.Close()

	for _, f := range reader.File {
		if f.Name != "content.xml" {
			continue
		}
		if failure := parseXMLMember(f); failure != nil {
			return failure
		}
		return nil
	}

	failure := types.ParserFailure{Kind: "odf", Message: "missing content.xml member"}
	return &failure
}

// parseXMLMember decompresses one member through an XML token walk, which
// confirms the member is well-formed without retaining its content.
func parseXMLMember(f *zip.File) *types.ParserFailure {
	rc, err := f.Open()
	if err != nil {
		failure := types.NewParserFailure("zip", err)
		return &failure
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			failure := types.NewParserFailure("ooxml", fmt.Errorf("parsing %s: %w", f.Name, err))
			return &failure
		}
	}
}
