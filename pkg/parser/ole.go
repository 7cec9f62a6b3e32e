package parser

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/praetorian-inc/cato/pkg/types"
)

var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
)

// ProbeOLE checks that a legacy Office file (xls, doc, ppt) carries a sane
// OLE compound-file header. Zip bytes behind a legacy extension are reported
// as a format mismatch: that is how an attacker would smuggle a zip-based
// bomb past legacy-format handling.
func ProbeOLE(path string) *types.ParserFailure {
	f, err := os.Open(path)
	if err != nil {
		failure := types.NewParserFailure("io", err)
		return &failure
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n < len(oleMagic) {
		failure := types.ParserFailure{Kind: "ole", Message: "file too short for a compound file header"}
		return &failure
	}
	header = header[:n]

	if bytes.HasPrefix(header, zipMagic) {
		failure := types.NewParserFailure("ole",
			fmt.Errorf("%w: zip signature behind a legacy Office extension", ErrFormatMismatch))
		return &failure
	}

	if !bytes.HasPrefix(header, oleMagic) {
		failure := types.ParserFailure{Kind: "ole", Message: "not an OLE compound file"}
		return &failure
	}

	if len(header) < 32 {
		failure := types.ParserFailure{Kind: "ole", Message: "truncated compound file header"}
		return &failure
	}

	// Byte order mark and sector shift are fixed by the format; anything
	// else is a corrupt header.
	byteOrder := binary.LittleEndian.Uint16(header[28:30])
	sectorShift := binary.LittleEndian.Uint16(header[30:32])
	if byteOrder != 0xFFFE || (sectorShift != 9 && sectorShift != 12) {
		failure := types.ParserFailure{
			Kind:    "ole",
			Message: fmt.Sprintf("corrupt compound file header (byte order %#04x, sector shift %d)", byteOrder, sectorShift),
		}
		return &failure
	}

	return nil
}
