package parser

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/praetorian-inc/cato/pkg/types"
)

// ProbePDF opens a PDF and attempts a plain-text pass over every page.
// The pdf library panics on some malformed inputs, so the probe converts
// panics into failures rather than letting them unwind the evaluation.
func ProbePDF(path string) (failure *types.ParserFailure) {
	defer func() {
		if r := recover(); r != nil {
			f := types.ParserFailure{Kind: "pdf", Message: fmt.Sprintf("parser panic: %v", r)}
			failure = &f
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		pf := types.NewParserFailure("pdf", err)
		return &pf
	}
	defer f.Close()

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		if _, err := page.GetPlainText(nil); err != nil {
			pf := types.NewParserFailure("pdf", fmt.Errorf("page %d: %w", pageNum, err))
			return &pf
		}
	}

	return nil
}
