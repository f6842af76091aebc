package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"credit-backend/constants"
	"credit-backend/internal/common"
)

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{SourceType: constants.PDF}, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{SourceType: constants.PDF}, fmt.Errorf("%w: %v", common.ErrPDFParse, err)
	}

	var b strings.Builder
	var warns []string
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			// a single unreadable page degrades to a warning, not a failure
			warns = append(warns, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		b.WriteString(txt)
	}

	return Result{
		Text:       strings.TrimSpace(b.String()),
		Pages:      pages,
		SourceType: constants.PDF,
		Method:     "pdf-text",
		Warnings:   warns,
	}, nil
}
