package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFPlain is the secondary tier: sequential page text through
// ledongthuc/pdf, no OCR and no markers.
func extractPDFPlain(ctx context.Context, data []byte) (pdfText, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return pdfText{}, fmt.Errorf("open: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return pdfText{}, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			sb.WriteByte('\n')
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return pdfText{}, fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	return pdfText{text: sb.String()}, nil
}
