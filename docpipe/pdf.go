package docpipe

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
)

// PDF tier names reported in Result.Tier.
const (
	TierMuPDF         = "mupdf"
	TierPlain         = "ledongthuc"
	TierContentStream = "pdfcpu"
)

// pdfDocument is the part of a MuPDF document the primary tier uses.
// Page numbers are 0-based.
type pdfDocument interface {
	NumPage() int
	Text(page int) (string, error)
	ImagePNG(page int, dpi float64) ([]byte, error)
	Close() error
}

type pdfOpener func(data []byte) (pdfDocument, error)

func openFitz(data []byte) (pdfDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

var errNoPDFTier = errors.New("no pdf tier succeeded")

// pdfText is what one PDF tier produces.
type pdfText struct {
	text     string
	pages    []PageResult
	warnings []string
}

func (p *Pipeline) extractPDF(ctx context.Context, data []byte, res *Result) error {
	out, err := p.pdf.Run(ctx, data)
	for _, a := range out.Attempts {
		if a.Tier != out.Tier {
			res.warn("pdf %s", a.String())
		}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Each tier's error is already a warning.
		return errNoPDFTier
	}

	res.Tier = out.Tier
	res.Text = out.Value.text
	res.Pages = out.Value.pages
	res.Warnings = append(res.Warnings, out.Value.warnings...)

	var empty []string
	for _, pg := range res.Pages {
		if pg.Chars == 0 {
			empty = append(empty, strconv.Itoa(pg.Number))
		}
	}
	if len(empty) > 0 {
		res.Partial = true
		res.warn("no text on page(s) %s", strings.Join(empty, ", "))
	}
	return nil
}

// extractPDFPages is the primary tier: the text layer page by page, with
// scanned pages rendered and sent through OCR. Any page error abandons the
// whole tier.
func (p *Pipeline) extractPDFPages(ctx context.Context, open pdfOpener, data []byte) (pdfText, error) {
	var out pdfText

	doc, err := open(data)
	if err != nil {
		return out, fmt.Errorf("open: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	ocrMissingWarned := false

	n := doc.NumPage()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return pdfText{}, err
		}
		num := i + 1

		text, err := doc.Text(i)
		if err != nil {
			return pdfText{}, fmt.Errorf("page %d text: %w", num, err)
		}

		if !p.scanned(text) {
			fmt.Fprintf(&sb, "\n--- Page %d ---\n%s\n", num, text)
			out.pages = append(out.pages, PageResult{Number: num, Source: PageText, Chars: countChars(text)})
			continue
		}

		// Scanned page.
		if p.ocr == nil {
			if !ocrMissingWarned {
				out.warnings = append(out.warnings, "ocr disabled: scanned pages keep their direct text")
				ocrMissingWarned = true
			}
		} else if recognized, ok := p.ocrPage(ctx, doc, i, &out); ok {
			fmt.Fprintf(&sb, "\n--- Page %d (OCR) ---\n%s\n", num, recognized)
			out.pages = append(out.pages, PageResult{Number: num, Source: PageOCR, Chars: countChars(recognized)})
			continue
		}

		sb.WriteString(text)
		out.pages = append(out.pages, PageResult{Number: num, Source: PageTextFallback, Chars: countChars(text)})
	}

	out.text = sb.String()
	return out, nil
}

// ocrPage renders page i and recognizes it. ok is false when rendering
// failed or OCR produced nothing.
func (p *Pipeline) ocrPage(ctx context.Context, doc pdfDocument, i int, out *pdfText) (string, bool) {
	num := i + 1
	img, err := doc.ImagePNG(i, p.cfg.RenderDPI())
	if err != nil {
		out.warnings = append(out.warnings, fmt.Sprintf("page %d render: %v", num, err))
		p.logger.WarnContext(ctx, "page render failed", "page", num, "error", err)
		return "", false
	}

	rec := p.ocr.Recognize(ctx, img)
	for _, w := range rec.Warnings {
		out.warnings = append(out.warnings, fmt.Sprintf("page %d %s", num, w))
	}
	if rec.Text == "" {
		p.logger.DebugContext(ctx, "ocr found nothing on scanned page", "page", num)
		return "", false
	}
	p.logger.DebugContext(ctx, "page recognized", "page", num, "tier", rec.Tier)
	return rec.Text, true
}

// scanned reports whether a page's text layer is too thin to trust.
func (p *Pipeline) scanned(text string) bool {
	t := p.cfg.ScannedPageThreshold
	return t > 0 && utf8.RuneCountInString(strings.TrimSpace(text)) < t
}

func countChars(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
