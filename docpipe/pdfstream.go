package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDFContentStream is the last PDF tier: pdfcpu validates the file and
// the text showing operators of each page's content stream are read
// directly. It ignores fonts and encodings, so it only helps simple files
// the other parsers reject.
func extractPDFContentStream(ctx context.Context, data []byte) (pdfText, error) {
	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return pdfText{}, fmt.Errorf("pdfcpu read: %w", err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return pdfText{}, err
		}
		text, err := contentStreamText(pctx, pageNr)
		if err != nil {
			return pdfText{}, fmt.Errorf("page %d: %w", pageNr, err)
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	return pdfText{text: sb.String()}, nil
}

func contentStreamText(pctx *model.Context, pageNr int) (string, error) {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return extractTextFromStream(data), nil
}

// pdfStringRe matches PDF string literals in parentheses, escaped
// parentheses included: (text \(here\))
var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// extractTextFromStream reads Tj, TJ, ' and T* operators, one per line.
func extractTextFromStream(data []byte) string {
	var sb strings.Builder

	writeStrings := func(line []byte, newline bool) {
		for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
			if text := decodePDFString(m[1]); text != "" {
				if newline {
					sb.WriteByte('\n')
				}
				sb.WriteString(text)
			}
		}
	}

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case len(line) == 0:
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			writeStrings(line, false)
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			writeStrings(line, true)
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return cleanStreamText(sb.String())
}

// decodePDFString handles the backslash escapes of a PDF literal string.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(c)
		default:
			if c < '0' || c > '7' {
				sb.WriteByte(c)
				continue
			}
			// Up to three octal digits.
			val := int(c - '0')
			for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}

// cleanStreamText drops non-printable runes and collapses horizontal
// whitespace, keeping line breaks.
func cleanStreamText(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		var sb strings.Builder
		prevSpace := false
		for _, r := range line {
			switch {
			case unicode.IsSpace(r):
				if !prevSpace && sb.Len() > 0 {
					sb.WriteByte(' ')
					prevSpace = true
				}
			case unicode.IsPrint(r):
				sb.WriteRune(r)
				prevSpace = false
			}
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n")
}
