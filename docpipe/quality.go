package docpipe

import (
	"strings"
	"unicode"
)

// ExtractionQuality captures metrics about the extracted text.
type ExtractionQuality struct {
	PageCount      int     `json:"page_count,omitempty"`
	OCRPages       int     `json:"ocr_pages,omitempty"`
	CharsPerPage   float64 `json:"chars_per_page,omitempty"`
	PrintableRatio float64 `json:"printable_ratio"`
	WordlikeRatio  float64 `json:"wordlike_ratio"`
}

// Garbled reports whether the text is likely unusable: broken font
// encodings and OCR noise show up as unprintable runes or as tokens that
// are too long or too short to be words.
func (q *ExtractionQuality) Garbled() bool {
	return q.PrintableRatio < 0.85 || q.WordlikeRatio < 0.3
}

func measureQuality(res *Result) *ExtractionQuality {
	q := &ExtractionQuality{
		PageCount:      len(res.Pages),
		OCRPages:       res.OCRPages(),
		PrintableRatio: computePrintableRatio(res.Text),
		WordlikeRatio:  computeWordlikeRatio(res.Text),
	}
	if q.PageCount > 0 {
		total := 0
		for _, pg := range res.Pages {
			total += pg.Chars
		}
		q.CharsPerPage = float64(total) / float64(q.PageCount)
	}
	return q
}

// computePrintableRatio returns the ratio of printable characters in text.
// Excludes PUA U+E000-U+F8FF, control chars < U+0020 (except \n\r\t), U+FFFD.
func computePrintableRatio(text string) float64 {
	total := 0
	printable := 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	switch {
	case r >= 0xE000 && r <= 0xF8FF: // private use area
		return true
	case r == 0xFFFD:
		return true
	case r < 0x0020 && r != '\n' && r != '\r' && r != '\t':
		return true
	}
	return false
}

// computeWordlikeRatio returns the ratio of word-like tokens (length 2-15)
// to total tokens. Marker lines are not counted.
func computeWordlikeRatio(text string) float64 {
	total := 0
	wordlike := 0
	for _, line := range strings.Split(text, "\n") {
		if isPageMarker(line) {
			continue
		}
		for _, f := range strings.Fields(line) {
			total++
			if n := len([]rune(f)); n >= 2 && n <= 15 {
				wordlike++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(wordlike) / float64(total)
}

func isPageMarker(line string) bool {
	return strings.HasPrefix(line, "--- Page ") && strings.HasSuffix(line, " ---")
}
