package docpipe

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TierUTF8 and TierDocx name the single-strategy extractors in Result.Tier.
const (
	TierUTF8 = "utf8"
	TierDocx = "docx"
)

// decodeText accepts only valid UTF-8. A leading byte order mark is dropped.
func decodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("invalid utf-8 at byte %d", firstInvalidUTF8(data))
	}
	return strings.TrimPrefix(string(data), "\uFEFF"), nil
}

func firstInvalidUTF8(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
