package docpipe

import (
	"log/slog"

	"github.com/hazyhaar/doctext/ocr"
)

// Config configures the document pipeline. It is read-only after New.
type Config struct {
	// MaxFileSize is the maximum document size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// RenderScale multiplies the 72 DPI page size when rendering scanned PDF
	// pages for OCR (default: 2).
	RenderScale float64 `json:"render_scale" yaml:"render_scale"`

	// ScannedPageThreshold is the trimmed text length, in characters, below
	// which a PDF page is treated as scanned (default: 50). TextLayerOnly
	// trusts every text layer and never renders pages for OCR.
	ScannedPageThreshold int `json:"scanned_page_threshold" yaml:"scanned_page_threshold"`

	// OCR recognizes scanned pages and images. Nil disables OCR: images fail
	// and scanned pages keep their direct text.
	OCR ocr.Engine `json:"-" yaml:"-"`

	// Observer, if set, receives one event per extraction.
	Observer Observer `json:"-" yaml:"-"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// TextLayerOnly as ScannedPageThreshold disables scanned-page detection.
// Any negative threshold does the same.
const TextLayerOnly = -1

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.RenderScale <= 0 {
		c.RenderScale = 2
	}
	if c.ScannedPageThreshold == 0 {
		c.ScannedPageThreshold = 50
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// RenderDPI is the resolution scanned pages are rendered at.
func (c *Config) RenderDPI() float64 {
	return 72 * c.RenderScale
}
