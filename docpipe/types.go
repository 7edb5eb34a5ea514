package docpipe

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// MediaType is the declared kind of an uploaded document.
type MediaType string

const (
	MediaPDF   MediaType = "pdf"
	MediaDocx  MediaType = "docx"
	MediaText  MediaType = "plain-text"
	MediaImage MediaType = "image"
)

// Supported reports whether m is one of the four extractable types.
func (m MediaType) Supported() bool {
	switch m {
	case MediaPDF, MediaDocx, MediaText, MediaImage:
		return true
	}
	return false
}

// MIME types accepted on upload.
const (
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain"
	MIMEJPEG = "image/jpeg"
	MIMEJPG  = "image/jpg"
	MIMEPNG  = "image/png"
)

var mimeToMedia = map[string]MediaType{
	MIMEPDF:  MediaPDF,
	MIMEDocx: MediaDocx,
	MIMEText: MediaText,
	MIMEJPEG: MediaImage,
	MIMEJPG:  MediaImage,
	MIMEPNG:  MediaImage,
}

// ParseMediaType maps a declared MIME type (parameters such as charset are
// ignored) or a MediaType name onto a MediaType. Anything else comes back
// verbatim so the pipeline can name it when refusing it.
func ParseMediaType(declared string) MediaType {
	s := strings.ToLower(strings.TrimSpace(declared))
	if base, _, err := mime.ParseMediaType(s); err == nil {
		s = base
	}
	if m, ok := mimeToMedia[s]; ok {
		return m
	}
	if m := MediaType(s); m.Supported() {
		return m
	}
	return MediaType(strings.TrimSpace(declared))
}

// DetectMediaType returns the media type implied by a file name's extension.
func DetectMediaType(name string) (MediaType, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".pdf":
		return MediaPDF, nil
	case ".docx":
		return MediaDocx, nil
	case ".txt", ".text":
		return MediaText, nil
	case ".jpg", ".jpeg", ".png":
		return MediaImage, nil
	default:
		return "", fmt.Errorf("unsupported format: %q", ext)
	}
}

// MediaTypes lists the supported media types.
func MediaTypes() []MediaType {
	return []MediaType{MediaPDF, MediaDocx, MediaText, MediaImage}
}

// SupportedMIMETypes lists the accepted MIME types.
func SupportedMIMETypes() []string {
	return []string{MIMEPDF, MIMEDocx, MIMEText, MIMEJPEG, MIMEJPG, MIMEPNG}
}

// SourceDocument is one uploaded document. The pipeline reads Data and never
// retains it after Extract returns.
type SourceDocument struct {
	Name      string    // original file name, informational
	MediaType MediaType // declared type; not checked against Data
	Data      []byte
}

// PageSource says where a PDF page's text came from.
type PageSource string

const (
	PageText         PageSource = "text"          // text layer, plain marker
	PageOCR          PageSource = "ocr"           // recognized from the rendered page
	PageTextFallback PageSource = "text-fallback" // scanned page whose OCR found nothing
)

// PageResult describes one page of a PDF extracted by the primary tier.
type PageResult struct {
	Number int        `json:"number"`
	Source PageSource `json:"source"`
	Chars  int        `json:"chars"`
}

// FailureKind classifies why a Result has no text.
type FailureKind string

const (
	FailureUnsupported FailureKind = "unsupported" // declared type outside the closed set
	FailureTooLarge    FailureKind = "too_large"
	FailureDecode      FailureKind = "decode"      // bytes do not parse as the declared format
	FailureNoText      FailureKind = "no_text"     // parsing worked, nothing was recovered
	FailureUnavailable FailureKind = "unavailable" // no OCR engine for an image
	FailureCanceled    FailureKind = "canceled"
)

// Failure explains an empty Result.
type Failure struct {
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Reason
}

// Result is the outcome of one extraction. Text is empty exactly when
// Failure is set.
type Result struct {
	Text      string             `json:"text"`
	MediaType MediaType          `json:"media_type"`
	Tier      string             `json:"tier,omitempty"`    // extraction strategy that produced Text
	Pages     []PageResult       `json:"pages,omitempty"`   // PDF primary tier only
	Partial   bool               `json:"partial,omitempty"` // some pages yielded nothing
	Warnings  []string           `json:"warnings,omitempty"`
	Failure   *Failure           `json:"failure,omitempty"`
	Quality   *ExtractionQuality `json:"quality,omitempty"`
}

// OK reports whether text was extracted.
func (r *Result) OK() bool {
	return r.Failure == nil && r.Text != ""
}

// OCRPages counts pages whose text came from OCR.
func (r *Result) OCRPages() int {
	n := 0
	for _, p := range r.Pages {
		if p.Source == PageOCR {
			n++
		}
	}
	return n
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) fail(kind FailureKind, reason string) *Result {
	r.Text = ""
	r.Quality = nil
	r.Failure = &Failure{Kind: kind, Reason: reason}
	r.Warnings = append(r.Warnings, reason)
	return r
}
