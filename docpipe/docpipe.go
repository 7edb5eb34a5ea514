// Package docpipe turns an uploaded document into a single plain-text string
// for downstream language-model analysis.
//
// Supported media types:
//   - pdf: MuPDF text layer per page, OCR for scanned pages, then
//     ledongthuc/pdf and pdfcpu as marker-free fallbacks
//   - docx: paragraphs of word/document.xml
//   - plain-text: strict UTF-8
//   - image: OCR on the binarized image, then on the original
//
// Extract never fails: errors become an empty Result.Text, a Failure and
// warnings. Callers must treat empty text as "ask the user for another file".
//
// Usage:
//
//	pipe := docpipe.New(docpipe.Config{OCR: tesseract.New("eng")})
//	res := pipe.Extract(ctx, docpipe.SourceDocument{MediaType: docpipe.MediaPDF, Data: data})
//	if !res.OK() {
//		fmt.Println(res.Warnings)
//	}
package docpipe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/doctext/fallback"
	"github.com/hazyhaar/doctext/ocr"
)

// Pipeline is the document extraction engine. It holds only read-only
// configuration and is safe for concurrent use.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
	ocr    *ocr.Recognizer
	pdf    *fallback.Chain[[]byte, pdfText]
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	return newPipeline(cfg, openFitz)
}

func newPipeline(cfg Config, open pdfOpener) *Pipeline {
	cfg.defaults()
	p := &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
	if cfg.OCR != nil {
		p.ocr = ocr.NewRecognizer(cfg.OCR, cfg.Logger)
	}
	// Only an error or a panic hands over: a primary pass that ran cleanly
	// but found nothing is a no_text result with its page report intact.
	p.pdf = fallback.New[[]byte, pdfText](nil,
		fallback.Strategy[[]byte, pdfText]{Name: TierMuPDF, Run: func(ctx context.Context, data []byte) (pdfText, error) {
			return p.extractPDFPages(ctx, open, data)
		}},
		fallback.Strategy[[]byte, pdfText]{Name: TierPlain, Run: extractPDFPlain},
		fallback.Strategy[[]byte, pdfText]{Name: TierContentStream, Run: extractPDFContentStream},
	).With(fallback.WithLogger(cfg.Logger))
	return p
}

// Config returns the effective configuration, defaults applied.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Extract converts doc to text. It never returns nil and never panics.
func (p *Pipeline) Extract(ctx context.Context, doc SourceDocument) *Result {
	start := time.Now()
	res := p.extract(ctx, doc)
	if p.cfg.Observer != nil {
		p.cfg.Observer.ObserveExtraction(ctx, newEvent(doc, res, time.Since(start)))
	}
	return res
}

func (p *Pipeline) extract(ctx context.Context, doc SourceDocument) (res *Result) {
	res = &Result{MediaType: doc.MediaType}
	log := p.logger.With("name", doc.Name, "media_type", string(doc.MediaType), "bytes", len(doc.Data))

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "extractor panicked", "panic", r)
			res.fail(FailureDecode, fmt.Sprintf("%s extraction crashed: %v", doc.MediaType, r))
		}
		if res.Failure != nil {
			log.WarnContext(ctx, "extraction failed", "kind", string(res.Failure.Kind), "reason", res.Failure.Reason)
		}
	}()

	if !doc.MediaType.Supported() {
		return res.fail(FailureUnsupported, fmt.Sprintf("unsupported media type %q", string(doc.MediaType)))
	}
	if int64(len(doc.Data)) > p.cfg.MaxFileSize {
		return res.fail(FailureTooLarge, fmt.Sprintf("document too large: %d bytes (max %d)", len(doc.Data), p.cfg.MaxFileSize))
	}
	if err := ctx.Err(); err != nil {
		return res.fail(FailureCanceled, err.Error())
	}

	log.DebugContext(ctx, "extracting document")

	var err error
	switch doc.MediaType {
	case MediaPDF:
		err = p.extractPDF(ctx, doc.Data, res)
	case MediaDocx:
		res.Tier = TierDocx
		res.Text, err = extractDocx(doc.Data)
	case MediaText:
		res.Tier = TierUTF8
		res.Text, err = decodeText(doc.Data)
	case MediaImage:
		err = p.extractImage(ctx, doc.Data, res)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res.fail(FailureCanceled, ctxErr.Error())
	}
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			return res.fail(f.Kind, f.Reason)
		}
		return res.fail(FailureDecode, fmt.Sprintf("%s extraction failed: %v", doc.MediaType, err))
	}

	res.Text = strings.TrimSpace(res.Text)
	if res.Text == "" {
		return res.fail(FailureNoText, fmt.Sprintf("no text recovered from %s", doc.MediaType))
	}

	res.Quality = measureQuality(res)
	if res.Quality.Garbled() {
		res.warn("extracted text looks garbled (printable ratio %.2f, wordlike ratio %.2f)",
			res.Quality.PrintableRatio, res.Quality.WordlikeRatio)
	}
	log.DebugContext(ctx, "document extracted", "tier", res.Tier, "chars", len(res.Text), "warnings", len(res.Warnings))
	return res
}

// ExtractionEvent summarizes one extraction for an Observer. It never
// carries document content.
type ExtractionEvent struct {
	Name      string
	MediaType MediaType
	Size      int
	SHA256    string
	Tier      string
	Failure   FailureKind // empty on success
	Warnings  int
	Chars     int
	Pages     int
	OCRPages  int
	Duration  time.Duration
}

// Observer receives extraction events. Implementations must not block.
type Observer interface {
	ObserveExtraction(ctx context.Context, ev ExtractionEvent)
}

func newEvent(doc SourceDocument, res *Result, d time.Duration) ExtractionEvent {
	sum := sha256.Sum256(doc.Data)
	ev := ExtractionEvent{
		Name:      doc.Name,
		MediaType: doc.MediaType,
		Size:      len(doc.Data),
		SHA256:    hex.EncodeToString(sum[:]),
		Tier:      res.Tier,
		Warnings:  len(res.Warnings),
		Chars:     len([]rune(res.Text)),
		Pages:     len(res.Pages),
		OCRPages:  res.OCRPages(),
		Duration:  d,
	}
	if res.Failure != nil {
		ev.Failure = res.Failure.Kind
	}
	return ev
}
