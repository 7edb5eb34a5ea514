// Package ocr recognizes text in raster images.
//
// Engines run in single-block layout mode (tesseract PSM 6), which suits
// scanned pages and cropped images. Recognizer wraps an Engine with the
// preprocessed-then-raw fallback.
package ocr

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hazyhaar/doctext/fallback"
	"github.com/hazyhaar/doctext/imageprep"
)

// PageSegModeSingleBlock is tesseract's "assume a single uniform block of
// text" layout mode.
const PageSegModeSingleBlock = 6

// DefaultLanguage is the tesseract language code used when none is set.
const DefaultLanguage = "eng"

// Engine recognizes text in encoded image bytes.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, image []byte) (string, error)

// Recognize calls f.
func (f EngineFunc) Recognize(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

// Tier names reported in Result.Tier and in warnings.
const (
	TierPreprocessed = "binarized"
	TierRaw          = "raw"
)

// Result is the outcome of one recognition.
type Result struct {
	Text     string
	Tier     string   // tier that produced Text; empty when nothing was recognized
	Warnings []string // one entry per tier that failed
	Failed   bool     // every tier errored, as opposed to recognizing nothing
}

// Recognizer runs an Engine on the binarized image first and on the
// original bytes when that fails or yields nothing.
type Recognizer struct {
	engine Engine
	chain  *fallback.Chain[[]byte, string]
	logger *slog.Logger
}

// NewRecognizer wraps engine. A nil logger uses slog.Default().
func NewRecognizer(engine Engine, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recognizer{engine: engine, logger: logger}
	r.chain = fallback.New(fallback.EmptyString,
		fallback.Strategy[[]byte, string]{Name: TierPreprocessed, Run: r.recognizePreprocessed},
		fallback.Strategy[[]byte, string]{Name: TierRaw, Run: engine.Recognize},
	)
	return r
}

func (r *Recognizer) recognizePreprocessed(ctx context.Context, data []byte) (string, error) {
	prepared, err := imageprep.PreparePNG(data)
	if err != nil {
		return "", err
	}
	return r.engine.Recognize(ctx, prepared)
}

// Recognize never returns an error: when both tiers fail the result text is
// empty and Warnings says why.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) Result {
	out, err := r.chain.Run(ctx, image)
	res := Result{Tier: out.Tier}
	errored := 0
	for _, a := range out.Attempts {
		if a.Err != nil {
			errored++
			res.Warnings = append(res.Warnings, "ocr "+a.String())
		}
	}
	if err != nil {
		res.Failed = len(out.Attempts) > 0 && errored == len(out.Attempts)
		r.logger.DebugContext(ctx, "ocr recognized nothing", "error", err)
		return res
	}
	res.Text = strings.TrimSpace(out.Value)
	return res
}
