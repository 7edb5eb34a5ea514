// Package tesseract implements ocr.Engine on libtesseract through gosseract.
// Building it requires cgo and the tesseract/leptonica headers.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/hazyhaar/doctext/ocr"
)

var _ ocr.Engine = (*Engine)(nil)

// Engine recognizes text with a fresh gosseract client per call, so one
// Engine can serve concurrent pipelines.
type Engine struct {
	language string
}

// New returns an Engine for the given tesseract language code ("eng",
// "fra", "eng+deu"...). Empty means ocr.DefaultLanguage.
func New(language string) *Engine {
	if language == "" {
		language = ocr.DefaultLanguage
	}
	return &Engine{language: language}
}

// Recognize implements ocr.Engine.
func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return "", fmt.Errorf("set language %q: %w", e.language, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("set page seg mode: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
