package mock

import (
	"context"

	"github.com/hazyhaar/doctext/ocr"
)

var _ ocr.Engine = (*OCREngine)(nil)

// OCREngine is a mock implementation of ocr.Engine.
type OCREngine struct {
	RecognizeFn func(ctx context.Context, image []byte) (string, error)
}

func (e *OCREngine) Recognize(ctx context.Context, image []byte) (string, error) {
	return e.RecognizeFn(ctx, image)
}
