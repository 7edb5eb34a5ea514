package mock

import (
	"context"

	"github.com/hazyhaar/doctext/analysis"
	"github.com/hazyhaar/doctext/docpipe"
)

var (
	_ analysis.Generator = (*Generator)(nil)
	_ analysis.Extractor = (*Extractor)(nil)
)

// Generator is a mock implementation of analysis.Generator.
type Generator struct {
	GenerateFn func(ctx context.Context, prompt string) (string, error)
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.GenerateFn(ctx, prompt)
}

// Extractor is a mock implementation of analysis.Extractor.
type Extractor struct {
	ExtractFn func(ctx context.Context, doc docpipe.SourceDocument) *docpipe.Result
}

func (e *Extractor) Extract(ctx context.Context, doc docpipe.SourceDocument) *docpipe.Result {
	return e.ExtractFn(ctx, doc)
}
