package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/doctext/docpipe"
	"github.com/hazyhaar/doctext/kit"
)

type fileResult struct {
	File   string          `json:"file"`
	Result *docpipe.Result `json:"result"`
}

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	results := make([]fileResult, len(c.Files))
	ctx := kit.WithTransport(deps.Ctx, "cli")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.Jobs, 1))
	for i, path := range c.Files {
		g.Go(func() error {
			doc, err := readDocument(path, c.MediaType)
			if err != nil {
				return err
			}
			results[i] = fileResult{File: path, Result: deps.Pipeline.Extract(gctx, doc)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		printResults(deps, results)
	}

	failed := 0
	for _, r := range results {
		if !r.Result.OK() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents yielded no text", failed, len(results))
	}
	return nil
}

func printResults(deps *Dependencies, results []fileResult) {
	for i, r := range results {
		for _, w := range r.Result.Warnings {
			fmt.Fprintf(deps.Stderr, "%s: warning: %s\n", r.File, w)
		}
		if !r.Result.OK() {
			continue
		}
		if len(results) > 1 {
			if i > 0 {
				fmt.Fprintln(deps.Stdout)
			}
			fmt.Fprintf(deps.Stdout, "==> %s <==\n", r.File)
		}
		fmt.Fprintln(deps.Stdout, r.Result.Text)
	}
}

// readDocument loads path. An explicit media type wins over the extension;
// an unknown extension is passed through so the pipeline reports it as
// unsupported.
func readDocument(path, mediaType string) (docpipe.SourceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return docpipe.SourceDocument{}, fmt.Errorf("read %s: %w", path, err)
	}
	doc := docpipe.SourceDocument{Name: filepath.Base(path), Data: data}
	switch {
	case mediaType != "":
		doc.MediaType = docpipe.ParseMediaType(mediaType)
	default:
		mt, err := docpipe.DetectMediaType(path)
		if err != nil {
			mt = docpipe.MediaType(filepath.Ext(path))
		}
		doc.MediaType = mt
	}
	return doc, nil
}

// extractOne reads and extracts a single file.
func extractOne(ctx context.Context, deps *Dependencies, path, mediaType string) (*docpipe.Result, error) {
	doc, err := readDocument(path, mediaType)
	if err != nil {
		return nil, err
	}
	return deps.Pipeline.Extract(ctx, doc), nil
}
