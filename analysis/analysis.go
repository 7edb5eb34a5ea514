// Package analysis turns extracted document text into plain-language
// explanations by prompting a language model.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrEmptyText is returned before any model call when there is no text
	// to analyze.
	ErrEmptyText = errors.New("analysis: no document text")

	ErrEmptyQuestion = errors.New("analysis: question required")
	ErrUnknownMode   = errors.New("analysis: unknown mode")
)

// Mode selects an instruction template.
type Mode string

const (
	ModeSummary   Mode = "summary"
	ModeRisks     Mode = "risks"
	ModeQuestions Mode = "questions"
)

// Modes lists the analysis modes.
func Modes() []Mode {
	return []Mode{ModeSummary, ModeRisks, ModeQuestions}
}

// ParseMode accepts a mode name, case-insensitively. Empty means summary.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeSummary, nil
	}
	for _, m := range Modes() {
		if Mode(s) == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Analyzer prompts a Generator with document text.
type Analyzer struct {
	gen    Generator
	logger *slog.Logger
}

// New creates an Analyzer. A nil logger uses slog.Default().
func New(gen Generator, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{gen: gen, logger: logger}
}

// Analyze explains text according to mode.
func (a *Analyzer) Analyze(ctx context.Context, mode Mode, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	prompt, err := BuildPrompt(mode, text)
	if err != nil {
		return "", err
	}
	return a.generate(ctx, string(mode), prompt)
}

// Ask answers a question about text.
func (a *Analyzer) Ask(ctx context.Context, text, question string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	return a.generate(ctx, "ask", BuildQuestionPrompt(text, question))
}

func (a *Analyzer) generate(ctx context.Context, kind, prompt string) (string, error) {
	a.logger.DebugContext(ctx, "prompting model", "kind", kind, "prompt_chars", len(prompt))
	out, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", kind, err)
	}
	return strings.TrimSpace(out), nil
}
