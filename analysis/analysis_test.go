package analysis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/doctext/analysis"
	"github.com/hazyhaar/doctext/mock"
)

func TestAnalyzer_Analyze_RejectsEmptyTextBeforeModelCall(t *testing.T) {
	t.Parallel()

	gen := &mock.Generator{
		GenerateFn: func(context.Context, string) (string, error) {
			t.Fatal("model must not be called")
			return "", nil
		},
	}
	a := analysis.New(gen, nil)

	_, err := a.Analyze(context.Background(), analysis.ModeSummary, "  \n ")

	require.ErrorIs(t, err, analysis.ErrEmptyText)
}

func TestAnalyzer_Analyze_InterpolatesText(t *testing.T) {
	t.Parallel()

	var got string
	gen := &mock.Generator{
		GenerateFn: func(_ context.Context, prompt string) (string, error) {
			got = prompt
			return "  A short summary.  ", nil
		},
	}
	a := analysis.New(gen, nil)

	out, err := a.Analyze(context.Background(), analysis.ModeRisks, "The tenant pays a 5% late fee.")

	require.NoError(t, err)
	assert.Equal(t, "A short summary.", out)
	assert.Contains(t, got, "Legal Document:\nThe tenant pays a 5% late fee.")
	assert.Contains(t, got, "Financial risks")
}

func TestAnalyzer_Analyze_WrapsGeneratorError(t *testing.T) {
	t.Parallel()

	quota := errors.New("quota exceeded")
	gen := &mock.Generator{
		GenerateFn: func(context.Context, string) (string, error) { return "", quota },
	}
	a := analysis.New(gen, nil)

	_, err := a.Analyze(context.Background(), analysis.ModeSummary, "text")

	require.ErrorIs(t, err, quota)
	assert.Contains(t, err.Error(), "generate summary")
}

func TestAnalyzer_Analyze_UnknownMode(t *testing.T) {
	t.Parallel()

	a := analysis.New(&mock.Generator{}, nil)

	_, err := a.Analyze(context.Background(), analysis.Mode("poetry"), "text")

	require.ErrorIs(t, err, analysis.ErrUnknownMode)
}

func TestAnalyzer_Ask(t *testing.T) {
	t.Parallel()

	var got string
	gen := &mock.Generator{
		GenerateFn: func(_ context.Context, prompt string) (string, error) {
			got = prompt
			return "You can cancel with 30 days notice.", nil
		},
	}
	a := analysis.New(gen, nil)

	out, err := a.Ask(context.Background(), "Either party may terminate on 30 days notice.", " Can I cancel? ")

	require.NoError(t, err)
	assert.Equal(t, "You can cancel with 30 days notice.", out)
	assert.Contains(t, got, "Document: Either party may terminate on 30 days notice.")
	assert.Contains(t, got, "Question: Can I cancel?")
}

func TestAnalyzer_Ask_Validation(t *testing.T) {
	t.Parallel()

	a := analysis.New(&mock.Generator{}, nil)

	_, err := a.Ask(context.Background(), "", "why?")
	require.ErrorIs(t, err, analysis.ErrEmptyText)

	_, err = a.Ask(context.Background(), "text", "   ")
	require.ErrorIs(t, err, analysis.ErrEmptyQuestion)
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]analysis.Mode{
		"":          analysis.ModeSummary,
		"summary":   analysis.ModeSummary,
		" RISKS ":   analysis.ModeRisks,
		"questions": analysis.ModeQuestions,
	} {
		got, err := analysis.ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := analysis.ParseMode("haiku")
	require.ErrorIs(t, err, analysis.ErrUnknownMode)
}

func TestBuildPrompt_EveryModeHasTemplate(t *testing.T) {
	t.Parallel()

	for _, m := range analysis.Modes() {
		p, err := analysis.BuildPrompt(m, "DOCUMENT-BODY")
		require.NoError(t, err, m)
		assert.Contains(t, p, "DOCUMENT-BODY", m)
		assert.Contains(t, p, "Legal Document:", m)
	}
}
