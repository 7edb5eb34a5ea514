// Package gemini implements analysis.Generator on Google Gemini.
package gemini

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"github.com/hazyhaar/doctext/analysis"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultTemperature keeps explanations close to the document.
const DefaultTemperature = 0.4

// Ensure Generator implements analysis.Generator at compile time.
var _ analysis.Generator = (*Generator)(nil)

// Generator sends one prompt per call to a Gemini model.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGenerator creates a Generator. An empty model uses DefaultModel and a
// negative temperature uses DefaultTemperature.
func NewGenerator(client *genai.Client, model string, temperature float32) *Generator {
	if model == "" {
		model = DefaultModel
	}
	if temperature < 0 {
		temperature = DefaultTemperature
	}
	return &Generator{client: client, model: model, temperature: temperature}
}

// NewClient creates a Gemini API client for apiKey.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key required")
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// Model returns the model name requests are sent to.
func (g *Generator) Model() string {
	return g.model
}

// Generate returns the model's text for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", errors.New("gemini: empty prompt")
	}
	if g.client == nil {
		return "", errors.New("gemini: no client")
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		g.Config(),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", errors.New("gemini: nil result")
	}
	text := result.Text()
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

// Config returns the GenerateContentConfig for Gemini API calls.
func (g *Generator) Config() *genai.GenerateContentConfig {
	temp := g.temperature
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "Explain legal documents to people without legal training. Base every statement on the document provided; if it does not say, say so.",
			}},
		},
		Temperature: &temp,
	}
}
