package domain

import "context"

// Generator produces text from a prompt. Providers (OpenAI, Gemini, local
// models) implement it; caching and budget layers decorate it.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (GenerationResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Prompt is a two-part chat prompt.
type Prompt struct {
	System string
	User   string
}

// GenerationResult carries generated text and token usage through the decorator chain.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cached           bool
}
