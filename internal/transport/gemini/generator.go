// Package gemini implements the explanation generator over the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/metrics"
)

const providerName = "gemini"

// Config holds the Gemini provider settings.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Logger      *zap.Logger
}

// Generator produces explanations with a Gemini generative model.
type Generator struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
	logger *zap.Logger
}

// NewGenerator creates a Gemini client for the configured model.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	if cfg.Temperature >= 0 {
		model.SetTemperature(cfg.Temperature)
	}
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens)) //nolint:gosec // bounded by config validation
	}

	return &Generator{client: client, model: model, name: cfg.Model, logger: cfg.Logger}, nil
}

// Generate implements domain.Generator with transport-level metrics.
// The model is shared, so the system prompt is sent as a leading user part
// instead of mutating SystemInstruction per call.
func (g *Generator) Generate(ctx context.Context, p domain.Prompt) (domain.GenerationResult, error) {
	parts := make([]genai.Part, 0, 2)
	if p.System != "" {
		parts = append(parts, genai.Text(p.System))
	}
	parts = append(parts, genai.Text(p.User))

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, parts...)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveExplainError(providerName, g.name, "api_error")
		return domain.GenerationResult{}, fmt.Errorf("gemini generate: %w: %w", err, domain.ErrExplanationUnavailable)
	}

	res, err := toResult(resp)
	if err != nil {
		metrics.ObserveExplainError(providerName, g.name, "empty_response")
		return domain.GenerationResult{}, err
	}
	metrics.ObserveExplainSuccess(providerName, g.name, duration, res.PromptTokens, res.CompletionTokens)
	return res, nil
}

// HealthCheck fetches the model metadata.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.model.Info(ctx); err != nil {
		return fmt.Errorf("gemini model info: %w", err)
	}
	return nil
}

// Close releases the client connection.
func (g *Generator) Close() error {
	return g.client.Close() //nolint:wrapcheck // pass-through
}

// toResult flattens the first candidate's text parts and copies usage.
func toResult(resp *genai.GenerateContentResponse) (domain.GenerationResult, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return domain.GenerationResult{}, fmt.Errorf("empty gemini response: %w", domain.ErrExplanationUnavailable)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return domain.GenerationResult{}, fmt.Errorf("empty gemini response: %w", domain.ErrExplanationUnavailable)
	}

	res := domain.GenerationResult{Text: text}
	if u := resp.UsageMetadata; u != nil {
		res.PromptTokens = int(u.PromptTokenCount)
		res.CompletionTokens = int(u.CandidatesTokenCount)
		res.TotalTokens = int(u.TotalTokenCount)
	}
	return res, nil
}
