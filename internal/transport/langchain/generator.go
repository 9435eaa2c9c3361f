// Package langchain implements the explanation generator over langchaingo,
// targeting OpenAI-compatible local model servers.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/metrics"
)

const providerName = "langchain"

// Config holds the local model server settings.
type Config struct {
	BaseURL     string
	APIKey      string // local servers usually ignore it
	Model       string
	Temperature float64
	MaxTokens   int
	Logger      *zap.Logger
}

// Generator produces explanations through an llms.Model.
type Generator struct {
	client      llms.Model
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewGenerator connects to an OpenAI-compatible host.
func NewGenerator(cfg *Config) (*Generator, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("langchain base url is required")
	}
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create langchain client: %w", err)
	}
	return NewWithModel(client, cfg), nil
}

// NewWithModel wraps an existing llms.Model.
func NewWithModel(client llms.Model, cfg *Config) *Generator {
	return &Generator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
	}
}

// Generate implements domain.Generator with transport-level metrics.
func (g *Generator) Generate(ctx context.Context, p domain.Prompt) (domain.GenerationResult, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, p.System),
		llms.TextParts(llms.ChatMessageTypeHuman, p.User),
	}

	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}

	start := time.Now()
	resp, err := g.client.GenerateContent(ctx, content, opts...)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveExplainError(providerName, g.model, "api_error")
		return domain.GenerationResult{}, fmt.Errorf("langchain generate: %w: %w", err, domain.ErrExplanationUnavailable)
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		metrics.ObserveExplainError(providerName, g.model, "empty_response")
		return domain.GenerationResult{}, fmt.Errorf("empty completion: %w", domain.ErrExplanationUnavailable)
	}

	choice := resp.Choices[0]
	res := domain.GenerationResult{
		Text:             strings.TrimSpace(choice.Content),
		PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		TotalTokens:      intInfo(choice.GenerationInfo, "TotalTokens"),
	}
	metrics.ObserveExplainSuccess(providerName, g.model, duration, res.PromptTokens, res.CompletionTokens)
	return res, nil
}

// intInfo reads an integer from langchaingo generation info.
func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
