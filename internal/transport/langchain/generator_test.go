package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/domain"
)

// --- Mocks ---

type mockModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (m *mockModel) GenerateContent(
	_ context.Context, messages []llms.MessageContent, options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, o := range options {
		o(&m.opts)
	}
	return m.resp, m.err
}

func (m *mockModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

// --- Tests ---

func TestGenerator_Generate(t *testing.T) {
	mm := &mockModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content: " Add a crash barrier. ",
		GenerationInfo: map[string]any{
			"PromptTokens":     90,
			"CompletionTokens": 30,
			"TotalTokens":      120,
		},
	}}}}
	g := NewWithModel(mm, &Config{Model: "llama3", Temperature: 0.7, MaxTokens: 250, Logger: zap.NewNop()})

	res, err := g.Generate(context.Background(), domain.Prompt{System: "sys", User: "usr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Add a crash barrier." {
		t.Errorf("unexpected text %q", res.Text)
	}
	if res.PromptTokens != 90 || res.CompletionTokens != 30 || res.TotalTokens != 120 {
		t.Errorf("unexpected usage %+v", res)
	}
	if len(mm.messages) != 2 || mm.messages[0].Role != llms.ChatMessageTypeSystem {
		t.Errorf("unexpected messages %+v", mm.messages)
	}
	if mm.opts.MaxTokens != 250 || mm.opts.Temperature != 0.7 {
		t.Errorf("unexpected call options %+v", mm.opts)
	}
}

func TestGenerator_Errors(t *testing.T) {
	tests := []struct {
		name string
		mm   *mockModel
	}{
		{"provider error", &mockModel{err: errors.New("connection refused")}},
		{"no choices", &mockModel{resp: &llms.ContentResponse{}}},
		{"blank content", &mockModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: " "}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithModel(tt.mm, &Config{Model: "llama3", Logger: zap.NewNop()})
			_, err := g.Generate(context.Background(), domain.Prompt{User: "u"})
			if !errors.Is(err, domain.ErrExplanationUnavailable) {
				t.Fatalf("expected ErrExplanationUnavailable, got %v", err)
			}
		})
	}
}

func TestIntInfo(t *testing.T) {
	info := map[string]any{"a": 1, "b": int64(2), "c": 3.0, "d": "x", "e": int32(4)}
	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3, "d": 0, "e": 4, "missing": 0} {
		if got := intInfo(info, key); got != want {
			t.Errorf("intInfo(%q) = %d, want %d", key, got, want)
		}
	}
}

func TestNewGenerator_RequiresBaseURL(t *testing.T) {
	if _, err := NewGenerator(&Config{Model: "llama3"}); err == nil {
		t.Fatal("expected error without base url")
	}
}
