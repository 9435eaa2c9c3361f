package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	roadsafe "github.com/kailas-cloud/roadsafe/pkg/sdk"
)

// --- Mocks ---

type mockRecommender struct {
	gotDesc string
	gotTopN int
	err     error
}

func (m *mockRecommender) Recommend(_ context.Context, description string, topN int) (*roadsafe.Recommendation, error) {
	m.gotDesc = description
	m.gotTopN = topN
	if m.err != nil {
		return nil, m.err
	}
	return &roadsafe.Recommendation{
		Matches: []roadsafe.Match{{ID: 1, Score: 0.5, Clause: "IRC:67 14.4"}},
		Method:  "tfidf",
		Query:   description,
		Count:   1,
	}, nil
}

func (m *mockRecommender) CacheStatus(context.Context) (roadsafe.CacheStatus, error) {
	if m.err != nil {
		return roadsafe.CacheStatus{}, m.err
	}
	return roadsafe.CacheStatus{Initialized: true, DocumentCount: 12}, nil
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("content len = %d, want 1", len(res.Content))
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want mcp.TextContent", res.Content[0])
	}
	return tc.Text
}

// --- Tests ---

func TestRecommend(t *testing.T) {
	rec := &mockRecommender{}
	h := &Handlers{rec: rec}

	res, err := h.Recommend(context.Background(), callRequest(map[string]any{
		"description": "sign hidden by trees",
		"top_n":       float64(3),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if rec.gotDesc != "sign hidden by trees" || rec.gotTopN != 3 {
		t.Errorf("got %q/%d", rec.gotDesc, rec.gotTopN)
	}

	var out roadsafe.Recommendation
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || out.Matches[0].Clause != "IRC:67 14.4" {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestRecommend_DefaultTopN(t *testing.T) {
	rec := &mockRecommender{}
	h := &Handlers{rec: rec}

	if _, err := h.Recommend(context.Background(), callRequest(map[string]any{"description": "x"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.gotTopN != defaultTopN {
		t.Errorf("top_n = %d, want %d", rec.gotTopN, defaultTopN)
	}
}

func TestRecommend_Errors(t *testing.T) {
	h := &Handlers{rec: &mockRecommender{}}
	res, err := h.Recommend(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Error("missing description should be a tool error")
	}

	h = &Handlers{rec: &mockRecommender{err: errors.New("search unavailable")}}
	res, err = h.Recommend(context.Background(), callRequest(map[string]any{"description": "x"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Error("backend failure should be a tool error")
	}
}

func TestIndexStatus(t *testing.T) {
	h := &Handlers{rec: &mockRecommender{}}
	res, err := h.IndexStatus(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var st roadsafe.CacheStatus
	if err := json.Unmarshal([]byte(resultText(t, res)), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.Initialized || st.DocumentCount != 12 {
		t.Errorf("unexpected status: %+v", st)
	}
}
