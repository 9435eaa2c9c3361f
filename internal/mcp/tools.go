// Package mcp exposes the recommender as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	roadsafe "github.com/kailas-cloud/roadsafe/pkg/sdk"
)

// Tool names.
const (
	ToolRecommend   = "recommend_irc_clauses"
	ToolIndexStatus = "search_index_status"
)

const defaultTopN = 5

// Recommender serves the tools. Both the local engine and the SDK client satisfy it.
type Recommender interface {
	Recommend(ctx context.Context, description string, topN int) (*roadsafe.Recommendation, error)
	CacheStatus(ctx context.Context) (roadsafe.CacheStatus, error)
}

// Handlers holds the tool handlers.
type Handlers struct {
	rec Recommender
}

// RegisterTools registers the roadsafe tools on server.
func RegisterTools(server *mcpserver.MCPServer, rec Recommender) *Handlers {
	h := &Handlers{rec: rec}

	server.AddTool(mcp.Tool{
		Name: ToolRecommend,
		Description: "Find Indian Roads Congress (IRC) road-safety clauses relevant to a road problem. " +
			"Returns matches ranked by TF-IDF similarity with the clause, problem and supporting data.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"description": map[string]any{
					"type":        "string",
					"description": "Free-text description of the road safety problem",
				},
				"top_n": map[string]any{
					"type":        "number",
					"description": "Maximum number of clauses to return, 1-20 (default: 5)",
					"default":     defaultTopN,
				},
			},
			Required: []string{"description"},
		},
	}, h.Recommend)

	server.AddTool(mcp.Tool{
		Name:        ToolIndexStatus,
		Description: "Report the search index status: documents indexed, feature count and vocabulary size.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, h.IndexStatus)

	return h
}

// Recommend handles the recommend_irc_clauses tool.
func (h *Handlers) Recommend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := request.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("description argument is required and must be a string"), nil
	}
	topN := request.GetInt("top_n", defaultTopN)

	rec, err := h.rec.Recommend(ctx, description, topN)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recommendation failed: %v", err)), nil
	}
	return jsonResult(rec)
}

// IndexStatus handles the search_index_status tool.
func (h *Handlers) IndexStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.rec.CacheStatus(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}
	return jsonResult(st)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
