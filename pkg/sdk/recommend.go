package roadsafe

import (
	"context"
	"errors"
	"net/http"
)

type recommendBody struct {
	Description string `json:"description"`
	TopN        int    `json:"top_n,omitempty"`
}

type batchBody struct {
	Items   []BatchQuery `json:"items"`
	Explain bool         `json:"explain"`
}

// Recommend ranks IRC clauses for a road problem description.
func (c *Client) Recommend(ctx context.Context, description string, opts ...RecommendOption) (*Recommendation, error) {
	var rc recommendConfig
	for _, o := range opts {
		o(&rc)
	}

	var env envelope[Recommendation]
	err := c.call(ctx, "recommend", http.MethodPost, "/recommend",
		recommendBody{Description: description, TopN: rc.topN}, &env)
	if err != nil {
		return nil, err
	}
	if !env.OK {
		return nil, envelopeError(env.Error)
	}
	return &env.Data, nil
}

// RecommendBatch ranks clauses for several descriptions in one call.
// Item failures are reported per item; the call itself fails only when the
// batch is rejected as a whole.
func (c *Client) RecommendBatch(ctx context.Context, queries []BatchQuery, explain bool) (*BatchResult, error) {
	var env envelope[BatchResult]
	err := c.call(ctx, "recommend_batch", http.MethodPost, "/recommend/batch",
		batchBody{Items: queries, Explain: explain}, &env)
	if err != nil {
		return nil, err
	}
	if !env.OK {
		return nil, envelopeError(env.Error)
	}
	return &env.Data, nil
}

func envelopeError(msg *string) error {
	if msg == nil {
		return errors.New("roadsafe: request failed")
	}
	return errors.New("roadsafe: " + *msg)
}
