package roadsafe

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Health returns the server health report. A degraded server answers with
// 503; Health then returns a "degraded" status together with the error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	err := c.call(ctx, "health", http.MethodGet, "/health", nil, &hs)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		return HealthStatus{Status: "degraded"}, err
	}
	return hs, err
}

// CacheStatus returns the server search index status.
func (c *Client) CacheStatus(ctx context.Context) (CacheStatus, error) {
	var st CacheStatus
	err := c.call(ctx, "cache_status", http.MethodGet, "/search/cache", nil, &st)
	return st, err
}

// ResetCache drops the server search index; it is rebuilt on the next query.
func (c *Client) ResetCache(ctx context.Context) error {
	return c.call(ctx, "cache_reset", http.MethodPost, "/search/cache/reset", nil, nil)
}

// Usage returns the explanation token usage report for the given period.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) (UsageReport, error) {
	path := "/usage"
	if period != "" {
		path += "?period=" + url.QueryEscape(string(period))
	}
	var rep UsageReport
	err := c.call(ctx, "usage", http.MethodGet, path, nil, &rep)
	return rep, err
}
