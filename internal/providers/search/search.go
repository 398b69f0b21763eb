// Package search implements the Search adapter (C5), grounded in
// ai/providers/openai/client.go's shape (API key + base URL construction,
// a single exported call operation, provider-specific error handling) and
// ai/providers/base.go's BaseClient for the underlying HTTP scaffolding.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gomind-research/procmind/internal/config"
	"github.com/gomind-research/procmind/internal/logging"
	"github.com/gomind-research/procmind/internal/procerr"
	"github.com/gomind-research/procmind/internal/providers"
	"github.com/gomind-research/procmind/internal/retry"
	"github.com/gomind-research/procmind/internal/telemetry"
)

const defaultBaseURL = "https://serpapi-proxy.example.com"

// Result is a single search hit.
type Result struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// QueryResult is spec.md §4.5's position-wise mapped entry:
// { query, results, total_results, related_queries }.
type QueryResult struct {
	Query          string   `json:"query"`
	Results        []Result `json:"results"`
	TotalResults   int      `json:"total_results"`
	RelatedQueries []string `json:"related_queries"`
}

// Policy is spec.md §4.2's Search retryable status set: {429, 500, 502,
// 503, 504}.
func Policy() retry.Policy {
	p := retry.DefaultPolicy()
	retryable := map[int]bool{429: true, 500: true, 502: true, 503: true, 504: true}
	p.Retryable = func(c *procerr.Classified) bool {
		if c.HTTPStatus != 0 {
			return retryable[c.HTTPStatus]
		}
		return c.Retryable
	}
	return p
}

// Client is the Search provider adapter.
type Client struct {
	base *providers.BaseClient
}

func New(apiKey, baseURL string, logger logging.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{base: providers.NewBaseClient(apiKey, baseURL, providers.DefaultCallDeadline, logger)}
}

// WithTelemetry wires a Provider into the client so every outbound call
// made through Do is wrapped in a span; it returns the receiver for
// chaining off New/FromConfig.
func (c *Client) WithTelemetry(t *telemetry.Provider) *Client {
	c.base.SetTelemetry(t)
	return c
}

type batchRequest struct {
	Queries []string `json:"queries"`
}

type rawSubResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type rawBatchEntry struct {
	Query          string         `json:"query"`
	Results        []rawSubResult `json:"results"`
	TotalResults   int            `json:"total_results"`
	RelatedQueries []string       `json:"related_queries"`
}

// Search issues one batched POST for queries and maps the response
// position-wise back onto one QueryResult per query. A malformed or missing
// sub-response yields an empty entry at that position rather than failing
// the batch; a failed HTTP call or a response body that is not a JSON array
// is returned as the Classified error. Empty input returns empty output
// without a call.
func (c *Client) Search(ctx context.Context, queries []string) ([]QueryResult, *procerr.Classified) {
	if len(queries) == 0 {
		return nil, nil
	}

	result, classified := retry.Run(ctx, Policy(), func(ctx context.Context) ([]QueryResult, error) {
		return c.doSearch(ctx, queries, "/search")
	})
	return result, classified
}

// SearchReddit appends a site:reddit.com domain filter (and an optional
// date filter) to each query before issuing the same batched call.
func (c *Client) SearchReddit(ctx context.Context, queries []string, dateFilter string) ([]QueryResult, *procerr.Classified) {
	if len(queries) == 0 {
		return nil, nil
	}
	scoped := make([]string, len(queries))
	for i, q := range queries {
		scoped[i] = q + " site:reddit.com"
		if dateFilter != "" {
			scoped[i] += " " + dateFilter
		}
	}
	result, classified := retry.Run(ctx, Policy(), func(ctx context.Context) ([]QueryResult, error) {
		return c.doSearch(ctx, scoped, "/search")
	})
	// Report back the original (unscoped) queries so downstream aggregation
	// keys on what the caller asked for, not the provider-internal filter.
	for i := range result {
		if i < len(queries) {
			result[i].Query = queries[i]
		}
	}
	return result, classified
}

func (c *Client) doSearch(ctx context.Context, queries []string, path string) ([]QueryResult, error) {
	body, err := json.Marshal(batchRequest{Queries: queries})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.base.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.base.APIKey)

	respBody, _, classified := c.base.Do(ctx, req)
	if classified != nil {
		return nil, classified
	}

	var raw []json.RawMessage
	if jsonErr := json.Unmarshal(respBody, &raw); jsonErr != nil {
		return nil, procerr.Classify(fmt.Errorf("parsing search response JSON: %w", jsonErr))
	}

	results := make([]QueryResult, len(queries))
	for i, q := range queries {
		results[i].Query = q
		if i >= len(raw) {
			continue // short batch response: empty entry at this position
		}
		var entry rawBatchEntry
		if json.Unmarshal(raw[i], &entry) != nil {
			continue // malformed sub-response: empty entry at this position
		}
		results[i].TotalResults = entry.TotalResults
		results[i].RelatedQueries = entry.RelatedQueries
		for pos, r := range entry.Results {
			results[i].Results = append(results[i].Results, Result{
				Title:    r.Title,
				URL:      r.URL,
				Snippet:  r.Snippet,
				Position: pos,
			})
		}
	}
	return results, nil
}

// FromConfig is a small constructor convenience used by cmd/researchd.
func FromConfig(cfg *config.Config, logger logging.Logger) *Client {
	return New(cfg.SearchAPIKey, "", logger)
}
