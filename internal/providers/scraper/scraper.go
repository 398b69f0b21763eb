// Package scraper implements the Scraper adapter (C5): a three-mode
// fallback ladder (basic, javascript, javascript+geo), per spec.md §4.5.
// Shares ai/providers/base.go's BaseClient shape for the HTTP scaffolding.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gomind-research/procmind/internal/fanout"
	"github.com/gomind-research/procmind/internal/logging"
	"github.com/gomind-research/procmind/internal/procerr"
	"github.com/gomind-research/procmind/internal/providers"
	"github.com/gomind-research/procmind/internal/retry"
	"github.com/gomind-research/procmind/internal/telemetry"
)

const defaultBaseURL = "https://scraper-proxy.example.com"

// Mode is one rung of the fallback ladder.
type Mode string

const (
	ModeBasic          Mode = "basic"
	ModeJavaScript     Mode = "javascript"
	ModeJavaScriptGeo  Mode = "javascript+geo"
)

var ladder = []Mode{ModeBasic, ModeJavaScript, ModeJavaScriptGeo}

// permanentStatuses never advance the ladder further: the adapter returns
// immediately with this result.
var permanentStatuses = map[int]bool{401: true, 400: true, 403: true}

// Result is spec.md §3's Scraper AdapterResponse:
// { content, status_code, credits_consumed, error? }. error is always an
// explicit field, never encoded by content being empty.
type Result struct {
	Content         string
	StatusCode      int
	CreditsConsumed int
	Mode            Mode
	Error           *procerr.Classified
}

// BatchConcurrency is spec.md §4.6's Scraper fan-out cap.
const BatchConcurrency = 30

// Policy is spec.md §4.2's Scraper retryable set: {429, 502, 503, 504,
// 510} retryable, {400, 401, 403} permanent.
func Policy() retry.Policy {
	p := retry.DefaultPolicy()
	retryable := map[int]bool{429: true, 502: true, 503: true, 504: true, 510: true}
	p.Retryable = func(c *procerr.Classified) bool {
		if c.HTTPStatus != 0 {
			return retryable[c.HTTPStatus]
		}
		return c.Retryable
	}
	return p
}

// Client is the Scraper provider adapter.
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
// made through Do, and the ScrapeBatch fan-out job itself, are wrapped in
// spans; it returns the receiver for chaining off New.
func (c *Client) WithTelemetry(t *telemetry.Provider) *Client {
	c.base.SetTelemetry(t)
	return c
}

// Scrape runs the scrape-with-fallback ladder for targetURL: each rung
// retries under Policy() via C2, advances to the next rung on a
// non-permanent failure, and returns immediately on a 2xx or a 404
// (a valid "not found" terminal response). A permanent failure (401/400/403)
// short-circuits the remaining ladder and is returned as the final result.
func (c *Client) Scrape(ctx context.Context, targetURL, geo string) *Result {
	var last *Result
	for _, mode := range ladder {
		result := c.scrapeOnce(ctx, targetURL, geo, mode)
		last = result

		if result.Error == nil {
			return result // 2xx
		}
		if result.Error.HTTPStatus == http.StatusNotFound {
			return result // terminal "not found"
		}
		if permanentStatuses[result.Error.HTTPStatus] {
			return result // permanent: skip remaining ladder
		}
		// otherwise: non-permanent, advance to next rung
	}
	return last
}

func (c *Client) scrapeOnce(ctx context.Context, targetURL, geo string, mode Mode) *Result {
	type response struct {
		content string
		credits int
	}

	resp, classified := retry.Run(ctx, Policy(), func(ctx context.Context) (response, error) {
		return c.fetch(ctx, targetURL, geo, mode)
	})

	result := &Result{StatusCode: 0, Mode: mode, Content: resp.content, CreditsConsumed: resp.credits}
	if classified != nil {
		result.Error = classified
		result.StatusCode = classified.HTTPStatus
	}
	return result
}

func (c *Client) fetch(ctx context.Context, targetURL, geo string, mode Mode) (struct {
	content string
	credits int
}, error) {
	type out = struct {
		content string
		credits int
	}

	endpoint := fmt.Sprintf("%s/scrape?url=%s&mode=%s", c.base.BaseURL, url.QueryEscape(targetURL), url.QueryEscape(string(mode)))
	if mode == ModeJavaScriptGeo && geo != "" {
		endpoint += "&geo=" + url.QueryEscape(geo)
	}

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return out{}, fmt.Errorf("building scrape request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.base.APIKey)

	body, _, classified := c.base.Do(ctx, req)
	if classified != nil {
		return out{}, classified
	}
	return out{content: string(body), credits: 1}, nil
}

// ScrapeBatch runs Scrape over urls under C3 with BatchConcurrency in
// flight, per spec.md §4.6. Results are ordered to match urls.
func (c *Client) ScrapeBatch(ctx context.Context, urls []string, geo string) []*Result {
	return fanout.RunTraced(ctx, c.base.Telemetry, c.base.Logger, "scrape_batch", urls, BatchConcurrency, func(ctx context.Context, u string) *Result {
		return c.Scrape(ctx, u, geo)
	}, func(recovered any) *Result {
		return &Result{Error: procerr.Classify(fmt.Errorf("scrape task panicked: %v", recovered))}
	})
}
