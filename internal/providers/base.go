// Package providers holds the shared HTTP scaffolding every adapter in
// internal/providers/{search,reddit,scraper,llm} builds on, grounded in
// ai/providers/base.go's BaseClient: an *http.Client with a timeout, a
// logger, and a status-code-to-ErrorKind mapper. Retry itself is not here —
// that's internal/retry's job — this package only builds requests, reads
// responses, and classifies what came back.
package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gomind-research/procmind/internal/logging"
	"github.com/gomind-research/procmind/internal/procerr"
	"github.com/gomind-research/procmind/internal/telemetry"
)

// DefaultCallDeadline is spec.md §5's "every outbound HTTP call carries a
// per-call deadline (default 30s, adapter-configurable)".
const DefaultCallDeadline = 30 * time.Second

// BaseClient is the common shape every adapter embeds: an HTTP client whose
// RoundTripper is wrapped in otelhttp so every outbound call is traced the
// same way telemetry.NewTracedHTTPClient traces orchestration/executor.go's
// client, plus a logger and the provider's API key/base URL.
type BaseClient struct {
	HTTPClient *http.Client
	Logger     logging.Logger
	APIKey     string
	BaseURL    string

	// Telemetry is nil by default (no span/metric overhead). SetTelemetry
	// wires a real Provider in, at which point Do wraps each outbound call
	// in a span the way telemetry.NewTracedHTTPClient wraps
	// orchestration/executor.go's client in the teacher.
	Telemetry *telemetry.Provider
}

// NewBaseClient builds a BaseClient with a per-call deadline and an
// otelhttp-wrapped transport. Passing an empty baseURL is valid; adapters
// fall back to their provider's documented default.
func NewBaseClient(apiKey, baseURL string, deadline time.Duration, logger logging.Logger) *BaseClient {
	if logger == nil {
		logger = logging.NoOp()
	}
	if deadline <= 0 {
		deadline = DefaultCallDeadline
	}
	return &BaseClient{
		HTTPClient: &http.Client{
			Timeout:   deadline,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Logger:  logger,
		APIKey:  apiKey,
		BaseURL: baseURL,
	}
}

// SetTelemetry wires a Provider into the client; passing nil (the default)
// disables span/metric recording on Do.
func (b *BaseClient) SetTelemetry(t *telemetry.Provider) {
	b.Telemetry = t
}

// Do issues req and returns the body bytes alongside a *procerr.Classified
// derived from the status code (nil when the status is 2xx). Network-level
// failures (DNS, connection refused, deadline) are classified from the
// returned error instead of a status code. When Telemetry is set, the call
// is wrapped in a span named "adapter.http.<METHOD>", tagged with the
// request URL and final status, and a request-count metric is recorded.
func (b *BaseClient) Do(ctx context.Context, req *http.Request) ([]byte, int, *procerr.Classified) {
	if b.Telemetry != nil {
		var span telemetry.Span
		ctx, span = b.Telemetry.StartSpan(ctx, "adapter.http."+req.Method)
		span.SetAttribute("http.url", req.URL.String())
		defer span.End()

		body, status, classified := b.do(ctx, req)
		span.SetAttribute("http.status_code", status)
		outcome := "ok"
		if classified != nil {
			span.RecordError(fmt.Errorf("%s", classified.Message))
			outcome = string(classified.Kind)
		}
		b.Telemetry.RecordMetric(ctx, "adapter_requests_total", 1, map[string]string{
			"status":  strconv.Itoa(status),
			"outcome": outcome,
		})
		return body, status, classified
	}
	return b.do(ctx, req)
}

func (b *BaseClient) do(ctx context.Context, req *http.Request) ([]byte, int, *procerr.Classified) {
	resp, err := b.HTTPClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, 0, procerr.Classify(err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, resp.StatusCode, procerr.Classify(fmt.Errorf("reading response body: %w", readErr))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, resp.StatusCode, nil
	}
	return body, resp.StatusCode, procerr.Classify(procerr.HTTPStatusError{
		Status: resp.StatusCode,
		Err:    fmt.Errorf("%s", truncateBody(body)),
	})
}

func truncateBody(b []byte) string {
	const max = 256
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "...(truncated)"
}
