// Package llm implements the LLM adapter (C5), grounded in
// ai/providers/openai/client.go's chat-completion shape: a provider-alias
// base-URL override (mapped here onto OPENROUTER_BASE_URL per spec.md §6),
// request construction, retry via C2, and response parsing.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gomind-research/procmind/internal/logging"
	"github.com/gomind-research/procmind/internal/procerr"
	"github.com/gomind-research/procmind/internal/providers"
	"github.com/gomind-research/procmind/internal/retry"
	"github.com/gomind-research/procmind/internal/telemetry"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	defaultContentCharCeiling = 24000
	truncationMarker        = "\n...[truncated]"
)

// Result is spec.md §4.5's LLM AdapterResponse. On final failure Processed
// is false and Output is set to the *original, untruncated* input content
// so the caller can gracefully degrade instead of losing the input.
type Result struct {
	Output      string
	Processed   bool
	TokensUsed  int
	Error       *procerr.Classified
}

// Client is the LLM provider adapter.
type Client struct {
	base               *providers.BaseClient
	model              string
	contentCharCeiling int
}

func New(apiKey, baseURL, model string, logger logging.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		base:               providers.NewBaseClient(apiKey, baseURL, providers.DefaultCallDeadline, logger),
		model:              model,
		contentCharCeiling: defaultContentCharCeiling,
	}
}

// WithTelemetry wires a Provider into the client so every outbound call
// made through Do is wrapped in a span, and so DeepResearch's fan-out over
// questions can start a job span of its own; it returns the receiver for
// chaining off New.
func (c *Client) WithTelemetry(t *telemetry.Provider) *Client {
	c.base.SetTelemetry(t)
	return c
}

// Telemetry returns the Provider wired via WithTelemetry (nil if none).
func (c *Client) Telemetry() *telemetry.Provider { return c.base.Telemetry }

// Logger returns the logger wired in at construction.
func (c *Client) Logger() logging.Logger { return c.base.Logger }

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Extract sends prompt + content as a chat-completion request with a
// configured maximum output-token budget. Content exceeding the character
// ceiling is truncated with a marker before being sent. Retryable failures
// are retried per §4.1/§4.2; an empty output string is non-retryable and
// classified Internal. On any final failure Extract degrades gracefully:
// Processed is false and Output carries the original, untruncated content.
func (c *Client) Extract(ctx context.Context, prompt, content string, maxOutputTokens int) *Result {
	truncated := truncate(content, c.contentCharCeiling)

	resp, classified := retry.Run(ctx, retry.DefaultPolicy(), func(ctx context.Context) (chatResponse, error) {
		return c.complete(ctx, prompt, truncated, maxOutputTokens)
	})

	if classified != nil {
		return &Result{Processed: false, Output: content, Error: classified}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		empty := &procerr.Classified{Kind: procerr.Internal, Message: "Empty response received", Retryable: false}
		return &Result{Processed: false, Output: content, Error: empty}
	}

	return &Result{
		Output:     resp.Choices[0].Message.Content,
		Processed:  true,
		TokensUsed: resp.Usage.TotalTokens,
	}
}

func (c *Client) complete(ctx context.Context, prompt, content string, maxOutputTokens int) (chatResponse, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt + "\n\n" + content},
		},
		MaxTokens: maxOutputTokens,
	}
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return chatResponse{}, fmt.Errorf("encoding llm request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.base.BaseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return chatResponse{}, fmt.Errorf("building llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.base.APIKey)

	body, _, classified := c.base.Do(ctx, req)
	if classified != nil {
		return chatResponse{}, classified
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return chatResponse{}, procerr.Classify(fmt.Errorf("parsing llm response JSON: %w", err))
	}
	return parsed, nil
}

func truncate(content string, ceiling int) string {
	if ceiling <= 0 || len(content) <= ceiling {
		return content
	}
	return content[:ceiling] + truncationMarker
}
