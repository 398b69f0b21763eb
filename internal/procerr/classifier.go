// Package procerr implements the error classifier (C1): it turns whatever an
// adapter or HTTP round trip produced into a single tagged ErrorKind that the
// retry engine and dispatcher can reason about without knowing provider
// internals.
package procerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Kind is the closed set of classified error categories. Closed means
// callers switch over it exhaustively; there is no "other string" escape
// hatch beyond Unknown.
type Kind string

const (
	RateLimited        Kind = "rate_limited"
	Timeout            Kind = "timeout"
	Network            Kind = "network"
	ServiceUnavailable Kind = "service_unavailable"
	Auth               Kind = "auth"
	InvalidInput       Kind = "invalid_input"
	NotFound           Kind = "not_found"
	QuotaExceeded      Kind = "quota_exceeded"
	Parse              Kind = "parse"
	Internal           Kind = "internal"
	Unknown            Kind = "unknown"
)

// defaultRetryable mirrors spec.md §3: the first four kinds plus Internal
// are retryable by default; everything else is not.
var defaultRetryable = map[Kind]bool{
	RateLimited:        true,
	Timeout:            true,
	Network:            true,
	ServiceUnavailable: true,
	Internal:           true,
}

// maxMessageLen bounds the fallback Unknown message so a runaway panic value
// or huge response body never blows up a log line or rendered body.
const maxMessageLen = 512

// Classified is the immutable result of classification: a kind, a human
// message, and the optional context that produced it.
type Classified struct {
	Kind       Kind
	Message    string
	HTTPStatus int  // 0 if not derived from an HTTP status
	Retryable  bool
	Cause      string // original error's Error() string, or "" if none
}

func (c *Classified) Error() string {
	return c.Message
}

// statusTable is the dispatch table from spec.md §4.1 step 5.
var statusTable = map[int]Kind{
	400: InvalidInput,
	401: Auth,
	403: QuotaExceeded,
	404: NotFound,
	408: Timeout,
	429: RateLimited,
	500: Internal,
	502: ServiceUnavailable,
	503: ServiceUnavailable,
	504: Timeout,
	510: ServiceUnavailable,
}

// Classify accepts anything a failed call could produce — a Go error, a raw
// string, nil — and returns exactly one Classified value. It never panics.
func Classify(v any) *Classified {
	switch t := v.(type) {
	case nil:
		return &Classified{Kind: Unknown, Message: "no error", Retryable: false}
	case *Classified:
		return t
	case HTTPStatusError:
		return classifyStatus(t.Status, t.Err)
	case error:
		return classifyError(t)
	case string:
		return classifyMessage(t, 0)
	default:
		return classifyMessage(fmt.Sprintf("%v", t), 0)
	}
}

// HTTPStatusError lets an adapter hand the classifier both a status code and
// the underlying error/body in one value, rather than encoding the status
// into the error string.
type HTTPStatusError struct {
	Status int
	Err    error
}

func (e HTTPStatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("http status %d", e.Status)
}

func classifyError(err error) *Classified {
	if err == nil {
		return &Classified{Kind: Unknown, Message: "no error", Retryable: false}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Classified{Kind: Timeout, Message: "operation canceled or timed out", Retryable: true, Cause: err.Error()}
	}

	var statusErr HTTPStatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.Status, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Classified{Kind: Timeout, Message: "network operation timed out", Retryable: true, Cause: err.Error()}
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		msg := opErr.Error()
		if strings.Contains(msg, "connection refused") ||
			strings.Contains(msg, "no such host") ||
			strings.Contains(msg, "connection reset") {
			return &Classified{Kind: Network, Message: "network error", Retryable: true, Cause: err.Error()}
		}
	}

	return classifyMessage(err.Error(), 0)
}

func classifyStatus(status int, cause error) *Classified {
	kind, ok := statusTable[status]
	retryable := defaultRetryable[kind]
	if !ok {
		if status >= 500 {
			kind = ServiceUnavailable
			retryable = true
		} else {
			kind = Unknown
			retryable = false
		}
	}
	msg := fmt.Sprintf("provider returned HTTP %d", status)
	var causeStr string
	if cause != nil {
		causeStr = cause.Error()
	}
	return &Classified{Kind: kind, Message: msg, HTTPStatus: status, Retryable: retryable, Cause: causeStr}
}

// classifyMessage applies the textual heuristics from spec.md §4.1 steps
// 3/4/6/7. status is passed through so HTTPStatusError-derived messages keep
// their code even when routed through this path.
func classifyMessage(msg string, status int) *Classified {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "econnrefused"),
		strings.Contains(lower, "enotfound"),
		strings.Contains(lower, "econnreset"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "connection reset"):
		return &Classified{Kind: Network, Message: truncate(msg), Retryable: true, Cause: msg}

	case strings.Contains(lower, "econnaborted"),
		strings.Contains(lower, "etimedout"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "timed out"):
		return &Classified{Kind: Timeout, Message: truncate(msg), Retryable: true, Cause: msg}

	case strings.Contains(lower, "api_key"),
		strings.Contains(lower, "api key"),
		strings.Contains(lower, "invalid api"):
		return &Classified{Kind: Auth, Message: truncate(msg), Retryable: false, Cause: msg}

	case strings.Contains(lower, "json"),
		strings.Contains(lower, "parse"),
		strings.Contains(lower, "unexpected token"):
		return &Classified{Kind: Parse, Message: truncate(msg), Retryable: false, Cause: msg}
	}

	if status != 0 {
		return classifyStatus(status, errors.New(msg))
	}

	return &Classified{Kind: Unknown, Message: truncate(msg), Retryable: false, Cause: msg}
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen] + "...(truncated)"
}

// ParseHTTPStatus is a small helper adapters use when a provider returns the
// status as a string field in an error body rather than a real status line.
func ParseHTTPStatus(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 100 || n > 599 {
		return 0, false
	}
	return n, true
}
