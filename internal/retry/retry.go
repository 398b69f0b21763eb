// Package retry implements the Retry Engine (C2): one async attempt run
// under a per-call policy with classification-driven stop, exponential
// backoff, and jitter, grounded in resilience/retry.go's Retry(ctx, cfg, fn)
// shape but rebuilt on top of github.com/cenkalti/backoff/v5 instead of a
// hand-rolled delay loop.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/gomind-research/procmind/internal/procerr"
)

// Policy is spec.md §3's RetryPolicy: { max_attempts, base_delay, max_delay,
// multiplier, jitter_ratio, retryable_predicate }.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	JitterRatio float64

	// Retryable overrides the classifier's default retryability verdict.
	// Nil means "use Classified.Retryable as-is". Scraper and Search pass a
	// non-nil override here to express their provider-specific status sets.
	Retryable func(*procerr.Classified) bool
}

func (p Policy) isRetryable(c *procerr.Classified) bool {
	if p.Retryable != nil {
		return p.Retryable(c)
	}
	return c.Retryable
}

// DefaultPolicy mirrors resilience/retry.go's DefaultRetryConfig.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
		JitterRatio: 0.2,
	}
}

// AggressiveTestPolicy is the test-only driver referenced in spec.md §9's
// Open Questions: a 20-attempt policy with tiny delays, used only by tests
// that want to force many retries quickly. It must never be the production
// default for any adapter.
func AggressiveTestPolicy() Policy {
	return Policy{
		MaxAttempts: 20,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		Multiplier:  1.5,
		JitterRatio: 0.1,
	}
}

// specBackOff computes delay(i) = min(max_delay, base*multiplier^i) +
// uniform[0, jitter_ratio*that] per spec.md §3, implementing
// backoff.BackOff so it can drive backoff/v5's retry loop directly.
type specBackOff struct {
	policy  Policy
	attempt int
}

func (b *specBackOff) NextBackOff() time.Duration {
	delay := float64(b.policy.BaseDelay)
	for i := 0; i < b.attempt; i++ {
		delay *= b.policy.Multiplier
	}
	if max := float64(b.policy.MaxDelay); b.policy.MaxDelay > 0 && delay > max {
		delay = max
	}
	if b.policy.JitterRatio > 0 {
		delay += rand.Float64() * b.policy.JitterRatio * delay
	}
	b.attempt++
	return time.Duration(delay)
}

func (b *specBackOff) Reset() {
	b.attempt = 0
}

// Run executes op under policy, retrying on classified-retryable failures
// for at most MaxAttempts attempts in total. It returns either the successful value with a nil
// Classified, or the zero value with the last Classified failure. Sleeps
// between attempts are cancellable: ctx cancellation aborts the wait and
// Run returns promptly with the last classified error.
func Run[R any](ctx context.Context, policy Policy, op func(context.Context) (R, error)) (R, *procerr.Classified) {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	bo := &specBackOff{policy: policy}

	var lastClassified *procerr.Classified
	attempted := 0

	wrapped := func() (R, error) {
		attempted++
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		c := procerr.Classify(err)
		lastClassified = c
		if !policy.isRetryable(c) {
			return v, backoff.Permanent(c)
		}
		return v, c
	}

	result, err := backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(attempts)),
	)
	if err == nil {
		return result, nil
	}
	if lastClassified == nil {
		lastClassified = procerr.Classify(err)
	}
	return result, lastClassified
}
