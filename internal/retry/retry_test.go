package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomind-research/procmind/internal/procerr"
)

func TestRun_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	v, c := Run(context.Background(), DefaultPolicy(), func(ctx context.Context) (int, error) {
		calls++
		return 7, nil
	})
	require.Nil(t, c)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)
}

func TestRun_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	policy := AggressiveTestPolicy()
	v, c := Run(context.Background(), policy, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", procerr.HTTPStatusError{Status: 503}
		}
		return "ok", nil
	})
	require.Nil(t, c)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestRun_NonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	_, c := Run(context.Background(), DefaultPolicy(), func(ctx context.Context) (int, error) {
		calls++
		return 0, procerr.HTTPStatusError{Status: 401}
	})
	require.NotNil(t, c)
	assert.Equal(t, procerr.Auth, c.Kind)
	assert.Equal(t, 1, calls)
}

func TestRun_ExhaustsAttemptsOnPersistentRetryableFailure(t *testing.T) {
	calls := 0
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2, JitterRatio: 0}
	_, c := Run(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, procerr.HTTPStatusError{Status: 503}
	})
	require.NotNil(t, c)
	assert.Equal(t, procerr.ServiceUnavailable, c.Kind)
	assert.Equal(t, 3, calls)
}

func TestRun_ProviderOverrideRetryablePredicate(t *testing.T) {
	calls := 0
	policy := Policy{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Millisecond,
		Multiplier:  1,
		Retryable: func(c *procerr.Classified) bool {
			return c.HTTPStatus == 510 // scraper-style: only this status retries
		},
	}
	_, c := Run(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, procerr.HTTPStatusError{Status: 502}
	})
	require.NotNil(t, c)
	assert.Equal(t, 1, calls, "502 is not in the override's retryable set, must stop after one attempt")
}

func TestRun_ContextCancellationAbortsSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 50, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second, Multiplier: 1.2, JitterRatio: 0}

	calls := 0
	done := make(chan struct{})
	go func() {
		_, _ = Run(ctx, policy, func(ctx context.Context) (int, error) {
			calls++
			if calls == 1 {
				cancel()
			}
			return 0, errors.New("timeout talking to provider")
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return promptly after context cancellation")
	}
}
