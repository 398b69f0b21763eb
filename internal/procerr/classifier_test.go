package procerr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Nil(t *testing.T) {
	c := Classify(nil)
	require.NotNil(t, c)
	assert.Equal(t, Unknown, c.Kind)
	assert.False(t, c.Retryable)
}

func TestClassify_ContextDeadlineExceeded(t *testing.T) {
	c := Classify(context.DeadlineExceeded)
	assert.Equal(t, Timeout, c.Kind)
	assert.True(t, c.Retryable)
}

func TestClassify_HTTPStatusTable(t *testing.T) {
	cases := []struct {
		status    int
		wantKind  Kind
		retryable bool
	}{
		{400, InvalidInput, false},
		{401, Auth, false},
		{403, QuotaExceeded, false},
		{404, NotFound, false},
		{408, Timeout, true},
		{429, RateLimited, true},
		{500, Internal, true},
		{502, ServiceUnavailable, true},
		{503, ServiceUnavailable, true},
		{504, Timeout, true},
		{510, ServiceUnavailable, true},
		{599, ServiceUnavailable, true},
		{418, Unknown, false},
	}
	for _, tc := range cases {
		c := Classify(HTTPStatusError{Status: tc.status})
		assert.Equal(t, tc.wantKind, c.Kind, "status %d", tc.status)
		assert.Equal(t, tc.retryable, c.Retryable, "status %d", tc.status)
		assert.Equal(t, tc.status, c.HTTPStatus)
	}
}

func TestClassify_MessageHeuristics(t *testing.T) {
	assert.Equal(t, Network, Classify(errors.New("dial tcp: connection refused")).Kind)
	assert.Equal(t, Timeout, Classify(errors.New("context deadline timed out")).Kind)
	assert.Equal(t, Auth, Classify(errors.New("Invalid API Key supplied")).Kind)
	assert.Equal(t, Parse, Classify(errors.New("unexpected token < in JSON")).Kind)
}

func TestClassify_TotalityOnArbitraryValue(t *testing.T) {
	c := Classify(42)
	require.NotNil(t, c)
	assert.Equal(t, Unknown, c.Kind)
}

func TestClassify_NeverPanics(t *testing.T) {
	inputs := []any{nil, "", 0, []int{1, 2}, map[string]int{"a": 1}, errors.New("")}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Classify(in) })
	}
}
