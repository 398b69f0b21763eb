package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": "summary text"}}},
			"usage":   map[string]int{"total_tokens": 42},
		})
	}))
	defer srv.Close()

	c := New("key", srv.URL, "gpt-4o-mini", nil)
	result := c.Extract(context.Background(), "summarize:", "some content", 500)
	require.Nil(t, result.Error)
	assert.True(t, result.Processed)
	assert.Equal(t, "summary text", result.Output)
	assert.Equal(t, 42, result.TokensUsed)
}

func TestExtract_EmptyResponseIsNonRetryableInternal(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": ""}}},
		})
	}))
	defer srv.Close()

	c := New("key", srv.URL, "gpt-4o-mini", nil)
	result := c.Extract(context.Background(), "summarize:", "original content here", 500)
	require.NotNil(t, result.Error)
	assert.Equal(t, "internal", string(result.Error.Kind))
	assert.False(t, result.Processed)
	assert.Equal(t, "original content here", result.Output)
	assert.Equal(t, 1, calls, "empty output must not be retried")
}

func TestExtract_FinalFailureDegradesGracefullyWithOriginalContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("key", srv.URL, "gpt-4o-mini", nil)
	result := c.Extract(context.Background(), "summarize:", "original", 500)
	require.NotNil(t, result.Error)
	assert.False(t, result.Processed)
	assert.Equal(t, "original", result.Output)
}

func TestExtract_TruncatesOversizedContent(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	c := New("key", srv.URL, "gpt-4o-mini", nil)
	c.contentCharCeiling = 10
	_ = c.Extract(context.Background(), "p:", strings.Repeat("x", 100), 100)
	assert.Contains(t, gotBody, "truncated")
}
