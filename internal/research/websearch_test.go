package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomind-research/procmind/internal/providers/search"
)

func TestWebSearch_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Queries []string `json:"queries"` }
		json.NewDecoder(r.Body).Decode(&req)
		resp := make([]map[string]interface{}, len(req.Queries))
		for i, q := range req.Queries {
			resp[i] = map[string]interface{}{
				"query": q,
				"results": []map[string]string{
					{"title": "r1", "url": "http://r1.com"},
					{"title": "r2", "url": "http://r2.com"},
				},
				"total_results": 2,
			}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := search.New("key", srv.URL, nil)
	result := WebSearch(context.Background(), client, DefaultWeight, []string{"a", "b", "c"})

	require.False(t, result.IsError)
	assert.Contains(t, result.Content, "3 keywords searched, 6 total results")
}

func TestWebSearch_InvalidInputTooFewKeywords(t *testing.T) {
	client := search.New("key", "http://unused", nil)
	result := WebSearch(context.Background(), client, DefaultWeight, nil)
	assert.True(t, result.IsError)
}
