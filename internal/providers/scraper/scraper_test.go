package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrape_SucceedsOnFirstRung(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := New("key", srv.URL, nil)
	result := c.Scrape(context.Background(), "http://example.com", "")
	require.Nil(t, result.Error)
	assert.Equal(t, ModeBasic, result.Mode)
}

func TestScrape_AdvancesLadderOnNonPermanentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mode") == string(ModeBasic) {
			// 502 on every basic-mode attempt: retried within the rung,
			// then non-permanent, so the ladder advances.
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("rendered"))
	}))
	defer srv.Close()

	c := New("key", srv.URL, nil)
	result := c.Scrape(context.Background(), "http://example.com", "")
	require.Nil(t, result.Error)
	assert.Equal(t, ModeJavaScript, result.Mode)
}

func TestScrape_PermanentFailureSkipsRemainingLadder(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("key", srv.URL, nil)
	result := c.Scrape(context.Background(), "http://example.com", "")
	require.NotNil(t, result.Error)
	assert.Equal(t, "auth", string(result.Error.Kind))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "must not attempt further ladder rungs after a permanent failure")
}

func TestScrape_404IsTerminalNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New("key", srv.URL, nil)
	result := c.Scrape(context.Background(), "http://example.com", "")
	require.NotNil(t, result.Error)
	assert.Equal(t, "not_found", string(result.Error.Kind))
	assert.Equal(t, ModeBasic, result.Mode)
}

func TestScrapeBatch_OrderedAndBoundedConcurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New("key", srv.URL, nil)
	urls := make([]string, 10)
	for i := range urls {
		urls[i] = "http://example.com/x"
	}
	results := c.ScrapeBatch(context.Background(), urls, "")
	require.Len(t, results, 10)
	for _, r := range results {
		assert.Nil(t, r.Error)
	}
}
