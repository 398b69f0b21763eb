package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormat_EncodesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, FormatJSON, &buf)
	l.Info("hello", Fields{"tool": "web_search"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "web_search", entry["tool"])
	assert.Equal(t, "info", entry["level"])
}

func TestLevelGating_DebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, FormatJSON, &buf)
	l.Debug("should not appear", nil)
	assert.Empty(t, buf.String())
}

func TestWith_AddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, FormatText, &buf).With("reddit")
	l.Warn("token refresh", nil)
	assert.True(t, strings.Contains(buf.String(), "reddit"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("garbage"))
}

func TestNoOp_NeverPanics(t *testing.T) {
	l := NoOp()
	assert.NotPanics(t, func() {
		l.Debug("x", nil)
		l.Info("x", nil)
		l.Warn("x", nil)
		l.Error("x", nil)
		l.With("y").Info("x", nil)
	})
}
