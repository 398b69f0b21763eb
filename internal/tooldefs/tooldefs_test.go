package tooldefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_ParsesEntries(t *testing.T) {
	path := writeTemp(t, `
tools:
  - name: web_search
    capability: search
    description: Search the web
    schema:
      type: object
      properties:
        keywords:
          type: array
`)
	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Tools, 1)
	assert.Equal(t, "web_search", f.Tools[0].Name)
	assert.Equal(t, "search", f.Tools[0].Capability)
}

func TestLoad_IgnoresUnknownKeys(t *testing.T) {
	path := writeTemp(t, `
tools:
  - name: x
    unexpected_field: true
`)
	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "x", f.Tools[0].Name)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoad_EmptyToolsErrors(t *testing.T) {
	path := writeTemp(t, `tools: []`)
	_, err := Load(path)
	assert.Error(t, err)
}
