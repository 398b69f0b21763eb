package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadFromEnv_CapabilitiesDeriveFromKeys(t *testing.T) {
	c := LoadFromEnv(
		WithSearchAPIKey("sk-search"),
		WithRedditCredentials("id", "secret"),
	)
	assert.True(t, c.Capabilities.Search)
	assert.True(t, c.Capabilities.Reddit)
	assert.False(t, c.Capabilities.Scraping)
	assert.False(t, c.Capabilities.DeepResearch)
}

func TestLoadFromEnv_RedditRequiresBothCredentials(t *testing.T) {
	c := LoadFromEnv(WithRedditCredentials("id", ""))
	assert.False(t, c.Capabilities.Reddit)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	c := LoadFromEnv()
	assert.Equal(t, "tools.yaml", c.ToolsFile)
	assert.Equal(t, "gpt-4o-mini", c.ResearchModel)
}

func TestMissingEnvHint(t *testing.T) {
	assert.Equal(t, "SEARCH_API_KEY", MissingEnvHint("search"))
	assert.Contains(t, MissingEnvHint("reddit"), "REDDIT_CLIENT_ID")
}
