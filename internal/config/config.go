// Package config loads the process configuration from the environment,
// grounded in core/config.go's LoadFromEnv: explicit per-field os.Getenv
// reads, never reflection or struct-tag magic, with functional options for
// programmatic overrides in tests (mirroring core.Config's three-layer
// precedence of defaults -> env -> options).
package config

import (
	"os"
	"strconv"

	"github.com/gomind-research/procmind/internal/logging"
)

// Capabilities is spec.md §3's process-wide immutable map, computed once at
// startup from environment presence.
type Capabilities struct {
	Search       bool
	Reddit       bool
	Scraping     bool
	DeepResearch bool
	LLMExtraction bool
}

// Config is the full set of environment-derived settings the binary needs.
type Config struct {
	// Capability-gating credentials
	SearchAPIKey    string
	RedditClientID  string
	RedditClientSecret string
	ScraperAPIKey   string
	LLMAPIKey       string

	// Optional overrides, spec.md §6
	ResearchModel      string
	LLMExtractionModel string
	OpenRouterBaseURL  string

	// Ambient-stack additions, SPEC_FULL.md §6
	LogLevel     logging.Level
	LogFormat    logging.Format
	OTelExporter string // none|stdout|otlp
	ToolsFile    string

	Capabilities Capabilities
}

// Option mutates a Config after environment loading, used by tests to
// override specific fields without touching process environment.
type Option func(*Config)

func WithSearchAPIKey(v string) Option    { return func(c *Config) { c.SearchAPIKey = v } }
func WithRedditCredentials(id, secret string) Option {
	return func(c *Config) { c.RedditClientID = id; c.RedditClientSecret = secret }
}
func WithScraperAPIKey(v string) Option { return func(c *Config) { c.ScraperAPIKey = v } }
func WithLLMAPIKey(v string) Option     { return func(c *Config) { c.LLMAPIKey = v } }
func WithToolsFile(v string) Option     { return func(c *Config) { c.ToolsFile = v } }

// LoadFromEnv reads process environment variables and applies opts on top,
// following the same precedence order the teacher uses: defaults, then env,
// then explicit options.
func LoadFromEnv(opts ...Option) *Config {
	c := &Config{
		ResearchModel:      getenvDefault("RESEARCH_MODEL", "gpt-4o-mini"),
		LLMExtractionModel: getenvDefault("LLM_EXTRACTION_MODEL", "gpt-4o-mini"),
		OpenRouterBaseURL:  os.Getenv("OPENROUTER_BASE_URL"),

		SearchAPIKey:       os.Getenv("SEARCH_API_KEY"),
		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		ScraperAPIKey:      os.Getenv("SCRAPER_API_KEY"),
		LLMAPIKey:          os.Getenv("LLM_API_KEY"),

		LogLevel:     logging.ParseLevel(getenvDefault("RESEARCHD_LOG_LEVEL", "info")),
		LogFormat:    logging.ParseFormat(getenvDefault("RESEARCHD_LOG_FORMAT", "json")),
		OTelExporter: getenvDefault("RESEARCHD_OTEL_EXPORTER", "none"),
		ToolsFile:    getenvDefault("RESEARCHD_TOOLS_FILE", "tools.yaml"),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Capabilities = deriveCapabilities(c)
	return c
}

func deriveCapabilities(c *Config) Capabilities {
	redditReady := c.RedditClientID != "" && c.RedditClientSecret != ""
	llmReady := c.LLMAPIKey != ""
	return Capabilities{
		Search:        c.SearchAPIKey != "",
		Reddit:        redditReady,
		Scraping:      c.ScraperAPIKey != "",
		DeepResearch:  llmReady,
		LLMExtraction: llmReady,
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// MissingEnvHint names the environment variable(s) a capability tag gates,
// for the "missing environment variable" message spec.md §4.7/§7 requires
// on a capability-gating failure.
func MissingEnvHint(capability string) string {
	switch capability {
	case "search":
		return "SEARCH_API_KEY"
	case "reddit":
		return "REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET"
	case "scraping":
		return "SCRAPER_API_KEY"
	case "deep_research", "llm_extraction":
		return "LLM_API_KEY"
	default:
		return capability
	}
}

// EnvInt reads an integer environment variable, falling back to def on
// absence or parse failure. Used by adapters for optional numeric tuning
// knobs (concurrency caps, deadlines) that spec.md leaves configurable.
func EnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
