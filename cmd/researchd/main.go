// Command researchd is PROC's binary entrypoint: it loads configuration,
// wires the four provider adapters and the tool registry, loads the
// declarative tool file, and runs the stdio transport under the process
// supervisor. Grounded in examples/basic-agent/main.go's overall
// load-config -> build -> serve -> graceful-shutdown shape.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gomind-research/procmind/internal/config"
	"github.com/gomind-research/procmind/internal/logging"
	"github.com/gomind-research/procmind/internal/providers/llm"
	"github.com/gomind-research/procmind/internal/providers/reddit"
	"github.com/gomind-research/procmind/internal/providers/scraper"
	"github.com/gomind-research/procmind/internal/providers/search"
	"github.com/gomind-research/procmind/internal/research"
	"github.com/gomind-research/procmind/internal/stdiorpc"
	"github.com/gomind-research/procmind/internal/supervisor"
	"github.com/gomind-research/procmind/internal/telemetry"
	"github.com/gomind-research/procmind/internal/tooldefs"
	"github.com/gomind-research/procmind/internal/tooling"
)

func main() {
	cfg := config.LoadFromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	telProvider, err := telemetry.New(context.Background(), "researchd", cfg.OTelExporter, os.Getenv("RESEARCHD_OTEL_ENDPOINT"))
	if err != nil {
		logger.Error("failed to initialize telemetry", logging.Fields{"error": err.Error()})
		os.Exit(1)
	}

	registry, schemas, err := buildRegistry(cfg, logger, telProvider)
	if err != nil {
		logger.Error("failed to build tool registry", logging.Fields{"error": err.Error()})
		os.Exit(1)
	}

	transport := stdiorpc.NewServer(registry, schemas, os.Stdin, os.Stdout)

	sup := supervisor.New(logger, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telProvider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown error", logging.Fields{"error": err.Error()})
		}
	}, os.Exit)
	defer sup.Recover()
	sup.Watch()

	logger.Info("researchd starting", logging.Fields{
		"search":         cfg.Capabilities.Search,
		"reddit":         cfg.Capabilities.Reddit,
		"scraping":       cfg.Capabilities.Scraping,
		"deep_research":  cfg.Capabilities.DeepResearch,
		"llm_extraction": cfg.Capabilities.LLMExtraction,
	})

	if err := transport.Run(sup.Context()); err != nil {
		logger.Error("transport terminated with error", logging.Fields{"error": err.Error()})
		sup.GracefulShutdown(1)
		return
	}
	sup.GracefulShutdown(0)
}

// buildRegistry loads the declarative tool file, constructs the four
// provider adapters, and registers a Descriptor per tool entry, compiling
// each entry's schema per spec.md §6 (unknown parameter type is
// startup-fatal).
func buildRegistry(cfg *config.Config, logger logging.Logger, telProvider *telemetry.Provider) (*tooling.Registry, map[string]interface{}, error) {
	file, err := tooldefs.Load(cfg.ToolsFile)
	if err != nil {
		return nil, nil, err
	}

	searchClient := search.FromConfig(cfg, logger).WithTelemetry(telProvider)
	redditClient := reddit.New(cfg.RedditClientID, cfg.RedditClientSecret, "", "", logger).WithTelemetry(telProvider)
	scraperClient := scraper.New(cfg.ScraperAPIKey, "", logger).WithTelemetry(telProvider)
	llmClient := llm.New(cfg.LLMAPIKey, cfg.OpenRouterBaseURL, cfg.LLMExtractionModel, logger).WithTelemetry(telProvider)

	registry := tooling.NewRegistry(cfg.Capabilities, logger).WithTelemetry(telProvider)
	schemas := make(map[string]interface{}, len(file.Tools))

	for _, entry := range file.Tools {
		schema, err := tooling.CompileSchema(entry.Name, entry.Schema)
		if err != nil {
			return nil, nil, fmt.Errorf("loading tool %q: %w", entry.Name, err)
		}
		schemas[entry.Name] = entry.Schema

		handler, err := buildHandler(entry.Name, searchClient, redditClient, scraperClient, llmClient)
		if err != nil {
			return nil, nil, err
		}

		registry.Register(&tooling.Descriptor{
			Name:                  entry.Name,
			Capability:            entry.Capability,
			Description:           entry.Description,
			Schema:                schema,
			Handler:               handler,
			ResponseShapeSentinel: research.ErrorSentinel,
		})
	}
	return registry, schemas, nil
}

func buildHandler(name string, searchClient *search.Client, redditClient *reddit.Client, scraperClient *scraper.Client, llmClient *llm.Client) (tooling.Handler, error) {
	switch name {
	case "web_search":
		return func(ctx context.Context, args map[string]interface{}) tooling.Result {
			return research.WebSearch(ctx, searchClient, research.DefaultWeight, stringSlice(args["keywords"]))
		}, nil
	case "reddit_research":
		return func(ctx context.Context, args map[string]interface{}) tooling.Result {
			return research.RedditResearch(ctx, redditClient, stringSlice(args["post_urls"]), intArg(args["comment_budget"]))
		}, nil
	case "scrape_urls":
		return func(ctx context.Context, args map[string]interface{}) tooling.Result {
			geo, _ := args["geo"].(string)
			return research.ScrapeURLs(ctx, scraperClient, stringSlice(args["urls"]), geo)
		}, nil
	case "deep_research":
		return func(ctx context.Context, args map[string]interface{}) tooling.Result {
			return research.DeepResearch(ctx, llmClient, stringSlice(args["questions"]), intArg(args["token_budget"]))
		}, nil
	default:
		return nil, fmt.Errorf("tool %q has no registered handler", name)
	}
}

// stringSlice converts a []interface{} parameter decoded from JSON into
// []string, skipping non-string entries rather than panicking — Execute's
// schema validation already guarantees the shape by the time handlers run.
func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// intArg converts a JSON-decoded numeric parameter (always float64 via
// encoding/json) into an int.
func intArg(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
