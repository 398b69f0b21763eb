// scrape.go implements the scrape Tool Handler (C6): run the three-mode
// ladder for each URL under C3, aggregate, and format, per spec.md §4.6.
package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/gomind-research/procmind/internal/procerr"
	"github.com/gomind-research/procmind/internal/providers/scraper"
	"github.com/gomind-research/procmind/internal/tooling"
)

const maxScrapeURLs = 100

// ScrapeURLs runs the scrape tool over urls.
func ScrapeURLs(ctx context.Context, client *scraper.Client, urls []string, geo string) tooling.Result {
	if len(urls) < 1 || len(urls) > maxScrapeURLs {
		return tooling.Result{IsError: true, Content: fmt.Sprintf("%s Invalid input\n\nurls must contain between 1 and %d entries (got %d).", ErrorSentinel, maxScrapeURLs, len(urls))}
	}

	results := client.ScrapeBatch(ctx, urls, geo)

	successes, failures := 0, 0
	var b strings.Builder
	fmt.Fprintf(&b, "# Scrape Results\n\n")

	for i, r := range results {
		url := urls[i]
		if r.Error != nil {
			failures++
			msg := r.Error.Message
			if r.Error.Kind == procerr.Auth || r.Error.Kind == procerr.QuotaExceeded {
				msg += "\n\nThis looks like a missing environment variable: check SCRAPER_API_KEY."
			}
			fmt.Fprintf(&b, "❌ Failed: %s\n\n%s (mode: %s)\n\n", url, msg, r.Mode)
			continue
		}
		successes++
		fmt.Fprintf(&b, "## %s\n\nMode: %s · %d chars scraped\n\n", url, r.Mode, len(r.Content))
	}

	fmt.Fprintf(&b, "---\n%d succeeded, %d failed.\n", successes, failures)

	return tooling.Result{Content: b.String(), IsError: successes == 0 && failures > 0}
}
