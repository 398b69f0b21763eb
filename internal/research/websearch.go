// websearch.go implements the web-search Tool Handler (C6): validate ->
// invoke the Search adapter -> rank -> format, per spec.md §4.6.
package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/gomind-research/procmind/internal/providers/search"
	"github.com/gomind-research/procmind/internal/tooling"
)

const (
	minSearchKeywords = 1
	maxSearchKeywords = 20
)

// WebSearch runs the web-search tool: bounds-check keywords, call the
// search adapter, rank the aggregated URLs, and format a Markdown body.
func WebSearch(ctx context.Context, client *search.Client, weight WeightFunc, keywords []string) tooling.Result {
	if len(keywords) < minSearchKeywords || len(keywords) > maxSearchKeywords {
		return tooling.Result{IsError: true, Content: fmt.Sprintf("%s Invalid input\n\nkeywords must contain between %d and %d entries (got %d).", ErrorSentinel, minSearchKeywords, maxSearchKeywords, len(keywords))}
	}

	results, classified := client.Search(ctx, keywords)
	if classified != nil {
		return tooling.Result{IsError: true, Content: renderClassifiedError(classified, "search")}
	}

	ranking := Rank(results, weight, DefaultConsensusThreshold)

	var b strings.Builder
	totalResults := 0
	for _, r := range results {
		totalResults += len(r.Results)
	}
	fmt.Fprintf(&b, "# Web Search Results\n\n%d keywords searched, %d total results.\n\n", len(keywords), totalResults)

	fmt.Fprintf(&b, "## Consensus URLs (appeared in >= %d queries)\n\n", DefaultConsensusThreshold)
	if len(ranking.Consensus) == 0 {
		b.WriteString("None.\n\n")
	}
	for _, r := range ranking.Consensus {
		fmt.Fprintf(&b, "- **%s** (%s) — score %.3f, seen in %d quer%s\n", r.Title, r.URL, r.Score, r.QueryCount, plural(r.QueryCount, "y", "ies"))
	}

	b.WriteString("\n## All Results\n\n")
	for _, qr := range results {
		fmt.Fprintf(&b, "### %q (%d results)\n", qr.Query, len(qr.Results))
		for _, r := range qr.Results {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", r.Position+1, r.Title, r.URL)
		}
	}

	return tooling.Result{Content: b.String()}
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
