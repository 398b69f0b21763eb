// reddit.go implements the Reddit-research Tool Handler (C6): allocate the
// comment budget across posts, fan out under C3, aggregate, and format,
// per spec.md §4.4/§4.6.
package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/gomind-research/procmind/internal/budget"
	"github.com/gomind-research/procmind/internal/fanout"
	"github.com/gomind-research/procmind/internal/procerr"
	"github.com/gomind-research/procmind/internal/providers/reddit"
	"github.com/gomind-research/procmind/internal/tooling"
)

const (
	minRedditPosts        = 2
	maxRedditPosts         = 50
	redditCommentCeiling   = 500
	redditFanoutConcurrency = 10
)

type redditOutcome struct {
	url    string
	result *reddit.Result
	err    *procerr.Classified
}

// RedditResearch runs the Reddit-research tool over postURLs with
// totalCommentBudget comments split across them, per spec.md §4.4's capped
// comment-allocation variant.
func RedditResearch(ctx context.Context, client *reddit.Client, postURLs []string, totalCommentBudget int) tooling.Result {
	if len(postURLs) < minRedditPosts || len(postURLs) > maxRedditPosts {
		return tooling.Result{IsError: true, Content: fmt.Sprintf("%s Invalid input\n\nurls must contain between %d and %d entries (got %d).", ErrorSentinel, minRedditPosts, maxRedditPosts, len(postURLs))}
	}

	alloc := budget.AllocateCapped(totalCommentBudget, len(postURLs), redditCommentCeiling)

	outcomes := fanout.RunTraced(ctx, client.Telemetry(), client.Logger(), "reddit_research", postURLs, redditFanoutConcurrency, func(ctx context.Context, url string) redditOutcome {
		result, classified := client.FetchPost(ctx, url, alloc.PerItemCapped)
		return redditOutcome{url: url, result: result, err: classified}
	}, func(r any) redditOutcome {
		return redditOutcome{err: procerr.Classify(fmt.Errorf("reddit fetch panicked: %v", r))}
	})

	successes, failures := 0, 0
	var b strings.Builder
	fmt.Fprintf(&b, "# Reddit Research\n\n")
	fmt.Fprintf(&b, "Comment Allocation: %d comments/post (budget %d / %d posts, uncapped %d)\n\n",
		alloc.PerItemCapped, totalCommentBudget, len(postURLs), alloc.PerItemUncapped)

	for _, o := range outcomes {
		if o.err != nil {
			failures++
			fmt.Fprintf(&b, "❌ Failed: %s\n\n%s\n\n", o.url, o.err.Message)
			continue
		}
		successes++
		fmt.Fprintf(&b, "## %s\n\n", o.result.Post.Title)
		fmt.Fprintf(&b, "Score: %d · Comments fetched: %d\n\n", o.result.Post.Score, len(o.result.Comments))
		for _, c := range o.result.Comments {
			fmt.Fprintf(&b, "%s- **%s** (score %d): %s\n", strings.Repeat("  ", c.Depth), c.Author, c.Score, c.Body)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\n%d posts succeeded, %d failed.\n", successes, failures)

	return tooling.Result{Content: b.String(), IsError: successes == 0 && failures > 0}
}
