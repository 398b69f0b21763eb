// deepresearch.go implements the deep-research Tool Handler (C6): allocate
// the token budget across questions, fan out LLM extraction calls under C3,
// aggregate, and format, per spec.md §4.4/§4.6.
package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/gomind-research/procmind/internal/budget"
	"github.com/gomind-research/procmind/internal/fanout"
	"github.com/gomind-research/procmind/internal/providers/llm"
	"github.com/gomind-research/procmind/internal/tooling"
)

const (
	minQuestions             = 1
	maxQuestions             = 10
	deepResearchFanout       = 3
	deepResearchSystemPrompt = "Answer the following research question thoroughly and cite any assumptions:"
)

// DeepResearch runs the deep-research tool over questions, splitting
// totalTokenBudget across them.
func DeepResearch(ctx context.Context, client *llm.Client, questions []string, totalTokenBudget int) tooling.Result {
	if len(questions) < minQuestions || len(questions) > maxQuestions {
		return tooling.Result{IsError: true, Content: fmt.Sprintf("%s Invalid input\n\nquestions must contain between %d and %d entries (got %d).", ErrorSentinel, minQuestions, maxQuestions, len(questions))}
	}

	alloc := budget.Allocate(totalTokenBudget, len(questions))

	results := fanout.RunTraced(ctx, client.Telemetry(), client.Logger(), "deep_research", questions, deepResearchFanout, func(ctx context.Context, q string) *llm.Result {
		return client.Extract(ctx, deepResearchSystemPrompt, q, alloc.PerItem)
	}, func(r any) *llm.Result {
		return &llm.Result{Processed: false, Output: fmt.Sprintf("fanout task panicked: %v", r)}
	})

	successes, failures := 0, 0
	totalTokens := 0
	var b strings.Builder
	fmt.Fprintf(&b, "# Deep Research\n\nToken Allocation: %d tokens/question (budget %d / %d questions)\n\n", alloc.PerItem, totalTokenBudget, len(questions))

	for i, r := range results {
		q := questions[i]
		fmt.Fprintf(&b, "## Q: %s\n\n", q)
		if !r.Processed {
			failures++
			msg := r.Output
			if r.Error != nil {
				msg = r.Error.Message
			}
			fmt.Fprintf(&b, "❌ Not processed: %s\n\n", msg)
			continue
		}
		successes++
		totalTokens += r.TokensUsed
		fmt.Fprintf(&b, "%s\n\n", r.Output)
	}

	fmt.Fprintf(&b, "---\n%d succeeded, %d failed, %d tokens used.\n", successes, failures, totalTokens)

	return tooling.Result{Content: b.String(), IsError: successes == 0 && failures > 0}
}
