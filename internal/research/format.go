// format.go holds the shared Markdown-rendering helpers every handler in
// this package uses, per spec.md §4.6 step 6 and §7's user-visible failure
// behavior ("error kind, a short message, and, when retryable, the hint
// 'this error may be temporary'; Auth/quota errors point to the specific
// missing environment variable").
package research

import (
	"fmt"
	"strings"

	"github.com/gomind-research/procmind/internal/config"
	"github.com/gomind-research/procmind/internal/procerr"
)

// ErrorSentinel is the fixed substring cmd/researchd registers as the
// response-shape sentinel of every tool, per spec.md §9's design note: emit the
// sentinel only at the formatting step, keep the dispatcher independent of
// it.
const ErrorSentinel = "# ❌"

func renderClassifiedError(c *procerr.Classified, capability string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n%s\n", ErrorSentinel, c.Kind, c.Message)
	if c.Retryable {
		b.WriteString("\nThis error may be temporary.\n")
	}
	if (c.Kind == procerr.Auth || c.Kind == procerr.QuotaExceeded) && capability != "" {
		fmt.Fprintf(&b, "\nSet %s to resolve this — missing environment variable.\n", config.MissingEnvHint(capability))
	}
	return b.String()
}

// fallbackError renders a final-fallback body for an unclassified failure
// that reached the handler boundary, per spec.md §4.6's closing sentence.
func fallbackError(err error) string {
	c := procerr.Classify(err)
	return renderClassifiedError(c, "")
}
