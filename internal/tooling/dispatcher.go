// Package tooling implements the Capability Registry / Dispatcher (C7):
// an in-memory tool table built once at startup, with a single execute
// operation pipelined through lookup, capability gating, schema validation,
// handler invocation, and response shaping, per spec.md §4.7. Grounded in
// core/tool.go's Capability/RegisterCapability vocabulary, adapted from an
// HTTP-endpoint registrar to a stdio tool-name dispatch table.
package tooling

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/gomind-research/procmind/internal/config"
	"github.com/gomind-research/procmind/internal/logging"
	"github.com/gomind-research/procmind/internal/procerr"
	"github.com/gomind-research/procmind/internal/telemetry"
)

// Handler is a dispatchable operation: validated args in, a rendered body
// and its error-state metadata out. Handlers must never panic; Execute
// recovers regardless, but a well-behaved handler returns a value.
type Handler func(ctx context.Context, args map[string]interface{}) Result

// Result is the tool-layer return value: a rendered body plus the
// structured is_error flag spec.md's transport boundary expects.
type Result struct {
	Content string
	IsError bool
}

// Descriptor is spec.md §3's ToolDescriptor: immutable for the process
// lifetime once registered.
type Descriptor struct {
	Name                   string
	Capability             string // "" means no capability gate
	Description            string
	Schema                 *jsonschema.Schema
	Handler                Handler
	ResponseShapeSentinel  string // "" disables sentinel-based shaping
	PostValidate           func(args map[string]interface{}) error
}

// ErrUnknownTool is returned by Execute only for an unrecognized tool name —
// per spec.md §4.7 step 1, the one path that propagates as a protocol-layer
// fault rather than an in-band ToolResult.
type ErrUnknownTool struct{ Name string }

func (e ErrUnknownTool) Error() string { return fmt.Sprintf("unknown tool %q", e.Name) }

// Registry is the in-memory tool table.
type Registry struct {
	descriptors  map[string]*Descriptor
	capabilities config.Capabilities
	logger       logging.Logger
	telemetry    *telemetry.Provider
}

func NewRegistry(caps config.Capabilities, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Registry{descriptors: make(map[string]*Descriptor), capabilities: caps, logger: logger}
}

// WithTelemetry wires a Provider into the registry so every Execute call is
// wrapped in a span and contributes to the tool_calls_total metric; it
// returns the receiver for chaining off NewRegistry, matching the
// functional-options style used elsewhere in this repo (see DESIGN.md).
// Passing nil disables both, same as never calling it.
func (r *Registry) WithTelemetry(t *telemetry.Provider) *Registry {
	r.telemetry = t
	return r
}

// Register adds a descriptor to the table. Call only at startup, before any
// Execute call — the table is not safe to mutate concurrently with reads.
func (r *Registry) Register(d *Descriptor) {
	r.descriptors[d.Name] = d
}

// List returns the descriptors in the table, for the transport's
// "tools/list" request.
func (r *Registry) List() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	return out
}

func (r *Registry) capabilityEnabled(tag string) bool {
	switch tag {
	case "":
		return true
	case "search":
		return r.capabilities.Search
	case "reddit":
		return r.capabilities.Reddit
	case "scraping":
		return r.capabilities.Scraping
	case "deep_research":
		return r.capabilities.DeepResearch
	case "llm_extraction":
		return r.capabilities.LLMExtraction
	default:
		return false
	}
}

// Execute runs the full dispatch pipeline for (tool_name, args). It never
// panics (P3): any panic inside a handler is recovered and rendered as an
// is_error Result. The only error return is ErrUnknownTool.
//
// Every call is assigned a fresh request ID (uuid.NewString()) that
// correlates this call's log lines and, when telemetry is wired, is set as
// the request_id attribute of its span. The ID is not passed to the
// handler; fan-out jobs started by a handler carry their own job IDs.
func (r *Registry) Execute(ctx context.Context, toolName string, args map[string]interface{}) (result Result, err error) {
	requestID := uuid.NewString()
	log := r.logger.With("dispatcher")

	d, ok := r.descriptors[toolName]
	if !ok {
		return Result{}, ErrUnknownTool{Name: toolName}
	}

	if r.telemetry != nil {
		var span telemetry.Span
		ctx, span = r.telemetry.StartSpan(ctx, "tool.execute:"+toolName)
		span.SetAttribute("request_id", requestID)
		span.SetAttribute("tool", toolName)
		defer span.End()
	}
	log.Debug("tool call starting", logging.Fields{"request_id": requestID, "tool": toolName})

	if !r.capabilityEnabled(d.Capability) {
		return r.finish(ctx, toolName, requestID, Result{
			IsError: true,
			Content: fmt.Sprintf("# ❌ Missing environment variable\n\nThis tool requires %s to be set.", config.MissingEnvHint(d.Capability)),
		}), nil
	}

	if d.Schema != nil {
		if valErr := d.Schema.Validate(toInstance(args)); valErr != nil {
			issues := FormatValidationIssues(valErr)
			return r.finish(ctx, toolName, requestID, Result{IsError: true, Content: renderValidationIssues(issues)}), nil
		}
	}

	if d.PostValidate != nil {
		if postErr := d.PostValidate(args); postErr != nil {
			return r.finish(ctx, toolName, requestID, Result{IsError: true, Content: fmt.Sprintf("# ❌ Invalid input\n\n%s", postErr.Error())}), nil
		}
	}

	result = r.invoke(ctx, d, args, requestID)

	if d.ResponseShapeSentinel != "" && containsSentinel(result.Content, d.ResponseShapeSentinel) {
		result.IsError = true
	}
	return r.finish(ctx, toolName, requestID, result), nil
}

// finish records the tool_calls_total metric (when telemetry is wired) and
// logs completion, tagged with the same request_id Execute started with.
func (r *Registry) finish(ctx context.Context, toolName, requestID string, result Result) Result {
	outcome := "ok"
	if result.IsError {
		outcome = "error"
	}
	if r.telemetry != nil {
		r.telemetry.RecordMetric(ctx, "tool_calls_total", 1, map[string]string{"tool": toolName, "outcome": outcome})
	}
	r.logger.With("dispatcher").Debug("tool call completed", logging.Fields{"request_id": requestID, "tool": toolName, "outcome": outcome})
	return result
}

func (r *Registry) invoke(ctx context.Context, d *Descriptor, args map[string]interface{}, requestID string) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			classified := procerr.Classify(fmt.Errorf("tool %q panicked: %v", d.Name, rec))
			r.logger.Error("tool handler panicked", logging.Fields{"request_id": requestID, "tool": d.Name, "panic": rec})
			result = Result{IsError: true, Content: renderError(classified)}
		}
	}()
	return d.Handler(ctx, args)
}

func toInstance(args map[string]interface{}) interface{} {
	// jsonschema/v6 validates against plain Go values (map[string]any,
	// []any, string, float64, bool, nil) — args is already in that shape.
	return args
}

func renderValidationIssues(issues []string) string {
	out := "# ❌ Invalid arguments\n\n"
	for _, issue := range issues {
		out += issue + "\n"
	}
	return out
}

func renderError(c *procerr.Classified) string {
	out := fmt.Sprintf("# ❌ %s\n\n%s", c.Kind, c.Message)
	if c.Retryable {
		out += "\n\nThis error may be temporary."
	}
	return out
}

func containsSentinel(body, sentinel string) bool {
	return sentinel != "" && strings.Contains(body, sentinel)
}
