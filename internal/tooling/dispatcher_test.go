package tooling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomind-research/procmind/internal/config"
)

func TestExecute_UnknownToolIsProtocolFault(t *testing.T) {
	r := NewRegistry(config.Capabilities{}, nil)
	_, err := r.Execute(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.IsType(t, ErrUnknownTool{}, err)
}

func TestExecute_CapabilityGating(t *testing.T) {
	r := NewRegistry(config.Capabilities{Search: false}, nil)
	r.Register(&Descriptor{
		Name:       "web_search",
		Capability: "search",
		Handler:    func(ctx context.Context, args map[string]interface{}) Result { return Result{Content: "never reached"} },
	})
	result, err := r.Execute(context.Background(), "web_search", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "SEARCH_API_KEY")
}

func TestExecute_CapabilityGatingNeverInvokesHandler(t *testing.T) {
	invoked := false
	r := NewRegistry(config.Capabilities{Search: false}, nil)
	r.Register(&Descriptor{
		Name:       "web_search",
		Capability: "search",
		Handler: func(ctx context.Context, args map[string]interface{}) Result {
			invoked = true
			return Result{}
		},
	})
	_, _ = r.Execute(context.Background(), "web_search", nil)
	assert.False(t, invoked)
}

func TestExecute_SchemaValidationFailure(t *testing.T) {
	schema, err := CompileSchema("echo", map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"keywords"},
		"properties": map[string]interface{}{
			"keywords": map[string]interface{}{"type": "array"},
		},
	})
	require.NoError(t, err)

	r := NewRegistry(config.Capabilities{}, nil)
	r.Register(&Descriptor{
		Name:    "echo",
		Schema:  schema,
		Handler: func(ctx context.Context, args map[string]interface{}) Result { return Result{Content: "ok"} },
	})

	result, err := r.Execute(context.Background(), "echo", map[string]interface{}{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "keywords")
}

func TestExecute_HandlerPanicNeverEscapes(t *testing.T) {
	r := NewRegistry(config.Capabilities{}, nil)
	r.Register(&Descriptor{
		Name: "boom",
		Handler: func(ctx context.Context, args map[string]interface{}) Result {
			panic("kaboom")
		},
	})
	var result Result
	var execErr error
	assert.NotPanics(t, func() {
		result, execErr = r.Execute(context.Background(), "boom", nil)
	})
	require.NoError(t, execErr)
	assert.True(t, result.IsError)
}

func TestExecute_ResponseShapeSentinel(t *testing.T) {
	r := NewRegistry(config.Capabilities{}, nil)
	r.Register(&Descriptor{
		Name:                  "flaky",
		ResponseShapeSentinel: "# ❌",
		Handler: func(ctx context.Context, args map[string]interface{}) Result {
			return Result{Content: "# ❌ something failed"}
		},
	})
	result, err := r.Execute(context.Background(), "flaky", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestExecute_UnknownParameterTypeIsStartupFatal(t *testing.T) {
	_, err := CompileSchema("bad", map[string]interface{}{"type": "weird-type"})
	require.Error(t, err)
}
