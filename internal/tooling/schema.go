// schema.go compiles each ToolDescriptor's declarative parameter schema
// (spec.md §3: scalar/array/nested-object types with min/max length,
// numeric bounds, integer/positive, array bounds, regex pattern, format
// hints) into a real validator using
// github.com/santhosh-tekuri/jsonschema/v6, grounded in
// goadesign-goa-ai/registry/service.go's jsonschema.NewCompiler() usage,
// instead of hand-rolled field walking.
package tooling

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// CompileSchema turns a declarative schema document (decoded from the
// tool file's YAML, already shaped as a JSON-Schema-like map) into a
// compiled validator. An unknown parameter "type" value is a startup-time
// fatal error, per spec.md §6.
func CompileSchema(toolName string, doc map[string]interface{}) (*jsonschema.Schema, error) {
	if err := validateConstraintKinds(doc); err != nil {
		return nil, fmt.Errorf("tool %q: %w", toolName, err)
	}

	resourceID := "procmind://tools/" + toolName + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceID, doc); err != nil {
		return nil, fmt.Errorf("tool %q: registering schema: %w", toolName, err)
	}
	schema, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, fmt.Errorf("tool %q: compiling schema: %w", toolName, err)
	}
	return schema, nil
}

// allowedTypes is the closed set of constraint kinds spec.md §3 enumerates;
// anything else in a "type" field is rejected rather than silently allowed,
// per spec.md §9's "keep the schema-to-validator mapping closed over a
// finite set" design note.
var allowedTypes = map[string]bool{
	"string": true, "number": true, "integer": true, "boolean": true,
	"array": true, "object": true,
}

func validateConstraintKinds(doc map[string]interface{}) error {
	t, ok := doc["type"]
	if ok {
		ts, isStr := t.(string)
		if !isStr || !allowedTypes[ts] {
			return fmt.Errorf("unknown parameter type %v", t)
		}
	}
	if props, ok := doc["properties"].(map[string]interface{}); ok {
		for name, raw := range props {
			sub, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if err := validateConstraintKinds(sub); err != nil {
				return fmt.Errorf("property %q: %w", name, err)
			}
		}
	}
	if items, ok := doc["items"].(map[string]interface{}); ok {
		if err := validateConstraintKinds(items); err != nil {
			return fmt.Errorf("items: %w", err)
		}
	}
	return nil
}

// FormatValidationIssues renders a jsonschema validation error as lines of
// text, per spec.md §4.7 step 3. jsonschema/v6's ValidationError already
// produces a multi-line, indented cause tree via Error(); this keeps every
// non-empty line of that output, trimmed of indentation (the header line
// and each node of the tree, not only the leaves), rather than depending on
// unexported tree internals.
func FormatValidationIssues(err error) []string {
	if err == nil {
		return nil
	}
	lines := strings.Split(err.Error(), "\n")
	issues := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		issues = append(issues, trimmed)
	}
	if len(issues) == 0 {
		issues = append(issues, err.Error())
	}
	return issues
}
