// Package tooldefs loads the declarative tool-definition file (spec.md §6's
// external collaborator) with gopkg.in/yaml.v3, the teacher's own YAML
// dependency. Unknown YAML keys are ignored by yaml.v3's default unmarshal
// behavior; unknown parameter types inside a schema are caught later by
// internal/tooling.CompileSchema as a startup-fatal error.
package tooldefs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry is one tool-file record: { name, capability, description, schema }.
type Entry struct {
	Name        string                 `yaml:"name"`
	Capability  string                 `yaml:"capability"`
	Description string                 `yaml:"description"`
	Schema      map[string]interface{} `yaml:"schema"`
}

// File is the top-level shape of tools.yaml.
type File struct {
	Tools []Entry `yaml:"tools"`
}

// Load reads and parses path. A missing or malformed file is a startup
// error — the binary cannot run without its tool table.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tool file %q: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tool file %q: %w", path, err)
	}
	if len(f.Tools) == 0 {
		return nil, fmt.Errorf("tool file %q declares no tools", path)
	}
	return &f, nil
}
