package manifest

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// SchemaError reports schema violations in one manifest
type SchemaError struct {
	Path   string
	Issues []ValidationIssue
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	where := e.Path
	if where == "" {
		where = "manifest"
	}
	return fmt.Sprintf("%s does not match the module schema: %s", where, strings.Join(parts, "; "))
}

// Parse validates data against the schema and decodes it
func Parse(data []byte) (*ModuleManifest, error) {
	return parse(data, "")
}

// ParseFile reads, validates and decodes a manifest file
func ParseFile(path string) (*ModuleManifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data, path)
}

func parse(data []byte, path string) (*ModuleManifest, error) {
	result, err := Validate(data)
	if err != nil {
		if path != "" {
			return nil, fmt.Errorf("validating manifest %s: %w", path, err)
		}
		return nil, err
	}
	if !result.Valid {
		return nil, &SchemaError{Path: path, Issues: result.Issues}
	}

	var m ModuleManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}

// Marshal renders a manifest as YAML
func Marshal(m *ModuleManifest) ([]byte, error) {
	return yaml.Marshal(m)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
