// Package schema holds the feature-column registry the trained model expects.
//
// The registry is loaded once at process start and is read-only afterwards,
// so it can be shared across concurrent requests without coordination.
package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// artifactSchema validates the registry artifact before it is trusted.
// The sanitize block travels with the columns because both were produced by
// the same training run; serving must never guess the rule.
const artifactSchema = `{
	"type": "object",
	"required": ["version", "feature_columns", "sanitize"],
	"properties": {
		"version": {"type": "integer", "minimum": 1},
		"feature_columns": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string", "minLength": 1}
		},
		"sanitize": {
			"type": "object",
			"required": ["characters", "replacement"],
			"properties": {
				"characters": {"type": "string"},
				"replacement": {"type": "string", "minLength": 1}
			}
		}
	}
}`

// SanitizeRule rewrites column-name characters the model serialization
// format cannot accept. Characters lists the offending characters; each one
// is replaced by Replacement.
type SanitizeRule struct {
	Characters  string `json:"characters"`
	Replacement string `json:"replacement"`
}

// artifact mirrors the on-disk registry document.
type artifact struct {
	Version        int          `json:"version"`
	FeatureColumns []string     `json:"feature_columns"`
	Sanitize       SanitizeRule `json:"sanitize"`
}

// Registry is the ordered list of feature columns the model was trained on,
// including one-hot-expanded categorical columns. Column names are stored
// already sanitized.
type Registry struct {
	columns  []string
	index    map[string]int
	rule     SanitizeRule
	replacer *strings.Replacer
	version  int
}

// Load reads, validates and builds a Registry from a JSON artifact.
func Load(ctx context.Context, path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoadArtifact, path, err)
	}
	return Parse(ctx, raw)
}

// Parse builds a Registry from raw artifact bytes.
func Parse(_ context.Context, raw []byte) (*Registry, error) {
	if err := validateArtifact(raw); err != nil {
		return nil, err
	}

	var doc artifact
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}

	return New(doc.Version, doc.FeatureColumns, doc.Sanitize)
}

// New builds a Registry from already-parsed parts. Columns are sanitized
// with the given rule; a duplicate after sanitization means the artifact is
// internally inconsistent and the process must not serve with it.
func New(version int, columns []string, rule SanitizeRule) (*Registry, error) {
	if len(columns) == 0 {
		return nil, ErrEmptyRegistry
	}

	r := &Registry{
		columns:  make([]string, 0, len(columns)),
		index:    make(map[string]int, len(columns)),
		rule:     rule,
		replacer: rule.newReplacer(),
		version:  version,
	}

	for _, col := range columns {
		clean := r.Sanitize(col)
		if _, dup := r.index[clean]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, clean)
		}
		r.index[clean] = len(r.columns)
		r.columns = append(r.columns, clean)
	}

	return r, nil
}

// validateArtifact checks the raw document against the embedded JSON Schema.
func validateArtifact(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("columns.json", strings.NewReader(artifactSchema)); err != nil {
		return fmt.Errorf("%w: add schema: %w", ErrInvalidArtifact, err)
	}
	compiled, err := compiler.Compile("columns.json")
	if err != nil {
		return fmt.Errorf("%w: compile schema: %w", ErrInvalidArtifact, err)
	}

	var v any
	if err := json.Unmarshal(bytes.TrimSpace(raw), &v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	return nil
}

func (r SanitizeRule) newReplacer() *strings.Replacer {
	pairs := make([]string, 0, len(r.Characters)*2)
	for _, c := range r.Characters {
		pairs = append(pairs, string(c), r.Replacement)
	}
	return strings.NewReplacer(pairs...)
}

// Sanitize rewrites the characters the rule names to its replacement.
// Applied identically to registry columns at load time and to live column
// names at alignment time; applying it on one side only silently misaligns
// the vector.
func (r *Registry) Sanitize(name string) string {
	if !strings.ContainsAny(name, r.rule.Characters) {
		return name
	}
	return r.replacer.Replace(name)
}

// Columns returns the ordered feature columns. Callers must not mutate the
// returned slice.
func (r *Registry) Columns() []string {
	return r.columns
}

// Index returns the position of a sanitized column name.
func (r *Registry) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Len returns the number of feature columns.
func (r *Registry) Len() int {
	return len(r.columns)
}

// Version returns the artifact version the registry was built from.
func (r *Registry) Version() int {
	return r.version
}

// Rule returns the sanitization rule the registry was built with.
func (r *Registry) Rule() SanitizeRule {
	return r.rule
}
