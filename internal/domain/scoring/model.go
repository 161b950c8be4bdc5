package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/okian/leadscore/internal/domain/schema"
)

// modelSchema validates the model artifact before any coefficient is used.
const modelSchema = `{
	"type": "object",
	"required": ["version", "type", "intercept", "coefficients"],
	"properties": {
		"version": {"type": "integer", "minimum": 1},
		"type": {"const": "logistic_regression"},
		"intercept": {"type": "number"},
		"coefficients": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {"type": "number"}
		}
	}
}`

// modelArtifact mirrors the on-disk model document. Coefficients are keyed
// by column name; the registry dictates their serving order.
type modelArtifact struct {
	Version      int                `json:"version"`
	Type         string             `json:"type"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// LoadModel reads, validates and orders a model artifact against the
// registry. Any disagreement between the two artifacts is a startup
// configuration error; serving with a partial model is never acceptable.
func LoadModel(ctx context.Context, path string, registry *schema.Registry) (*LogisticModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoadArtifact, path, err)
	}
	return ParseModel(ctx, raw, registry)
}

// ParseModel builds a LogisticModel from raw artifact bytes.
func ParseModel(_ context.Context, raw []byte, registry *schema.Registry) (*LogisticModel, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, ErrEmptyModel
	}
	if err := validateModelArtifact(raw); err != nil {
		return nil, err
	}

	var doc modelArtifact
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}

	// Coefficient keys go through the registry's sanitization rule so both
	// artifacts compare under the same contract.
	weights := make([]float64, registry.Len())
	seen := make(map[string]bool, len(doc.Coefficients))
	for name, w := range doc.Coefficients {
		clean := registry.Sanitize(name)
		i, ok := registry.Index(clean)
		if !ok {
			return nil, fmt.Errorf("%w: coefficient %q has no registry column",
				ErrInvalidArtifact, clean)
		}
		if seen[clean] {
			return nil, fmt.Errorf("%w: duplicate coefficient %q", ErrInvalidArtifact, clean)
		}
		seen[clean] = true
		weights[i] = w
	}
	if len(seen) != registry.Len() {
		return nil, fmt.Errorf("%w: model has %d coefficients, registry has %d columns",
			ErrDimensionMismatch, len(seen), registry.Len())
	}

	return NewLogisticModel(doc.Intercept, weights)
}

func validateModelArtifact(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("model.json", strings.NewReader(modelSchema)); err != nil {
		return fmt.Errorf("%w: add schema: %w", ErrInvalidArtifact, err)
	}
	compiled, err := compiler.Compile("model.json")
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
