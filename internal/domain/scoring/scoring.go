// Package scoring defines the contract for turning an aligned feature
// vector into a win probability.
package scoring

import (
	"context"
	"fmt"
	"math"
)

// Scorer computes the positive-class ("won") probability for an aligned
// feature vector. The vector is positional: implementations trust the
// caller to supply values in the training column order. Implementations
// must be deterministic and side-effect-free.
type Scorer interface {
	// PredictProbability returns a probability in [0, 1].
	PredictProbability(ctx context.Context, values []float64) (float64, error)
}

// LogisticModel implements Scorer with a serialized logistic regression:
// sigmoid(intercept + w . x). Read-only after construction, safe for
// concurrent use.
type LogisticModel struct {
	intercept float64
	weights   []float64
}

// NewLogisticModel builds a model from an intercept and positional weights.
func NewLogisticModel(intercept float64, weights []float64) (*LogisticModel, error) {
	if len(weights) == 0 {
		return nil, ErrEmptyModel
	}
	m := &LogisticModel{
		intercept: intercept,
		weights:   make([]float64, len(weights)),
	}
	copy(m.weights, weights)
	return m, nil
}

// Dimension returns the expected feature vector length.
func (m *LogisticModel) Dimension() int {
	return len(m.weights)
}

// PredictProbability scores one aligned vector.
func (m *LogisticModel) PredictProbability(_ context.Context, values []float64) (float64, error) {
	if len(values) != len(m.weights) {
		return 0, fmt.Errorf("%w: got %d values, model expects %d",
			ErrDimensionMismatch, len(values), len(m.weights))
	}

	z := m.intercept
	for i, v := range values {
		z += m.weights[i] * v
	}

	p := sigmoid(z)
	// Guard against float spill at the extremes.
	return math.Max(0, math.Min(1, p)), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
