package feature

import (
	"context"

	"github.com/okian/leadscore/internal/domain/schema"
)

// Aligner reconciles an encoded record against the registry's column list.
// It is stateless apart from the read-only registry and safe for concurrent
// use.
type Aligner struct {
	registry *schema.Registry
}

// Stats counts what alignment had to do to one record. Surfaced for
// observability; neither condition is an error.
type Stats struct {
	// Dropped is the number of encoded columns the model does not know
	// (novel category values, discarded silently).
	Dropped int
	// ZeroFilled is the number of model columns the record did not produce
	// (categories not in this record, plus training-only columns such as a
	// cycle-duration feature that has no live counterpart).
	ZeroFilled int
}

// NewAligner builds an Aligner over a loaded registry.
func NewAligner(registry *schema.Registry) (*Aligner, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, ErrEmptyRegistry
	}
	return &Aligner{registry: registry}, nil
}

// Align maps encoder output onto the registry's exact column order.
//
// For every registry column present in the encoding the value is copied;
// absent columns become 0; encoded columns unknown to the registry are
// dropped. Live column names pass through the registry's sanitization rule
// before comparison, since registry columns were stored under the same rule.
// The result always has exactly registry.Len() values in registry order.
func (a *Aligner) Align(_ context.Context, encoded map[string]float64) ([]float64, Stats, error) {
	if a.registry.Len() == 0 {
		return nil, Stats{}, ErrEmptyRegistry
	}

	values := make([]float64, a.registry.Len())
	var stats Stats

	matched := 0
	for name, val := range encoded {
		clean := a.registry.Sanitize(name)
		i, ok := a.registry.Index(clean)
		if !ok {
			stats.Dropped++
			continue
		}
		values[i] = val
		matched++
	}
	stats.ZeroFilled = a.registry.Len() - matched

	return values, stats, nil
}

// Columns exposes the output column order, matching the aligned values
// positionally.
func (a *Aligner) Columns() []string {
	return a.registry.Columns()
}
