package scoring

// Classification labels returned to API and webhook callers. The wording is
// fixed; downstream CRM automations match on these exact strings.
const (
	LabelHigh   = "Ganho Provável"
	LabelMedium = "Potencial Médio"
	LabelLow    = "Perda Provável"
)

// Default bucket boundaries.
const (
	defaultHighThreshold   = 0.7
	defaultMediumThreshold = 0.4
)

// Thresholds split the probability range into the three labels. Boundaries
// belong to the lower bucket: p == High classifies as medium, p == Medium
// as low.
type Thresholds struct {
	High   float64
	Medium float64
}

// DefaultThresholds returns the boundaries the model was calibrated with.
func DefaultThresholds() Thresholds {
	return Thresholds{High: defaultHighThreshold, Medium: defaultMediumThreshold}
}

// Classify maps a probability to its label.
func Classify(p float64, t Thresholds) string {
	switch {
	case p > t.High:
		return LabelHigh
	case p > t.Medium:
		return LabelMedium
	default:
		return LabelLow
	}
}
