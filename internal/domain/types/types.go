// Package types contains common types used across the application
package types

// Prediction is the outcome of scoring one lead record. The JSON shape is
// the public /predict response contract; the alignment diagnostics stay
// internal.
type Prediction struct {
	Probability float64 `json:"lead_score_probability"`
	Label       string  `json:"prediction_label"`

	// Alignment diagnostics, exported via metrics and /stats only.
	Dropped    int `json:"-"`
	ZeroFilled int `json:"-"`
}
