package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrLoadArtifact      = errors.New("model artifact load failed")
	ErrInvalidArtifact   = errors.New("invalid model artifact")
	ErrEmptyModel        = errors.New("model has no coefficients")
	ErrDimensionMismatch = errors.New("feature vector dimension mismatch")
)
