package service

import "errors"

// Sentinel kinds for service lifecycle errors.
var (
	ErrMissingRegistry = errors.New("service requires a feature-column registry")
	ErrMissingScorer   = errors.New("service requires a trained scorer")
)
