package feature

import "errors"

// Sentinel kinds for feature pipeline errors.
var (
	ErrEmptyRegistry = errors.New("alignment requires a non-empty registry")
)
