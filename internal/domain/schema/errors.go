package schema

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrLoadArtifact    = errors.New("registry artifact load failed")
	ErrInvalidArtifact = errors.New("invalid registry artifact")
	ErrEmptyRegistry   = errors.New("registry has no feature columns")
	ErrDuplicateColumn = errors.New("duplicate feature column")
)
