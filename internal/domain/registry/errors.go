package registry

import "errors"

// Sentinel errors for model resolution.
var (
	// ErrArtifactNotFound is returned by a Store that has no artifact for a key.
	ErrArtifactNotFound = errors.New("model artifact not found")

	ErrModelNotFound  = errors.New("commander model not found")
	ErrModelLoad      = errors.New("commander model load failed")
	ErrSchemaMismatch = errors.New("commander model schema mismatch")
)
