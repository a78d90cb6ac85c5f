package scoring

import "errors"

// Sentinel errors for predictors and artifacts.
var (
	ErrShapeMismatch   = errors.New("vector shape mismatch")
	ErrUnknownKind     = errors.New("unknown model kind")
	ErrInvalidArtifact = errors.New("invalid model artifact")
	ErrNonFinite       = errors.New("non-finite prediction")
)
