package embedder

import "errors"

// Sentinel errors for embedding engines.
var (
	ErrUnknownProvider = errors.New("unknown embedding provider")
	ErrMissingAPIKey   = errors.New("embedding api key is required")
	ErrEmptyResponse   = errors.New("embedding service returned no vector")
	ErrBadStatus       = errors.New("embedding service returned non-200 status")
	ErrUnavailable     = errors.New("embedding service unavailable")
	ErrRateLimited     = errors.New("embedding rate limit wait failed")
)
