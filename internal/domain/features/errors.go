package features

import (
	"errors"
	"fmt"
)

// Sentinel errors for per-card feature extraction.
var (
	ErrMissingOracleText  = errors.New("missing oracle text")
	ErrEmbeddingFailed    = errors.New("text embedding failed")
	ErrEmbeddingWidth     = errors.New("text embedding has unexpected width")
	ErrMalformedTypeLine  = errors.New("malformed type line")
	ErrInvalidManaValue   = errors.New("invalid mana value")
	ErrDimensionInvariant = errors.New("feature vector dimension invariant violated")
	ErrExtractionPanic    = errors.New("feature extraction panicked")
)

// Failure reasons, also used as metric labels.
const (
	ReasonMissingOracleText  = "missing_oracle_text"
	ReasonEmbeddingFailed    = "embedding_failed"
	ReasonEmbeddingWidth     = "embedding_width"
	ReasonMalformedTypeLine  = "malformed_type_line"
	ReasonInvalidManaValue   = "invalid_mana_value"
	ReasonDimensionInvariant = "dimension_invariant"
	ReasonExtractionPanic    = "extraction_panic"
)

// ExtractionError is the per-card failure returned by Build.
type ExtractionError struct {
	Card   string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %q: %s: %v", e.Card, e.Reason, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ReasonOf returns the failure reason carried by err, or "" when err is not
// an extraction failure.
func ReasonOf(err error) string {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Reason
	}
	return ""
}
