// Package scoring defines the predictor contract and the commander model
// artifact format.
package scoring

import (
	"fmt"
	"math"

	json "github.com/goccy/go-json"

	"github.com/okian/cardcognition/internal/domain/features"
)

// Model kinds understood by Artifact.Predictor.
const (
	KindLinear   = "linear"
	KindLogistic = "logistic"
)

// Predictor maps a feature vector to a synergy score.
type Predictor interface {
	Predict(vec []float64) (float64, error)
}

// Artifact is the persisted form of a commander model.
type Artifact struct {
	Commander string          `json:"commander"`
	Kind      string          `json:"kind"`
	Schema    features.Schema `json:"schema"`
	Weights   []float64       `json:"weights"`
	Intercept float64         `json:"intercept"`
}

// DecodeArtifact parses and validates an artifact document.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	if a.Kind == "" {
		a.Kind = KindLinear
	}
	if len(a.Weights) != a.Schema.Dimensions {
		return nil, fmt.Errorf("%w: %d weights for %d dimensions", ErrInvalidArtifact, len(a.Weights), a.Schema.Dimensions)
	}
	return &a, nil
}

// Encode serialises the artifact.
func (a *Artifact) Encode() ([]byte, error) {
	return json.Marshal(a)
}

// Predictor builds the predictor described by the artifact.
func (a *Artifact) Predictor() (Predictor, error) {
	switch a.Kind {
	case KindLinear:
		return NewLinear(a.Weights, a.Intercept), nil
	case KindLogistic:
		return NewLinear(a.Weights, a.Intercept, WithLogistic()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}
}

// Option applies a configuration option to Linear.
type Option func(*Linear)

// WithLogistic squashes the linear response through a sigmoid.
func WithLogistic() Option {
	return func(l *Linear) { l.logistic = true }
}

// Linear is a dot-product model. It is immutable and safe for concurrent use.
type Linear struct {
	weights   []float64
	intercept float64
	logistic  bool
}

// NewLinear creates a linear predictor. weights is copied.
func NewLinear(weights []float64, intercept float64, opts ...Option) *Linear {
	l := &Linear{weights: append([]float64(nil), weights...), intercept: intercept}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Predict computes w·x + b, optionally through a sigmoid.
func (l *Linear) Predict(vec []float64) (float64, error) {
	if len(vec) != len(l.weights) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrShapeMismatch, len(vec), len(l.weights))
	}
	s := l.intercept
	for i, w := range l.weights {
		s += w * vec[i]
	}
	if l.logistic {
		s = 1 / (1 + math.Exp(-s))
	}
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, ErrNonFinite
	}
	return s, nil
}

// Round rounds to two decimal places, half away from zero.
func Round(x float64) float64 {
	return math.Round(x*100) / 100
}
