// Package embedder provides text embedding engines backed by external
// services, and a circuit breaker that guards them.
package embedder

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider names.
const (
	ProviderOllama = "ollama"
	ProviderGenAI  = "genai"
)

// Engine embeds text into a fixed-width vector.
type Engine interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Name() string
}

// Settings selects and configures an engine.
type Settings struct {
	Provider   string
	Dimensions int

	OllamaEndpoint string
	OllamaModel    string
	HTTPTimeout    time.Duration

	GenAIAPIKey   string
	GenAIModel    string
	GenAITaskType string

	// RateLimit caps embedding calls per second; zero disables it.
	RateLimit float64
	RateBurst int

	BreakerTimeout      time.Duration
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
}

// New builds the configured engine wrapped in a circuit breaker.
func New(ctx context.Context, s Settings, opts ...BreakerOption) (*Breaker, error) {
	var (
		eng Engine
		err error
	)
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case ProviderOllama, "":
		eng = NewOllamaEngine(s.OllamaEndpoint, s.OllamaModel, s.Dimensions, WithHTTPTimeout(s.HTTPTimeout))
	case ProviderGenAI:
		eng, err = NewGenAIEngine(ctx, s.GenAIAPIKey, s.GenAIModel, s.GenAITaskType, s.Dimensions)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, s.Provider)
	}
	if err != nil {
		return nil, err
	}

	opts = append([]BreakerOption{
		WithBreakerTimeout(s.BreakerTimeout),
		WithMinRequests(s.BreakerMinRequests),
		WithFailureRatio(s.BreakerFailureRatio),
	}, opts...)
	return NewBreaker(NewLimited(eng, s.RateLimit, s.RateBurst), opts...), nil
}
