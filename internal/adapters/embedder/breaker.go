package embedder

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/cardcognition/pkg/logger"
	"github.com/okian/cardcognition/pkg/metrics"
)

// Breaker defaults.
const (
	defaultBreakerName         = "embedding"
	defaultBreakerTimeout      = 30 * time.Second
	defaultBreakerInterval     = time.Minute
	defaultBreakerMinRequests  = 10
	defaultBreakerFailureRatio = 0.6
	defaultHalfOpenRequests    = 3
)

// BreakerOption applies a configuration option to the Breaker.
type BreakerOption func(*breakerSettings)

type breakerSettings struct {
	name         string
	timeout      time.Duration
	interval     time.Duration
	minRequests  uint32
	failureRatio float64
	log          logger.Logger
}

// WithBreakerName names the breaker in logs and metrics.
func WithBreakerName(name string) BreakerOption {
	return func(s *breakerSettings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithBreakerTimeout sets how long the breaker stays open before probing.
func WithBreakerTimeout(d time.Duration) BreakerOption {
	return func(s *breakerSettings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMinRequests sets the request count needed before the breaker may trip.
func WithMinRequests(n uint32) BreakerOption {
	return func(s *breakerSettings) {
		if n > 0 {
			s.minRequests = n
		}
	}
}

// WithFailureRatio sets the failure ratio that trips the breaker.
func WithFailureRatio(r float64) BreakerOption {
	return func(s *breakerSettings) {
		if r > 0 && r <= 1 {
			s.failureRatio = r
		}
	}
}

// WithBreakerLogger sets the logger.
func WithBreakerLogger(l logger.Logger) BreakerOption {
	return func(s *breakerSettings) {
		if l != nil {
			s.log = l
		}
	}
}

// Breaker guards an Engine with a circuit breaker. While open, Embed fails
// fast with ErrUnavailable instead of waiting on a dead service.
type Breaker struct {
	engine Engine
	cb     *gobreaker.CircuitBreaker[[]float32]
	name   string
	log    logger.Logger
}

// NewBreaker wraps engine.
func NewBreaker(engine Engine, opts ...BreakerOption) *Breaker {
	s := breakerSettings{
		name:         defaultBreakerName,
		timeout:      defaultBreakerTimeout,
		interval:     defaultBreakerInterval,
		minRequests:  defaultBreakerMinRequests,
		failureRatio: defaultBreakerFailureRatio,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	b := &Breaker{engine: engine, name: s.name, log: s.log}
	_ = metrics.UpdateBreakerState(s.name, gobreaker.StateClosed.String())

	b.cb = gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
		Name:        s.name,
		MaxRequests: defaultHalfOpenRequests,
		Interval:    s.interval,
		Timeout:     s.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.failureRatio
		},
		// A caller giving up is not a service failure.
		IsSuccessful: func(err error) bool {
			var gone *callerDone
			return err == nil || errors.As(err, &gone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn(context.Background(), "circuit breaker state change",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
			if err := metrics.UpdateBreakerState(name, to.String()); err != nil {
				b.log.Error(context.Background(), "breaker metric", logger.Error(err))
			}
		},
	})
	return b
}

// Embed calls the wrapped engine through the breaker.
func (b *Breaker) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	v, err := b.cb.Execute(func() ([]float32, error) {
		v, err := b.engine.Embed(ctx, text)
		if err != nil && ctx.Err() != nil {
			return nil, &callerDone{err: err}
		}
		return v, err
	})
	metrics.RecordEmbedding(b.engine.Name(), float64(time.Since(start).Microseconds())/1000.0, err)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, b.name, err)
	}
	return v, err
}

// callerDone marks an engine error seen after the caller's context was
// cancelled or hit its deadline.
type callerDone struct{ err error }

func (c *callerDone) Error() string { return c.err.Error() }
func (c *callerDone) Unwrap() error { return c.err }

// Dimensions returns the wrapped engine's width.
func (b *Breaker) Dimensions() int { return b.engine.Dimensions() }

// Name returns the wrapped engine's name.
func (b *Breaker) Name() string { return b.engine.Name() }

// State returns the breaker state: "closed", "half-open" or "open".
func (b *Breaker) State() string { return b.cb.State().String() }
