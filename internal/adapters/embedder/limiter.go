package embedder

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited throttles calls to an engine with a token bucket.
type Limited struct {
	Engine
	limiter *rate.Limiter
}

// NewLimited wraps eng so it is called at most perSecond times a second,
// allowing bursts of burst calls. A non-positive rate returns eng unchanged.
func NewLimited(eng Engine, perSecond float64, burst int) Engine {
	if perSecond <= 0 {
		return eng
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{Engine: eng, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Embed waits for a token, then calls the wrapped engine.
func (l *Limited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return l.Engine.Embed(ctx, text)
}
