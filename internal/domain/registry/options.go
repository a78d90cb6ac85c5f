package registry

import (
	"time"

	"github.com/okian/cardcognition/pkg/logger"
)

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithCacheSize bounds the model cache. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(r *Registry) {
		if n >= 0 {
			r.cacheSize = n
		}
	}
}

// WithLoadTimeout bounds a single artifact load.
func WithLoadTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.loadTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}
