package features

import (
	"github.com/okian/cardcognition/pkg/logger"
)

// DefaultStatSentinel replaces absent or non-numeric power and toughness.
const DefaultStatSentinel = -99.0

// SchemaVersion is the layout version of the feature vector.
const SchemaVersion = "v1"

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithStatSentinel sets the value used for absent or non-numeric power and toughness.
func WithStatSentinel(v float64) Option {
	return func(b *Builder) {
		b.sentinel = v
	}
}

// WithUnseenObserver registers an observer for categories missing from the taxonomy.
func WithUnseenObserver(o UnseenObserver) Option {
	return func(b *Builder) {
		if o != nil {
			b.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}
