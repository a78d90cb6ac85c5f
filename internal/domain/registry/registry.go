// Package registry resolves a commander to its scoring model.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/cardcognition/internal/domain/features"
	"github.com/okian/cardcognition/internal/domain/scoring"
	"github.com/okian/cardcognition/pkg/logger"
	"github.com/okian/cardcognition/pkg/metrics"
)

const defaultLoadTimeout = 30 * time.Second

// Store loads raw model artifacts by key. Implementations return an error
// wrapping ErrArtifactNotFound when the key has no artifact.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
}

// Key sanitizes a commander name into an artifact key: lower-case, every
// run of characters outside [a-z0-9] becomes a single "-", and leading or
// trailing "-" are trimmed.
func Key(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Registry loads commander models from a Store and checks every artifact
// against the schema of the running feature builder.
type Registry struct {
	store  Store
	schema features.Schema
	log    logger.Logger

	cacheSize   int
	loadTimeout time.Duration
	cache       *lru
	group       singleflight.Group
}

// New creates a registry that accepts only artifacts built for schema.
func New(store Store, schema features.Schema, opts ...Option) *Registry {
	r := &Registry{
		store:       store,
		schema:      schema,
		log:         logger.Nop(),
		loadTimeout: defaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cacheSize > 0 {
		r.cache = newLRU(r.cacheSize)
	}
	return r
}

// Resolve returns the predictor for commanderName. Concurrent calls for the
// same key share one load, which runs detached from the callers' contexts
// under the registry's load timeout. A caller whose context ends stops
// waiting without affecting the others.
func (r *Registry) Resolve(ctx context.Context, commanderName string) (scoring.Predictor, error) {
	key := Key(commanderName)
	if key == "" {
		return nil, fmt.Errorf("%w: empty key for %q", ErrModelNotFound, commanderName)
	}

	if r.cache != nil {
		if p, ok := r.cache.get(key); ok {
			metrics.RecordModelCacheHit()
			return p, nil
		}
		metrics.RecordModelCacheMiss()
	}

	gen := r.generation()
	ch := r.group.DoChan(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		// Detached from the caller and bounded by loadTimeout.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()
		p, err := r.load(lctx, key)
		if err != nil {
			return nil, err
		}
		// A load that raced an invalidation is served but never cached.
		if r.cache != nil {
			if n, ok := r.cache.add(key, p, gen); ok {
				metrics.UpdateModelCacheSize(n)
			}
		}
		return p, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			r.log.Debug(ctx, "shared model load", logger.String("key", key))
		}
		return res.Val.(scoring.Predictor), nil
	}
}

func (r *Registry) generation() uint64 {
	if r.cache == nil {
		return 0
	}
	return r.cache.generation()
}

func (r *Registry) load(ctx context.Context, key string) (scoring.Predictor, error) {
	start := time.Now()
	result := "ok"
	defer func() {
		metrics.RecordModelLoad(result, float64(time.Since(start).Microseconds())/1000.0)
	}()

	data, err := r.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			result = "not_found"
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, key)
		}
		result = "error"
		r.log.Error(ctx, "model store load failed", logger.String("key", key), logger.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, key, err)
	}

	art, err := scoring.DecodeArtifact(data)
	if err != nil {
		result = "invalid"
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, key, err)
	}
	if !art.Schema.Equal(r.schema) {
		result = "schema_mismatch"
		r.log.Warn(ctx, "rejected model artifact",
			logger.String("key", key),
			logger.String("artifact_schema", art.Schema.String()),
			logger.String("serving_schema", r.schema.String()))
		return nil, fmt.Errorf("%w: %s: artifact %s, serving %s", ErrSchemaMismatch, key, art.Schema, r.schema)
	}
	p, err := art.Predictor()
	if err != nil {
		result = "invalid"
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, key, err)
	}
	r.log.Info(ctx, "model loaded", logger.String("key", key), logger.String("kind", art.Kind))
	return p, nil
}

// Invalidate drops the cached model for commanderName. It reports whether
// an entry was cached.
func (r *Registry) Invalidate(commanderName string) bool {
	if r.cache == nil {
		return false
	}
	removed := r.cache.remove(Key(commanderName))
	metrics.UpdateModelCacheSize(r.cache.size())
	return removed
}

// InvalidateAll empties the cache and returns the number of dropped entries.
func (r *Registry) InvalidateAll() int {
	if r.cache == nil {
		return 0
	}
	n := r.cache.purge()
	metrics.UpdateModelCacheSize(0)
	return n
}

// Cached returns the number of cached models.
func (r *Registry) Cached() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.size()
}

// Schema returns the schema artifacts must match.
func (r *Registry) Schema() features.Schema { return r.schema }
