package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "CARDCOG_"
	envFileVar = "CARDCOG_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if CARDCOG_CONFIG is set
//  3. env (prefix CARDCOG_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CARDCOG_MODEL_CACHE_SIZE -> model_cache_size (flat keys).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.CORSAllowedOrigins = splitList(cfg.CORSAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot correct.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !slices.Contains([]string{"ollama", "genai"}, c.EmbeddingProvider):
		return fmt.Errorf("%w: embedding_provider %q", ErrUnknownBackend, c.EmbeddingProvider)
	case c.EmbeddingDimensions < 1:
		return fmt.Errorf("%w: embedding_dimensions must be positive", ErrInvalidConfig)
	case !slices.Contains([]string{"file", "redis"}, c.ModelStore):
		return fmt.Errorf("%w: model_store %q", ErrUnknownBackend, c.ModelStore)
	case c.ModelCacheSize < 0:
		return fmt.Errorf("%w: model_cache_size must not be negative", ErrInvalidConfig)
	case c.MaxRequestCards < 1:
		return fmt.Errorf("%w: max_request_cards must be positive", ErrInvalidConfig)
	case c.ProgressEvery < 1:
		return fmt.Errorf("%w: progress_every must be positive", ErrInvalidConfig)
	case c.EmbeddingRateLimit < 0:
		return fmt.Errorf("%w: embedding_rate_limit must not be negative", ErrInvalidConfig)
	case c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1:
		return fmt.Errorf("%w: breaker_failure_ratio must be in (0,1]", ErrInvalidConfig)
	case !slices.Contains([]string{"text", "json"}, c.LogFormat):
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// splitList expands comma-separated entries, as env vars deliver lists as
// a single string.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
