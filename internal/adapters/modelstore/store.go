package modelstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/cardcognition/internal/domain/registry"
)

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Store is a registry.Store that can also publish artifacts.
type Store interface {
	registry.Store
	Save(ctx context.Context, key string, data []byte) error
}

// Settings selects and configures a backend.
type Settings struct {
	Backend       string
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open returns the configured store.
func Open(ctx context.Context, s Settings) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case BackendFile, "":
		return NewFileStore(s.Dir), nil
	case BackendRedis:
		return NewRedisStore(ctx, s.RedisAddr, s.RedisPassword, s.RedisDB, WithPrefix(s.RedisPrefix))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, s.Backend)
	}
}
