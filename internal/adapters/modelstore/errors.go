package modelstore

import (
	"errors"

	"github.com/okian/cardcognition/internal/domain/registry"
)

// Sentinel errors for artifact stores.
var (
	// ErrArtifactNotFound is the registry's not-found sentinel; stores wrap it.
	ErrArtifactNotFound = registry.ErrArtifactNotFound

	ErrInvalidKey     = errors.New("invalid artifact key")
	ErrUnknownBackend = errors.New("unknown model store backend")
)
