package config

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Load and Validate.
var (
	// ErrLoadConfig wraps failures reading the YAML file or the CARDCOG_
	// environment.
	ErrLoadConfig = errors.New("load config failed")
	// ErrInvalidConfig wraps every value Validate rejects.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnknownBackend is the validation failure for an embedding provider
	// or model store this build cannot construct.
	ErrUnknownBackend = fmt.Errorf("%w: unknown backend", ErrInvalidConfig)
)
