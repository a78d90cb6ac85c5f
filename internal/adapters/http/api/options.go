package api

import (
	"time"

	"github.com/okian/cardcognition/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAllowedOrigins enables CORS for origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = append([]string(nil), origins...)
	}
}

// WithRequestTimeout bounds request handling time.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithMaxCommanderNameLen rejects longer commander names with 400. Zero
// disables the check.
func WithMaxCommanderNameLen(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.maxCommanderNameLen = n
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithReadiness sets the check behind /healthz.
func WithReadiness(fn ReadinessFunc) Option {
	return func(s *Server) {
		s.ready = fn
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
