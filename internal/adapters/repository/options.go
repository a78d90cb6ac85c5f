// Package repository implements the card store on PostgreSQL.
package repository

import (
	"time"

	"github.com/okian/cardcognition/pkg/logger"
)

// Option applies a configuration option to the Postgres store.
type Option func(*Postgres)

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) Option {
	return func(p *Postgres) {
		if n > 0 {
			p.maxConns = n
		}
	}
}

// WithMinConns sets the number of connections kept open.
func WithMinConns(n int32) Option {
	return func(p *Postgres) {
		if n > 0 {
			p.minConns = n
		}
	}
}

// WithMaxConnLifetime recycles connections older than d.
func WithMaxConnLifetime(d time.Duration) Option {
	return func(p *Postgres) {
		if d > 0 {
			p.maxLifetime = d
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Postgres) {
		if l != nil {
			p.logger = l
		}
	}
}
