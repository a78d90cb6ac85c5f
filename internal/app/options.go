package service

import (
	"github.com/okian/cardcognition/internal/adapters/worker"
	"github.com/okian/cardcognition/internal/domain/taxonomy"
	"github.com/okian/cardcognition/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the card store. A store that also implements Lookup serves
// the read-only catalog queries.
func WithStore(store CardStore) Option {
	return func(s *Service) {
		if store == nil {
			return
		}
		s.store = store
		if l, ok := store.(Lookup); ok {
			s.lookup = l
		}
	}
}

// WithLookup sets the read-only catalog explicitly.
func WithLookup(l Lookup) Option {
	return func(s *Service) {
		if l != nil {
			s.lookup = l
		}
	}
}

// WithExtractor sets the feature vector builder.
func WithExtractor(e Extractor) Option {
	return func(s *Service) {
		if e != nil {
			s.extractor = e
		}
	}
}

// WithModels sets the commander model registry.
func WithModels(m Models) Option {
	return func(s *Service) {
		if m != nil {
			s.models = m
		}
	}
}

// WithTaxonomy exposes the serving taxonomy in catalog statistics.
func WithTaxonomy(t *taxonomy.Taxonomy) Option {
	return func(s *Service) {
		s.taxonomy = t
	}
}

// WithPool runs extraction on an existing pool. The caller owns its lifecycle.
func WithPool(p *worker.Pool) Option {
	return func(s *Service) {
		if p != nil {
			s.pool = p
			s.ownsPool = false
		}
	}
}

// WithWorkerCount sets the number of extraction workers when the service
// creates its own pool.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMaxCards caps the number of distinct card names per request.
func WithMaxCards(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCards = n
		}
	}
}

// WithProgressEvery sets how many completed cards trigger a progress report.
func WithProgressEvery(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.progressEvery = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
