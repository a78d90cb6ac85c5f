package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/cardcognition/internal/adapters/repository"
	"github.com/okian/cardcognition/internal/domain/model"
	"github.com/okian/cardcognition/internal/domain/types"
	"github.com/okian/cardcognition/pkg/logger"
)

// Card returns the detail view of a card, matched case-insensitively.
func (s *Service) Card(ctx context.Context, name string) (types.CardView, error) {
	if s.lookup == nil {
		return types.CardView{}, ErrLookupUnavailable
	}
	card, err := s.lookup.CardByName(ctx, name)
	if err != nil {
		return types.CardView{}, notFound(err, ErrCardNotFound, name)
	}
	return types.NewCardView(card), nil
}

// CommanderInfo summarises a commander's related cards.
func (s *Service) CommanderInfo(ctx context.Context, name string) (types.CommanderInfo, error) {
	if s.lookup == nil {
		return types.CommanderInfo{}, ErrLookupUnavailable
	}
	info, err := s.lookup.CommanderInfo(ctx, name)
	if err != nil {
		return types.CommanderInfo{}, notFound(err, ErrCommanderNotFound, name)
	}
	return info, nil
}

// Suggestions returns a window of a commander's best related cards.
func (s *Service) Suggestions(ctx context.Context, name string, offset, limit int) ([]types.Suggestion, error) {
	if s.lookup == nil {
		return nil, ErrLookupUnavailable
	}
	out, err := s.lookup.Suggestions(ctx, name, offset, limit)
	if err != nil {
		return nil, notFound(err, ErrCommanderNotFound, name)
	}
	return out, nil
}

// Reductions returns a commander's weakest related cards.
func (s *Service) Reductions(ctx context.Context, name string, limit int) ([]types.Suggestion, error) {
	if s.lookup == nil {
		return nil, ErrLookupUnavailable
	}
	out, err := s.lookup.Reductions(ctx, name, limit)
	if err != nil {
		return nil, notFound(err, ErrCommanderNotFound, name)
	}
	return out, nil
}

// DBInfo returns catalog counts plus the serving taxonomy and model cache sizes.
func (s *Service) DBInfo(ctx context.Context) (types.DBInfo, error) {
	if s.lookup == nil {
		return types.DBInfo{}, ErrLookupUnavailable
	}
	info, err := s.lookup.DBInfo(ctx)
	if err != nil {
		return types.DBInfo{}, err
	}
	if s.taxonomy != nil {
		info.TaxonomyTypes = s.taxonomy.CardTypeWidth()
		info.TaxonomySubs = s.taxonomy.SubTypeWidth()
	}
	if s.models != nil {
		info.ModelCacheSize = s.models.Cached()
	}
	return info, nil
}

// RandomCommander picks any commander.
func (s *Service) RandomCommander(ctx context.Context) (model.Commander, error) {
	if s.lookup == nil {
		return model.Commander{}, ErrLookupUnavailable
	}
	cmd, err := s.lookup.RandomCommander(ctx)
	if err != nil {
		return model.Commander{}, notFound(err, ErrCommanderNotFound, "random")
	}
	return cmd, nil
}

// InvalidateModel drops a commander's cached model.
func (s *Service) InvalidateModel(ctx context.Context, name string) bool {
	if s.models == nil {
		return false
	}
	dropped := s.models.Invalidate(name)
	s.logger.Info(ctx, "model invalidated", logger.String("commander", name), logger.Bool("cached", dropped))
	return dropped
}

// InvalidateModels drops every cached model.
func (s *Service) InvalidateModels(ctx context.Context) int {
	if s.models == nil {
		return 0
	}
	n := s.models.InvalidateAll()
	s.logger.Info(ctx, "model cache cleared", logger.Int("dropped", n))
	return n
}

func notFound(err, kind error, name string) error {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrEmptyCatalog) {
		return fmt.Errorf("%w: %s", kind, name)
	}
	return err
}
