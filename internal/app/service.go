// Package service provides the synergy scoring pipeline and the catalog
// queries served next to it.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/cardcognition/internal/adapters/repository"
	"github.com/okian/cardcognition/internal/adapters/worker"
	"github.com/okian/cardcognition/internal/domain/features"
	"github.com/okian/cardcognition/internal/domain/model"
	"github.com/okian/cardcognition/internal/domain/registry"
	"github.com/okian/cardcognition/internal/domain/scoring"
	"github.com/okian/cardcognition/internal/domain/taxonomy"
	"github.com/okian/cardcognition/internal/domain/types"
	"github.com/okian/cardcognition/pkg/logger"
	"github.com/okian/cardcognition/pkg/metrics"
)

const (
	defaultMaxCards      = 250
	defaultProgressEvery = 100

	// ReasonPredictFailed marks cards whose model invocation failed.
	ReasonPredictFailed = "predict_failed"
)

// CardStore is the external card catalog. Lookups that find nothing return
// an error wrapping repository.ErrNotFound.
type CardStore interface {
	FindCommander(ctx context.Context, name string) (model.Commander, error)
	RelatedCards(ctx context.Context, commanderID int64) ([]model.RelatedCard, error)
	FindCard(ctx context.Context, name string) (model.Card, error)
	AllLegalCards(ctx context.Context) ([]model.Card, error)
}

// Lookup serves read-only catalog queries.
type Lookup interface {
	CardByName(ctx context.Context, name string) (model.Card, error)
	CommanderInfo(ctx context.Context, name string) (types.CommanderInfo, error)
	Suggestions(ctx context.Context, name string, offset, limit int) ([]types.Suggestion, error)
	Reductions(ctx context.Context, name string, limit int) ([]types.Suggestion, error)
	DBInfo(ctx context.Context) (types.DBInfo, error)
	RandomCommander(ctx context.Context) (model.Commander, error)
}

// Extractor turns a card into a feature vector.
type Extractor interface {
	Build(ctx context.Context, card model.Card) features.Extraction
}

// Models resolves commander models.
type Models interface {
	Resolve(ctx context.Context, commanderName string) (scoring.Predictor, error)
	Invalidate(commanderName string) bool
	InvalidateAll() int
	Cached() int
}

// ProgressFunc receives progress reports while a request is scored.
type ProgressFunc func(types.Progress)

// ScoreRequest asks for the synergy of Cards with Commander.
type ScoreRequest struct {
	Commander string
	Cards     []string
	Progress  ProgressFunc
}

// Service scores card lists against commander models.
type Service struct {
	mu sync.Mutex

	store     CardStore
	lookup    Lookup
	extractor Extractor
	models    Models
	taxonomy  *taxonomy.Taxonomy

	pool        *worker.Pool
	ownsPool    bool
	workerCount int
	started     bool

	maxCards      int
	progressEvery int

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 2,
		ownsPool:      true,
		maxCards:      defaultMaxCards,
		progressEvery: defaultProgressEvery,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the extraction pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil || s.extractor == nil || s.models == nil {
		return ErrServiceUnavailable
	}
	if s.pool == nil {
		s.pool = worker.NewPool(s.workerCount, worker.WithPoolLogger(s.logger.Named("worker")))
		s.ownsPool = true
	}
	if s.ownsPool {
		s.pool.Start(ctx)
	}
	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("max_cards", s.maxCards),
	)
	return nil
}

// Stop shuts the extraction pool down if the service created it.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.ownsPool && s.pool != nil {
		_ = s.pool.Shutdown(ctx)
		s.pool = nil
	}
	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// Score runs the synergy pipeline: retrieval, model resolution, extraction
// and prediction. Per-card failures score 0 and are listed in Failures;
// unknown names are listed in Missing and absent from Scores.
func (s *Service) Score(ctx context.Context, req ScoreRequest) (types.ScoringResult, error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := s.logger.With(logger.String("request_id", requestID), logger.String("commander", req.Commander))

	res, err := s.score(ctx, requestID, req, log)
	metrics.RecordScoreRequest(outcome(err))
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		metrics.RecordErrorByComponent("app", outcome(err))
		log.Warn(ctx, "scoring request failed", logger.Error(err))
		return types.ScoringResult{}, err
	}
	log.Info(ctx, "scoring request completed",
		logger.Int("scored", len(res.Scores)),
		logger.Int("failures", len(res.Failures)),
		logger.Int("missing", len(res.Missing)),
		logger.Duration("took", time.Since(start)),
	)
	return res, nil
}

func (s *Service) score(ctx context.Context, requestID string, req ScoreRequest, log logger.Logger) (types.ScoringResult, error) {
	if s.store == nil || s.extractor == nil || s.models == nil {
		return types.ScoringResult{}, ErrServiceUnavailable
	}
	commanderName := strings.TrimSpace(req.Commander)
	names := normalize(req.Cards)
	if commanderName == "" || len(names) == 0 {
		return types.ScoringResult{}, ErrEmptyRequest
	}
	if len(names) > s.maxCards {
		return types.ScoringResult{}, fmt.Errorf("%w: %d > %d", ErrTooManyCards, len(names), s.maxCards)
	}

	cmd, err := s.store.FindCommander(ctx, commanderName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return types.ScoringResult{}, fmt.Errorf("%w: %s", ErrCommanderNotFound, commanderName)
		}
		return types.ScoringResult{}, fmt.Errorf("find commander: %w", err)
	}

	cards, relations, missing, err := s.collect(ctx, cmd, names)
	if err != nil {
		return types.ScoringResult{}, err
	}

	predictor, err := s.models.Resolve(ctx, modelName(cmd))
	if err != nil {
		return types.ScoringResult{}, err
	}

	sort.SliceStable(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })

	extractions, err := s.extract(ctx, cards, req.Progress)
	if err != nil {
		return types.ScoringResult{}, err
	}

	res := types.ScoringResult{
		RequestID:   requestID,
		Commander:   cmd.CardName,
		Scores:      make(map[string]float64, len(cards)),
		ParsedCards: make([]types.ParsedCard, 0, len(cards)),
		Failures:    []types.Failure{},
		Missing:     missing,
	}
	if res.Commander == "" {
		res.Commander = cmd.Slug
	}

	scored := 0
	for _, ex := range extractions {
		card := ex.Card
		res.Scores[card.Name] = 0
		res.ParsedCards = append(res.ParsedCards, parsedCard(ex, relations[card.Name]))

		if !ex.OK() {
			res.Failures = append(res.Failures, types.Failure{
				Name:   card.Name,
				Reason: features.ReasonOf(ex.Err),
				Detail: ex.Err.Error(),
			})
			if errors.Is(ex.Err, features.ErrDimensionInvariant) {
				log.Error(ctx, "feature vector invariant violated", logger.String("card", card.Name), logger.Error(ex.Err))
			}
			continue
		}

		score, perr := predict(predictor, ex.Vector)
		if perr != nil {
			metrics.RecordPredictFailure()
			log.Warn(ctx, "prediction failed", logger.String("card", card.Name), logger.Error(perr))
			res.Failures = append(res.Failures, types.Failure{Name: card.Name, Reason: ReasonPredictFailed, Detail: perr.Error()})
			continue
		}
		res.Scores[card.Name] = scoring.Round(score)
		scored++
	}

	metrics.RecordCardsScored(scored)
	metrics.RecordCardsMissing(len(missing))
	return res, nil
}

// collect gathers the requested cards: related cards first with their
// relation statistics, then any remaining names straight from the catalog.
func (s *Service) collect(ctx context.Context, cmd model.Commander, names []string) ([]model.Card, map[string]*model.Relation, []string, error) {
	related, err := s.store.RelatedCards(ctx, cmd.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("related cards: %w", err)
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	cards := make([]model.Card, 0, len(names))
	relations := make(map[string]*model.Relation, len(names))
	for _, rc := range related {
		if !wanted[rc.Name] || relations[rc.Name] != nil {
			continue
		}
		cards = append(cards, rc.Card)
		relations[rc.Name] = &model.Relation{
			Percentage:   rc.Percentage,
			NumDecks:     rc.NumDecks,
			SynergyScore: rc.SynergyScore,
		}
	}

	missing := []string{}
	for _, n := range names {
		if relations[n] != nil {
			continue
		}
		card, err := s.store.FindCard(ctx, n)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				missing = append(missing, n)
				continue
			}
			return nil, nil, nil, fmt.Errorf("find card %q: %w", n, err)
		}
		cards = append(cards, card)
	}
	return cards, relations, missing, nil
}

// extract builds every card's feature vector on the pool. Results keep the
// input order.
func (s *Service) extract(ctx context.Context, cards []model.Card, hook ProgressFunc) ([]features.Extraction, error) {
	out := make([]features.Extraction, len(cards))
	tracker := newProgress(len(cards), s.progressEvery, hook)

	build := func(ctx context.Context, i int) {
		defer tracker.tick()
		defer func() {
			if r := recover(); r != nil {
				metrics.RecordExtractionFailure(features.ReasonExtractionPanic)
				s.logger.Error(ctx, "feature extraction panicked", logger.String("card", cards[i].Name), logger.Any("panic", r))
				out[i] = features.Extraction{
					Card: cards[i],
					Err: &features.ExtractionError{
						Card:   cards[i].Name,
						Reason: features.ReasonExtractionPanic,
						Err:    fmt.Errorf("%w: %v", features.ErrExtractionPanic, r),
					},
				}
			}
		}()
		out[i] = s.extractor.Build(ctx, cards[i])
	}

	s.mu.Lock()
	pool := s.pool
	if !s.started {
		pool = nil
	}
	s.mu.Unlock()

	if pool == nil {
		for i := range cards {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			build(ctx, i)
		}
		return out, nil
	}
	if err := pool.Run(ctx, len(cards), build); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return out, nil
}

// predict invokes the model, turning a panic into an error.
func predict(p scoring.Predictor, vec []float64) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predictor panic: %v", r)
		}
	}()
	return p.Predict(vec)
}

func parsedCard(ex features.Extraction, rel *model.Relation) types.ParsedCard {
	c := ex.Card
	return types.ParsedCard{
		ID:         c.ID,
		Name:       c.Name,
		ManaCost:   c.ManaCost,
		CMC:        c.CMC,
		TypeLine:   c.TypeLine,
		OracleText: c.OracleText,
		Colors:     types.ColorStrings(c.Colors),
		Power:      c.Power,
		Toughness:  c.Toughness,
		Types:      ex.Parsed,
		Relation:   rel,
		Unseen:     ex.Unseen,
	}
}

// modelName is the name whose registry key identifies the commander model.
func modelName(cmd model.Commander) string {
	if cmd.CardName != "" {
		return cmd.CardName
	}
	return cmd.Slug
}

// normalize trims names, drops blanks and removes duplicates keeping the
// first occurrence.
func normalize(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, n := range raw {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCommanderNotFound):
		return "commander_not_found"
	case errors.Is(err, registry.ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, registry.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrTooManyCards), errors.Is(err, ErrEmptyRequest):
		return "bad_request"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
