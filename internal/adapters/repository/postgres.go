package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/cardcognition/internal/domain/model"
	"github.com/okian/cardcognition/internal/domain/registry"
	"github.com/okian/cardcognition/internal/domain/types"
	"github.com/okian/cardcognition/pkg/logger"
	"github.com/okian/cardcognition/pkg/metrics"
)

const (
	defaultMaxConns    = 25
	defaultMinConns    = 5
	defaultMaxLifetime = 30 * time.Minute

	// MaxPageSize bounds suggestion and reduction pages.
	MaxPageSize = 100

	// reductionThreshold selects cards that underperform with a commander.
	reductionThreshold = 0.8
	similarCommanders  = 5
)

// Querier is the subset of pgxpool.Pool used by the store.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Postgres reads the card catalog and commander relations.
type Postgres struct {
	db          Querier
	maxConns    int32
	minConns    int32
	maxLifetime time.Duration
	logger      logger.Logger
}

func newPostgres(opts ...Option) *Postgres {
	p := &Postgres{
		maxConns:    defaultMaxConns,
		minConns:    defaultMinConns,
		maxLifetime: defaultMaxLifetime,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPostgres opens a connection pool for dsn and verifies it with a ping.
func NewPostgres(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	p := newPostgres(opts...)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	poolConfig.MaxConns = p.maxConns
	poolConfig.MinConns = p.minConns
	poolConfig.MaxConnLifetime = p.maxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p.db = pool
	p.logger.Info(ctx, "card store connected",
		logger.Int("max_conns", int(p.maxConns)),
		logger.Int("min_conns", int(p.minConns)),
	)
	return p, nil
}

// NewPostgresWithQuerier builds a store over an existing querier.
func NewPostgresWithQuerier(q Querier, opts ...Option) *Postgres {
	p := newPostgres(opts...)
	p.db = q
	return p
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

const cardColumns = `sc.id, sc.scryfall_id, sc.card_name, sc.mana_cost, sc.cmc, sc.type_line,
	sc.oracle_text, COALESCE(sc.colors::text, ''), COALESCE(sc.color_identity::text, ''),
	sc.power, sc.toughness, sc.commander_legal, COALESCE(sc.set_code, ''),
	COALESCE(sc.rarity, ''), sc.edhrec_rank, COALESCE(sc.prices::text, '')`

// cardRow holds the nullable scan targets of cardColumns.
type cardRow struct {
	id             int64
	scryfallID     *string
	name           string
	manaCost       *string
	cmc            *float64
	typeLine       *string
	oracleText     *string
	colors         string
	colorIdentity  string
	power          *string
	toughness      *string
	commanderLegal *bool
	setCode        string
	rarity         string
	edhrecRank     *int
	prices         string
}

func (r *cardRow) targets() []any {
	return []any{
		&r.id, &r.scryfallID, &r.name, &r.manaCost, &r.cmc, &r.typeLine,
		&r.oracleText, &r.colors, &r.colorIdentity,
		&r.power, &r.toughness, &r.commanderLegal, &r.setCode,
		&r.rarity, &r.edhrecRank, &r.prices,
	}
}

func (r *cardRow) card() model.Card {
	return model.Card{
		ID:             r.id,
		ScryfallID:     deref(r.scryfallID),
		Name:           r.name,
		OracleText:     r.oracleText,
		ManaCost:       deref(r.manaCost),
		CMC:            derefFloat(r.cmc),
		TypeLine:       deref(r.typeLine),
		Colors:         model.ParseColors(r.colors),
		ColorIdentity:  model.ParseColors(r.colorIdentity),
		Power:          r.power,
		Toughness:      r.toughness,
		CommanderLegal: r.commanderLegal != nil && *r.commanderLegal,
		SetCode:        r.setCode,
		Rarity:         r.rarity,
		EDHRecRank:     r.edhrecRank,
		Prices:         r.prices,
	}
}

// FindCommander looks a commander up by its stored slug, the slug derived
// from name, or its card name.
func (p *Postgres) FindCommander(ctx context.Context, name string) (c model.Commander, err error) {
	defer observe("find_commander", time.Now(), &err)

	const q = `
		SELECT cmd.id, cmd.name, COALESCE(cmd.card_name, ''), COALESCE(cmd.card_id, 0), COALESCE(cmd.scryfall_id, '')
		FROM edhrec_commanders cmd
		WHERE cmd.name = $1 OR cmd.name = $2 OR cmd.card_name = $1
		ORDER BY (cmd.name = $1) DESC, cmd.id ASC
		LIMIT 1
	`
	err = p.db.QueryRow(ctx, q, name, registry.Key(name)).Scan(&c.ID, &c.Slug, &c.CardName, &c.CardID, &c.ScryfallID)
	if err != nil {
		return model.Commander{}, notFound(err, "commander %q", name)
	}
	return c, nil
}

// RelatedCards returns the commander-legal cards related to a commander in
// catalog order.
func (p *Postgres) RelatedCards(ctx context.Context, commanderID int64) (out []model.RelatedCard, err error) {
	defer observe("related_cards", time.Now(), &err)

	q := `
		SELECT ec.percentage, ec.num_decks, ec.synergy_score, ` + cardColumns + `
		FROM edhrec_cards ec
		JOIN scryfall_cards sc ON ec.card_id = sc.id
		WHERE ec.commander_id = $1 AND sc.commander_legal = true
		ORDER BY sc.id ASC
	`
	rows, err := p.db.Query(ctx, q, commanderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query related cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row      cardRow
			pct, syn *float64
			numDecks *int
		)
		if err := rows.Scan(append([]any{&pct, &numDecks, &syn}, row.targets()...)...); err != nil {
			return nil, fmt.Errorf("failed to scan related card: %w", err)
		}
		out = append(out, model.RelatedCard{
			Card:         row.card(),
			Percentage:   derefFloat(pct),
			NumDecks:     derefInt(numDecks),
			SynergyScore: derefFloat(syn),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate related cards: %w", err)
	}
	return out, nil
}

// FindCard returns the commander-legal card with the exact name.
func (p *Postgres) FindCard(ctx context.Context, name string) (c model.Card, err error) {
	defer observe("find_card", time.Now(), &err)

	q := `SELECT ` + cardColumns + `
		FROM scryfall_cards sc
		WHERE sc.card_name = $1 AND sc.commander_legal = true
		ORDER BY sc.id ASC
		LIMIT 1`
	var row cardRow
	if err = p.db.QueryRow(ctx, q, name).Scan(row.targets()...); err != nil {
		return model.Card{}, notFound(err, "card %q", name)
	}
	return row.card(), nil
}

// AllLegalCards returns the full commander-legal catalog in catalog order.
func (p *Postgres) AllLegalCards(ctx context.Context) (out []model.Card, err error) {
	defer observe("all_legal_cards", time.Now(), &err)

	q := `SELECT ` + cardColumns + `
		FROM scryfall_cards sc
		WHERE sc.commander_legal = true
		ORDER BY sc.id ASC`
	return p.queryCards(ctx, q)
}

// CardByName looks a card up case-insensitively regardless of legality.
func (p *Postgres) CardByName(ctx context.Context, name string) (c model.Card, err error) {
	defer observe("card_by_name", time.Now(), &err)

	q := `SELECT ` + cardColumns + `
		FROM scryfall_cards sc
		WHERE LOWER(sc.card_name) = LOWER($1)
		ORDER BY sc.id ASC
		LIMIT 1`
	var row cardRow
	if err = p.db.QueryRow(ctx, q, name).Scan(row.targets()...); err != nil {
		return model.Card{}, notFound(err, "card %q", name)
	}
	return row.card(), nil
}

// CommanderInfo summarises a commander's relations and lists the commanders
// sharing the most related cards with it.
func (p *Postgres) CommanderInfo(ctx context.Context, name string) (info types.CommanderInfo, err error) {
	cmd, err := p.FindCommander(ctx, name)
	if err != nil {
		return types.CommanderInfo{}, err
	}
	defer observe("commander_info", time.Now(), &err)

	info = types.CommanderInfo{
		Name:              cmd.Slug,
		CardName:          cmd.CardName,
		ScryfallID:        cmd.ScryfallID,
		SimilarCommanders: []types.SimilarCommander{},
	}

	const stats = `
		SELECT COUNT(*), COALESCE(AVG(ec.synergy_score), 0)
		FROM edhrec_cards ec
		WHERE ec.commander_id = $1
	`
	if err = p.db.QueryRow(ctx, stats, cmd.ID).Scan(&info.RelatedCards, &info.AverageSynergy); err != nil {
		return types.CommanderInfo{}, fmt.Errorf("failed to query commander stats: %w", err)
	}

	const similar = `
		SELECT cmd2.name, COALESCE(cmd2.card_name, ''), COUNT(DISTINCT c2.card_id) AS shared
		FROM edhrec_cards c1
		JOIN edhrec_cards c2 ON c1.card_id = c2.card_id
		JOIN edhrec_commanders cmd2 ON c2.commander_id = cmd2.id
		WHERE c1.commander_id = $1 AND cmd2.id != $1
		GROUP BY cmd2.name, cmd2.card_name
		ORDER BY shared DESC, cmd2.name ASC
		LIMIT $2
	`
	rows, err := p.db.Query(ctx, similar, cmd.ID, similarCommanders)
	if err != nil {
		return types.CommanderInfo{}, fmt.Errorf("failed to query similar commanders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s types.SimilarCommander
		if err = rows.Scan(&s.Name, &s.CardName, &s.SharedCards); err != nil {
			return types.CommanderInfo{}, fmt.Errorf("failed to scan similar commander: %w", err)
		}
		info.SimilarCommanders = append(info.SimilarCommanders, s)
	}
	if err = rows.Err(); err != nil {
		return types.CommanderInfo{}, fmt.Errorf("failed to iterate similar commanders: %w", err)
	}

	if cmd.CardName != "" {
		if card, cerr := p.CardByName(ctx, cmd.CardName); cerr == nil {
			view := types.NewCardView(card)
			info.Card = &view
		}
	}
	return info, nil
}

// Suggestions returns a commander's related cards by descending synergy,
// skipping offset rows and returning at most limit.
func (p *Postgres) Suggestions(ctx context.Context, name string, offset, limit int) ([]types.Suggestion, error) {
	if limit < 1 || limit > MaxPageSize || offset < 0 {
		return nil, fmt.Errorf("%w: offset=%d limit=%d", ErrInvalidLimit, offset, limit)
	}
	cmd, err := p.FindCommander(ctx, name)
	if err != nil {
		return nil, err
	}
	q := `
		SELECT ec.percentage, ec.num_decks, ec.synergy_score, ` + cardColumns + `
		FROM edhrec_cards ec
		JOIN scryfall_cards sc ON ec.card_id = sc.id
		WHERE ec.commander_id = $1
		ORDER BY ec.synergy_score DESC, sc.id ASC
		LIMIT $2 OFFSET $3
	`
	return p.querySuggestions(ctx, "suggestions", q, cmd.ID, limit, offset)
}

// Reductions returns a commander's weakest related cards: synergy below the
// reduction threshold, by ascending inclusion percentage.
func (p *Postgres) Reductions(ctx context.Context, name string, limit int) ([]types.Suggestion, error) {
	if limit < 1 || limit > MaxPageSize {
		return nil, fmt.Errorf("%w: limit=%d", ErrInvalidLimit, limit)
	}
	cmd, err := p.FindCommander(ctx, name)
	if err != nil {
		return nil, err
	}
	q := `
		SELECT ec.percentage, ec.num_decks, ec.synergy_score, ` + cardColumns + `
		FROM edhrec_cards ec
		JOIN scryfall_cards sc ON ec.card_id = sc.id
		WHERE ec.commander_id = $1 AND ec.synergy_score < $2
		ORDER BY ec.percentage ASC, ec.synergy_score ASC, sc.id ASC
		LIMIT $3
	`
	return p.querySuggestions(ctx, "reductions", q, cmd.ID, reductionThreshold, limit)
}

// DBInfo returns catalog counts.
func (p *Postgres) DBInfo(ctx context.Context) (info types.DBInfo, err error) {
	defer observe("db_info", time.Now(), &err)

	const q = `
		SELECT
			(SELECT COUNT(*) FROM scryfall_cards),
			(SELECT COUNT(*) FROM scryfall_cards WHERE commander_legal = true),
			(SELECT COUNT(*) FROM edhrec_commanders),
			(SELECT COUNT(*) FROM edhrec_cards)
	`
	if err = p.db.QueryRow(ctx, q).Scan(&info.Cards, &info.LegalCards, &info.Commanders, &info.RelationEdges); err != nil {
		return types.DBInfo{}, fmt.Errorf("failed to query catalog counts: %w", err)
	}
	return info, nil
}

// RandomCommander picks a commander uniformly at random.
func (p *Postgres) RandomCommander(ctx context.Context) (c model.Commander, err error) {
	defer observe("random_commander", time.Now(), &err)

	var count int
	if err = p.db.QueryRow(ctx, `SELECT COUNT(*) FROM edhrec_commanders`).Scan(&count); err != nil {
		return model.Commander{}, fmt.Errorf("failed to count commanders: %w", err)
	}
	if count == 0 {
		return model.Commander{}, ErrEmptyCatalog
	}

	const q = `
		SELECT cmd.id, cmd.name, COALESCE(cmd.card_name, ''), COALESCE(cmd.card_id, 0), COALESCE(cmd.scryfall_id, '')
		FROM edhrec_commanders cmd
		ORDER BY cmd.id ASC
		LIMIT 1 OFFSET $1
	`
	offset := rand.IntN(count) //nolint:gosec // not security sensitive
	err = p.db.QueryRow(ctx, q, offset).Scan(&c.ID, &c.Slug, &c.CardName, &c.CardID, &c.ScryfallID)
	if err != nil {
		return model.Commander{}, notFound(err, "commander at offset %d", offset)
	}
	return c, nil
}

func (p *Postgres) queryCards(ctx context.Context, q string, args ...any) ([]model.Card, error) {
	rows, err := p.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var out []model.Card
	for rows.Next() {
		var row cardRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		out = append(out, row.card())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}
	return out, nil
}

func (p *Postgres) querySuggestions(ctx context.Context, op, q string, args ...any) (out []types.Suggestion, err error) {
	defer observe(op, time.Now(), &err)

	rows, err := p.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", op, err)
	}
	defer rows.Close()

	out = []types.Suggestion{}
	for rows.Next() {
		var (
			row      cardRow
			pct, syn *float64
			numDecks *int
		)
		if err = rows.Scan(append([]any{&pct, &numDecks, &syn}, row.targets()...)...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", op, err)
		}
		out = append(out, types.Suggestion{
			CardView:     types.NewCardView(row.card()),
			Percentage:   derefFloat(pct),
			NumDecks:     derefInt(numDecks),
			SynergyScore: derefFloat(syn),
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", op, err)
	}
	return out, nil
}

func observe(op string, start time.Time, err *error) {
	var e error
	if err != nil && *err != nil && !errors.Is(*err, ErrNotFound) {
		e = *err
	}
	metrics.RecordStoreQuery(op, float64(time.Since(start).Microseconds())/1000.0, e)
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("failed to query %s: %w", fmt.Sprintf(format, args...), err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
