// Package features fuses color, text, numeric and categorical encodings
// into one fixed-length vector per card.
//
// Layout: colors(6) | text(E) | cmc(1) | card_types(|CT|) | sub_types(|ST|) | power(1) | toughness(1).
package features

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/cardcognition/internal/domain/color"
	"github.com/okian/cardcognition/internal/domain/model"
	"github.com/okian/cardcognition/internal/domain/taxonomy"
	"github.com/okian/cardcognition/internal/domain/typeline"
	"github.com/okian/cardcognition/pkg/logger"
	"github.com/okian/cardcognition/pkg/metrics"
)

// Unseen category kinds.
const (
	KindCardType = "card_type"
	KindSubType  = "sub_type"
)

// Embedder turns oracle text into a fixed-width vector. Identical input
// must produce identical output.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// UnseenObserver is told about categories the taxonomy has never seen.
type UnseenObserver interface {
	ObserveUnseen(card, kind string, values []string)
}

// Schema describes the vector layout a model was trained against.
type Schema struct {
	TaxonomyFingerprint string `json:"taxonomy_fingerprint"`
	EmbeddingDims       int    `json:"embedding_dims"`
	Dimensions          int    `json:"dimensions"`
	Version             string `json:"version"`
}

// Equal reports whether two schemas describe the same layout.
func (s Schema) Equal(o Schema) bool { return s == o }

func (s Schema) String() string {
	fp := s.TaxonomyFingerprint
	if len(fp) > 12 {
		fp = fp[:12]
	}
	return fmt.Sprintf("%s/tax=%s/E=%d/D=%d", s.Version, fp, s.EmbeddingDims, s.Dimensions)
}

// Extraction is the per-card outcome of Build. Err is an *ExtractionError
// when extraction failed; Vector is nil in that case.
type Extraction struct {
	Card   model.Card
	Vector []float64
	Parsed typeline.Parsed
	Unseen []string
	Err    error
}

// OK reports whether a vector was produced.
func (e Extraction) OK() bool { return e.Err == nil }

// Builder is read-only after construction and safe for concurrent use.
type Builder struct {
	tax      *taxonomy.Taxonomy
	embedder Embedder
	sentinel float64
	observer UnseenObserver
	log      logger.Logger
	schema   Schema
}

// NewBuilder creates a feature vector builder.
func NewBuilder(tax *taxonomy.Taxonomy, embedder Embedder, opts ...Option) *Builder {
	b := &Builder{
		tax:      tax,
		embedder: embedder,
		sentinel: DefaultStatSentinel,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	e := embedder.Dimensions()
	b.schema = Schema{
		TaxonomyFingerprint: tax.Fingerprint(),
		EmbeddingDims:       e,
		Dimensions:          color.Width + e + 1 + tax.CardTypeWidth() + tax.SubTypeWidth() + 2,
		Version:             SchemaVersion,
	}
	return b
}

// Schema returns the layout produced by this builder.
func (b *Builder) Schema() Schema { return b.schema }

// Build extracts the feature vector for card. Failures are confined to the
// returned Extraction.
func (b *Builder) Build(ctx context.Context, card model.Card) Extraction {
	start := time.Now()
	out := b.build(ctx, card)
	metrics.RecordExtractionLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	if out.Err != nil {
		metrics.RecordExtractionFailure(ReasonOf(out.Err))
	}
	return out
}

func (b *Builder) build(ctx context.Context, card model.Card) Extraction {
	out := Extraction{Card: card}
	fail := func(reason string, err error) Extraction {
		out.Vector = nil
		out.Err = &ExtractionError{Card: card.Name, Reason: reason, Err: err}
		return out
	}

	colors := color.Encode(card.Colors)

	if !card.HasOracleText() {
		return fail(ReasonMissingOracleText, ErrMissingOracleText)
	}
	emb, err := b.embedder.Embed(ctx, *card.OracleText)
	if err != nil {
		return fail(ReasonEmbeddingFailed, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err))
	}
	if len(emb) != b.schema.EmbeddingDims {
		return fail(ReasonEmbeddingWidth,
			fmt.Errorf("%w: got %d, want %d", ErrEmbeddingWidth, len(emb), b.schema.EmbeddingDims))
	}

	parsed, err := typeline.Parse(card.TypeLine)
	if err != nil {
		return fail(ReasonMalformedTypeLine, fmt.Errorf("%w: %w", ErrMalformedTypeLine, err))
	}
	out.Parsed = parsed
	cardTypes, unseenCT := b.tax.EncodeCardTypes(parsed.CardTypes)
	subTypes, unseenST := b.tax.EncodeSubTypes(parsed.SubTypes)
	b.reportUnseen(ctx, card.Name, KindCardType, unseenCT)
	b.reportUnseen(ctx, card.Name, KindSubType, unseenST)
	out.Unseen = append(append([]string{}, unseenCT...), unseenST...)

	if math.IsNaN(card.CMC) || math.IsInf(card.CMC, 0) || card.CMC < 0 {
		return fail(ReasonInvalidManaValue, fmt.Errorf("%w: %v", ErrInvalidManaValue, card.CMC))
	}

	vec := make([]float64, 0, b.schema.Dimensions)
	vec = append(vec, colors[:]...)
	for _, f := range emb {
		vec = append(vec, float64(f))
	}
	vec = append(vec, card.CMC)
	vec = append(vec, cardTypes...)
	vec = append(vec, subTypes...)
	vec = append(vec, b.stat(card.Power), b.stat(card.Toughness))

	if len(vec) != b.schema.Dimensions {
		b.log.Error(ctx, "feature vector dimension invariant violated",
			logger.String("card", card.Name),
			logger.Int("got", len(vec)),
			logger.Int("want", b.schema.Dimensions))
		return fail(ReasonDimensionInvariant,
			fmt.Errorf("%w: got %d, want %d", ErrDimensionInvariant, len(vec), b.schema.Dimensions))
	}
	out.Vector = vec
	return out
}

func (b *Builder) reportUnseen(ctx context.Context, card, kind string, values []string) {
	if len(values) == 0 {
		return
	}
	for range values {
		metrics.RecordUnseenCategory(kind)
	}
	b.log.Debug(ctx, "unseen category",
		logger.String("card", card),
		logger.String("kind", kind),
		logger.Strings("values", values))
	if b.observer != nil {
		b.observer.ObserveUnseen(card, kind, values)
	}
}

// stat reads a power or toughness value; "*", "1+*", "X" and absent values
// become the sentinel.
func (b *Builder) stat(v *string) float64 {
	if v == nil {
		return b.sentinel
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return b.sentinel
	}
	return f
}
