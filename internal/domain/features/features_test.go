package features_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/okian/cardcognition/internal/domain/features"
	"github.com/okian/cardcognition/internal/domain/model"
	"github.com/okian/cardcognition/internal/domain/taxonomy"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeEmbedder struct {
	dims  int
	width int // returned width; 0 means dims
	err   error

	mu    sync.Mutex
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	w := f.width
	if w == 0 {
		w = f.dims
	}
	v := make([]float32, w)
	for i := range v {
		v[i] = float32(len(text)%7) / 10
	}
	return v, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }

type recordingObserver struct {
	mu   sync.Mutex
	seen map[string][]string
}

func (r *recordingObserver) ObserveUnseen(card, kind string, values []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[kind] = append(r.seen[kind], values...)
}

func fixtureTaxonomy() *taxonomy.Taxonomy {
	return taxonomy.Fit([]model.Card{
		{TypeLine: "Legendary Creature — Human Wizard"},
		{TypeLine: "Artifact"},
		{TypeLine: "Instant"},
		{TypeLine: "Basic Land — Forest"},
	})
}

func TestBuilderSchema(t *testing.T) {
	Convey("Given a builder over a fitted taxonomy", t, func() {
		tax := fixtureTaxonomy()
		b := features.NewBuilder(tax, &fakeEmbedder{dims: 8})

		Convey("Then D should follow the layout formula", func() {
			s := b.Schema()
			So(s.EmbeddingDims, ShouldEqual, 8)
			So(s.Dimensions, ShouldEqual, 6+8+1+tax.CardTypeWidth()+tax.SubTypeWidth()+2)
			So(s.TaxonomyFingerprint, ShouldEqual, tax.Fingerprint())
			So(s.Version, ShouldEqual, features.SchemaVersion)
			So(s.Equal(b.Schema()), ShouldBeTrue)
			So(s.String(), ShouldContainSubstring, "E=8")
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given a builder with an 8-wide embedder", t, func() {
		tax := fixtureTaxonomy()
		emb := &fakeEmbedder{dims: 8}
		obs := &recordingObserver{seen: map[string][]string{}}
		b := features.NewBuilder(tax, emb, features.WithUnseenObserver(obs))
		ctx := context.Background()
		d := b.Schema().Dimensions

		Convey("When building a complete creature", func() {
			card := model.Card{
				Name:       "Snapcaster Mage",
				OracleText: model.Str("Flash"),
				CMC:        2,
				TypeLine:   "Creature — Human Wizard",
				Colors:     []model.ColorSymbol{model.Blue},
				Power:      model.Str("2"),
				Toughness:  model.Str("1"),
			}
			ex := b.Build(ctx, card)

			Convey("Then the vector should have D entries in layout order", func() {
				So(ex.Err, ShouldBeNil)
				So(ex.OK(), ShouldBeTrue)
				So(len(ex.Vector), ShouldEqual, d)
				So(ex.Vector[:6], ShouldResemble, []float64{0, 1, 0, 0, 0, 0})
				So(ex.Vector[6+8], ShouldEqual, 2) // cmc
				So(ex.Vector[d-2], ShouldEqual, 2)
				So(ex.Vector[d-1], ShouldEqual, 1)
				So(ex.Parsed.CardTypes, ShouldResemble, []string{"Creature"})
				So(ex.Unseen, ShouldBeEmpty)
			})
		})

		Convey("When power and toughness are absent or variable", func() {
			for _, pt := range []*string{nil, model.Str("*"), model.Str("1+*"), model.Str("X"), model.Str("NaN")} {
				ex := b.Build(ctx, model.Card{
					Name: "Tarmogoyf", OracleText: model.Str("text"), TypeLine: "Creature", CMC: 2,
					Power: pt, Toughness: pt,
				})
				So(ex.Err, ShouldBeNil)
				So(len(ex.Vector), ShouldEqual, d)
				So(ex.Vector[d-2], ShouldEqual, features.DefaultStatSentinel)
				So(ex.Vector[d-1], ShouldEqual, features.DefaultStatSentinel)
			}
		})

		Convey("When a custom sentinel is configured", func() {
			b2 := features.NewBuilder(tax, emb, features.WithStatSentinel(-1))
			ex := b2.Build(ctx, model.Card{Name: "Sol Ring", OracleText: model.Str("{T}: Add {C}{C}."), TypeLine: "Artifact", CMC: 1})
			So(ex.Vector[len(ex.Vector)-1], ShouldEqual, -1)
		})

		Convey("When a colorless card has no stats", func() {
			ex := b.Build(ctx, model.Card{Name: "Sol Ring", OracleText: model.Str("{T}: Add {C}{C}."), TypeLine: "Artifact", CMC: 1})
			So(ex.Err, ShouldBeNil)
			So(len(ex.Vector), ShouldEqual, d)
			So(ex.Vector[5], ShouldEqual, 1)
		})

		Convey("When the card has unseen categories", func() {
			ex := b.Build(ctx, model.Card{
				Name: "Gnome Soldier", OracleText: model.Str("text"), TypeLine: "Battle Creature — Gnome Human", CMC: 3,
			})

			Convey("Then it should not fail and should report the values", func() {
				So(ex.Err, ShouldBeNil)
				So(len(ex.Vector), ShouldEqual, d)
				So(ex.Unseen, ShouldResemble, []string{"Battle", "Gnome"})
				So(obs.seen[features.KindCardType], ShouldResemble, []string{"Battle"})
				So(obs.seen[features.KindSubType], ShouldResemble, []string{"Gnome"})
			})
		})

		Convey("When oracle text is missing", func() {
			calls := emb.calls
			ex := b.Build(ctx, model.Card{Name: "Vanilla", TypeLine: "Creature", CMC: 1})

			Convey("Then it should fail without calling the embedder", func() {
				So(errors.Is(ex.Err, features.ErrMissingOracleText), ShouldBeTrue)
				So(features.ReasonOf(ex.Err), ShouldEqual, features.ReasonMissingOracleText)
				So(ex.Vector, ShouldBeNil)
				So(emb.calls, ShouldEqual, calls)
			})
		})

		Convey("When the embedder fails", func() {
			bad := features.NewBuilder(tax, &fakeEmbedder{dims: 8, err: errors.New("timeout")})
			ex := bad.Build(ctx, model.Card{Name: "Rift", OracleText: model.Str("text"), TypeLine: "Instant", CMC: 2})
			So(errors.Is(ex.Err, features.ErrEmbeddingFailed), ShouldBeTrue)
			So(ex.Err.Error(), ShouldContainSubstring, "timeout")
		})

		Convey("When the embedder returns the wrong width", func() {
			bad := features.NewBuilder(tax, &fakeEmbedder{dims: 8, width: 3})
			ex := bad.Build(ctx, model.Card{Name: "Rift", OracleText: model.Str("text"), TypeLine: "Instant", CMC: 2})
			So(errors.Is(ex.Err, features.ErrEmbeddingWidth), ShouldBeTrue)
		})

		Convey("When the type line is blank", func() {
			ex := b.Build(ctx, model.Card{Name: "Blank", OracleText: model.Str("text"), TypeLine: " ", CMC: 2})
			So(errors.Is(ex.Err, features.ErrMalformedTypeLine), ShouldBeTrue)
		})

		Convey("When the mana value is invalid", func() {
			for _, cmc := range []float64{-1, math.NaN(), math.Inf(1)} {
				ex := b.Build(ctx, model.Card{Name: "Weird", OracleText: model.Str("text"), TypeLine: "Instant", CMC: cmc})
				So(errors.Is(ex.Err, features.ErrInvalidManaValue), ShouldBeTrue)
				So(features.ReasonOf(ex.Err), ShouldEqual, features.ReasonInvalidManaValue)
			}
		})

		Convey("When a non-extraction error is inspected", func() {
			So(features.ReasonOf(errors.New("other")), ShouldEqual, "")
		})
	})
}
