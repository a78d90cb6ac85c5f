package taxonomy_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/okian/cardcognition/internal/domain/model"
	"github.com/okian/cardcognition/internal/domain/taxonomy"
	. "github.com/smartystreets/goconvey/convey"
)

func catalog() []model.Card {
	return []model.Card{
		{ID: 1, Name: "Atraxa, Praetors' Voice", TypeLine: "Legendary Creature — Phyrexian Angel Horror"},
		{ID: 2, Name: "Sol Ring", TypeLine: "Artifact"},
		{ID: 3, Name: "Cyclonic Rift", TypeLine: "Instant"},
		{ID: 4, Name: "Forest", TypeLine: "Basic Land — Forest"},
		{ID: 5, Name: "Broken", TypeLine: "   "},
		{ID: 6, Name: "Steel Overseer", TypeLine: "Artifact Creature — Construct"},
	}
}

func TestFit(t *testing.T) {
	Convey("Given a legal card catalog", t, func() {
		tax := taxonomy.Fit(catalog())

		Convey("Then vocabularies should be sorted and de-duplicated", func() {
			So(tax.CardTypes(), ShouldResemble, []string{"Artifact", "Creature", "Instant", "Land"})
			So(tax.SubTypes(), ShouldResemble, []string{"Angel", "Construct", "Forest", "Horror", "Phyrexian"})
			So(tax.CardTypeWidth(), ShouldEqual, 4)
			So(tax.SubTypeWidth(), ShouldEqual, 5)
		})

		Convey("Then malformed type lines should be skipped and counted", func() {
			So(tax.Skipped(), ShouldEqual, 1)
		})

		Convey("Then fitting the catalog in another order should give the same fingerprint", func() {
			cards := catalog()
			for i, j := 0, len(cards)-1; i < j; i, j = i+1, j-1 {
				cards[i], cards[j] = cards[j], cards[i]
			}
			So(taxonomy.Fit(cards).Fingerprint(), ShouldEqual, tax.Fingerprint())
		})

		Convey("Then a different version should change the fingerprint", func() {
			So(taxonomy.Fit(catalog(), taxonomy.WithVersion("v2")).Fingerprint(), ShouldNotEqual, tax.Fingerprint())
			So(tax.Version(), ShouldEqual, taxonomy.DefaultVersion)
		})

		Convey("Then accessor slices should be copies", func() {
			ct := tax.CardTypes()
			ct[0] = "Mutated"
			So(tax.CardTypes()[0], ShouldEqual, "Artifact")
		})
	})
}

func TestEncoders(t *testing.T) {
	Convey("Given a fitted taxonomy", t, func() {
		tax := taxonomy.Fit(catalog())

		Convey("When encoding a single known card-type", func() {
			v, ok := tax.EncodeCardType("Instant")
			So(ok, ShouldBeTrue)
			So(v, ShouldResemble, []float64{0, 0, 1, 0})
		})

		Convey("When encoding an unseen card-type", func() {
			v, ok := tax.EncodeCardType("Battle")
			So(ok, ShouldBeFalse)
			So(v, ShouldResemble, []float64{0, 0, 0, 0})
		})

		Convey("When encoding several card-types", func() {
			v, unseen := tax.EncodeCardTypes([]string{"Artifact", "Creature", "Artifact", "Battle"})
			So(v, ShouldResemble, []float64{1, 1, 0, 0})
			So(unseen, ShouldResemble, []string{"Battle"})
		})

		Convey("When encoding sub-types", func() {
			v, unseen := tax.EncodeSubTypes([]string{"Phyrexian", "Angel", "Angel"})

			Convey("Then duplicates should be removed before summing", func() {
				So(v, ShouldResemble, []float64{1, 0, 0, 0, 1})
				So(unseen, ShouldBeEmpty)
			})
		})

		Convey("When encoding an unseen sub-type", func() {
			v, unseen := tax.EncodeSubTypes([]string{"Wizard"})

			Convey("Then the width should hold and the value should be reported", func() {
				So(len(v), ShouldEqual, tax.SubTypeWidth())
				So(v, ShouldResemble, []float64{0, 0, 0, 0, 0})
				So(unseen, ShouldResemble, []string{"Wizard"})
			})
		})
	})
}

func TestPersistence(t *testing.T) {
	Convey("Given a saved taxonomy", t, func() {
		tax := taxonomy.Fit(catalog())
		var buf bytes.Buffer
		So(tax.Save(&buf), ShouldBeNil)

		Convey("When loading it back", func() {
			loaded, err := taxonomy.Load(bytes.NewReader(buf.Bytes()))

			Convey("Then it should be equivalent", func() {
				So(err, ShouldBeNil)
				So(loaded.Fingerprint(), ShouldEqual, tax.Fingerprint())
				So(loaded.CardTypes(), ShouldResemble, tax.CardTypes())
				So(loaded.SubTypes(), ShouldResemble, tax.SubTypes())
				So(loaded.Skipped(), ShouldEqual, 1)
			})
		})

		Convey("When the vocabulary was edited by hand", func() {
			tampered := strings.Replace(buf.String(), `"Horror"`, `"Zombie"`, 1)
			_, err := taxonomy.Load(strings.NewReader(tampered))

			Convey("Then the fingerprint check should fail", func() {
				So(errors.Is(err, taxonomy.ErrFingerprintMismatch), ShouldBeTrue)
			})
		})

		Convey("When the document is not JSON", func() {
			_, err := taxonomy.Load(strings.NewReader("not json"))
			So(errors.Is(err, taxonomy.ErrDecode), ShouldBeTrue)
		})
	})
}
