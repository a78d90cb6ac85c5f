package typeline_test

import (
	"errors"
	"testing"

	"github.com/okian/cardcognition/internal/domain/typeline"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given the type line parser", t, func() {
		Convey("When parsing a legendary creature", func() {
			p, err := typeline.Parse("Legendary Creature — Human Wizard")

			Convey("Then super, card and sub types should be split", func() {
				So(err, ShouldBeNil)
				So(p.SuperTypes, ShouldResemble, []string{"Legendary"})
				So(p.CardTypes, ShouldResemble, []string{"Creature"})
				So(p.SubTypes, ShouldResemble, []string{"Human", "Wizard"})
			})
		})

		Convey("When parsing a basic land", func() {
			p, err := typeline.Parse("Basic Land — Forest")

			Convey("Then Basic should be a super-type", func() {
				So(err, ShouldBeNil)
				So(p.SuperTypes, ShouldResemble, []string{"Basic"})
				So(p.CardTypes, ShouldResemble, []string{"Land"})
				So(p.SubTypes, ShouldResemble, []string{"Forest"})
			})
		})

		Convey("When parsing a line without a dash", func() {
			p, err := typeline.Parse("Instant")

			Convey("Then sub-types should be empty", func() {
				So(err, ShouldBeNil)
				So(p.SuperTypes, ShouldBeEmpty)
				So(p.CardTypes, ShouldResemble, []string{"Instant"})
				So(p.SubTypes, ShouldBeEmpty)
			})
		})

		Convey("When parsing a multi-face line", func() {
			p, err := typeline.Parse("Creature — Human Werewolf // Creature — Werewolf")

			Convey("Then only the front face should count", func() {
				So(err, ShouldBeNil)
				So(p.CardTypes, ShouldResemble, []string{"Creature"})
				So(p.SubTypes, ShouldResemble, []string{"Human", "Werewolf"})
			})
		})

		Convey("When parsing multiple card types and repeated tokens", func() {
			p, err := typeline.Parse("Legendary Snow Artifact Creature — Golem Golem")

			Convey("Then duplicates should collapse in first-occurrence order", func() {
				So(err, ShouldBeNil)
				So(p.SuperTypes, ShouldResemble, []string{"Legendary", "Snow"})
				So(p.CardTypes, ShouldResemble, []string{"Artifact", "Creature"})
				So(p.SubTypes, ShouldResemble, []string{"Golem"})
				So(p.HasCardType("Artifact"), ShouldBeTrue)
				So(p.HasSuperType("Snow"), ShouldBeTrue)
				So(p.HasSubType("Human"), ShouldBeFalse)
			})
		})

		Convey("When parsing unusual but non-empty text", func() {
			for _, line := range []string{"—", "  Kindred  ", "Creature —", "— Elf", "Plane — Dominaria"} {
				_, err := typeline.Parse(line)
				So(err, ShouldBeNil)
			}
		})

		Convey("When parsing empty input", func() {
			_, err := typeline.Parse("")
			So(errors.Is(err, typeline.ErrMalformedTypeLine), ShouldBeTrue)

			_, err = typeline.Parse(" \t\n")
			So(errors.Is(err, typeline.ErrMalformedTypeLine), ShouldBeTrue)

			So(func() { typeline.MustParse("") }, ShouldPanic)
		})

		Convey("When parsing the same line twice", func() {
			a := typeline.MustParse("Legendary Enchantment Creature — God")
			b := typeline.MustParse("Legendary Enchantment Creature — God")

			Convey("Then results should be identical", func() {
				So(a, ShouldResemble, b)
			})
		})
	})
}
