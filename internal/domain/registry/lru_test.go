package registry

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type constPredictor float64

func (c constPredictor) Predict([]float64) (float64, error) { return float64(c), nil }

func TestLRUGeneration(t *testing.T) {
	Convey("Given an lru and a generation read before a removal", t, func() {
		c := newLRU(2)
		gen := c.generation()

		Convey("When a key is removed before the add", func() {
			c.remove("atraxa")
			n, ok := c.add("atraxa", constPredictor(1), gen)

			Convey("Then the stale add should be refused", func() {
				So(ok, ShouldBeFalse)
				So(n, ShouldEqual, 0)
				_, found := c.get("atraxa")
				So(found, ShouldBeFalse)
			})

			Convey("And an add at the new generation should succeed", func() {
				n, ok := c.add("atraxa", constPredictor(1), c.generation())
				So(ok, ShouldBeTrue)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When the cache is purged before the add", func() {
			c.purge()
			_, ok := c.add("kenrith", constPredictor(2), gen)
			So(ok, ShouldBeFalse)
			So(c.size(), ShouldEqual, 0)
		})

		Convey("When nothing is removed", func() {
			_, ok := c.add("atraxa", constPredictor(1), gen)
			So(ok, ShouldBeTrue)
			_, ok = c.add("kenrith", constPredictor(2), gen)
			So(ok, ShouldBeTrue)
			n, ok := c.add("edgar", constPredictor(3), gen)

			Convey("Then capacity should still evict the oldest entry", func() {
				So(ok, ShouldBeTrue)
				So(n, ShouldEqual, 2)
				_, found := c.get("atraxa")
				So(found, ShouldBeFalse)
			})
		})
	})
}
