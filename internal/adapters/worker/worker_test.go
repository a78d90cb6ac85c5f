package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/cardcognition/internal/adapters/worker"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPool(t *testing.T) {
	Convey("Given a started pool of four workers", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p := worker.NewPool(4)
		p.Start(ctx)
		defer func() { _ = p.Shutdown(context.Background()) }()

		So(p.Size(), ShouldEqual, 4)

		Convey("When running indexed jobs", func() {
			out := make([]int, 100)
			err := p.Run(ctx, len(out), func(_ context.Context, i int) {
				out[i] = i * i
			})

			Convey("Then every result should land at its index", func() {
				So(err, ShouldBeNil)
				for i, v := range out {
					So(v, ShouldEqual, i*i)
				}
			})
		})

		Convey("When jobs run concurrently", func() {
			var inFlight, peak atomic.Int64
			err := p.Run(ctx, 8, func(_ context.Context, _ int) {
				n := inFlight.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				inFlight.Add(-1)
			})

			Convey("Then more than one should overlap but never more than the pool size", func() {
				So(err, ShouldBeNil)
				So(peak.Load(), ShouldBeGreaterThan, 1)
				So(peak.Load(), ShouldBeLessThanOrEqualTo, 4)
			})
		})

		Convey("When a job panics", func() {
			out := make([]bool, 3)
			err := p.Run(ctx, 3, func(_ context.Context, i int) {
				if i == 1 {
					panic("boom")
				}
				out[i] = true
			})

			Convey("Then the other jobs should still complete", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []bool{true, false, true})
			})

			Convey("And the pool should keep working", func() {
				var ran atomic.Int64
				So(p.Run(ctx, 10, func(context.Context, int) { ran.Add(1) }), ShouldBeNil)
				So(ran.Load(), ShouldEqual, 10)
			})
		})

		Convey("When running zero jobs", func() {
			So(p.Run(ctx, 0, func(context.Context, int) {}), ShouldBeNil)
		})
	})
}

func TestPoolShutdown(t *testing.T) {
	Convey("Given a pool that has been shut down", t, func() {
		p := worker.NewPool(2)
		p.Start(context.Background())
		So(p.Shutdown(context.Background()), ShouldBeNil)

		Convey("When submitting work", func() {
			err := p.Run(context.Background(), 1, func(context.Context, int) {})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, worker.ErrPoolClosed), ShouldBeTrue)
			})
		})

		Convey("When shutting down twice", func() {
			So(p.Shutdown(context.Background()), ShouldBeNil)
		})
	})

	Convey("Given a pool that was never started", t, func() {
		p := worker.NewPool(1)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		Convey("When the caller's context expires before a worker accepts", func() {
			err := p.Run(ctx, 1, func(context.Context, int) {})

			Convey("Then the context error should be returned", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})

	Convey("Given a default-sized pool", t, func() {
		So(worker.NewPool(0).Size(), ShouldBeGreaterThan, 0)
	})
}
