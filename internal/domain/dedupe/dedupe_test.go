package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/leadscore/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDeduper(t *testing.T) {
	Convey("Given an in-memory deduper", t, func() {
		ctx := context.Background()

		Convey("When a delivery ID arrives for the first time", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should be newly recorded", func() {
				So(d.SeenAndRecord(ctx, "delivery-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same delivery is redelivered", func() {
			d := dedupe.NewInMemoryDeduper()
			So(d.SeenAndRecord(ctx, "delivery-1"), ShouldBeFalse)

			Convey("Then it should be reported as seen", func() {
				So(d.SeenAndRecord(ctx, "delivery-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a recorded delivery is unrecorded", func() {
			d := dedupe.NewInMemoryDeduper()
			So(d.SeenAndRecord(ctx, "delivery-1"), ShouldBeFalse)
			d.Unrecord(ctx, "delivery-1")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "delivery-1"), ShouldBeFalse)
			})
		})

		Convey("When the bound is exceeded", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for i := 0; i < 4; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("delivery-%d", i)), ShouldBeFalse)
			}

			Convey("Then the oldest entry should have been evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "delivery-0"), ShouldBeFalse) // forgotten
				So(d.SeenAndRecord(ctx, "delivery-3"), ShouldBeTrue)  // still remembered
			})
		})

		Convey("When many goroutines record concurrently", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < 100; i++ {
						d.SeenAndRecord(ctx, fmt.Sprintf("g%d-i%d", g, i))
					}
				}(g)
			}
			wg.Wait()

			Convey("Then every distinct ID should be counted once", func() {
				So(d.Size(), ShouldEqual, 800)
			})
		})
	})
}
