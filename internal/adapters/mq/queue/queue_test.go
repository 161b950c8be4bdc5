package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/leadscore/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given an in-memory write-back queue", t, func() {
		ctx := context.Background()

		Convey("When enqueuing within capacity", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(2))
			defer func() { _ = q.Close() }()

			Convey("Then jobs should be accepted", func() {
				So(q.Enqueue(ctx, queue.Job{DealID: 1, Probability: 0.5}), ShouldBeTrue)
				So(q.Enqueue(ctx, queue.Job{DealID: 2, Probability: 0.9}), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the queue is full", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(1))
			defer func() { _ = q.Close() }()
			So(q.Enqueue(ctx, queue.Job{DealID: 1}), ShouldBeTrue)

			Convey("Then further jobs should be dropped, not block", func() {
				So(q.Enqueue(ctx, queue.Job{DealID: 2}), ShouldBeFalse)
			})
		})

		Convey("When dequeuing", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))
			So(q.Enqueue(ctx, queue.Job{DealID: 7, Probability: 0.42, DeliveryID: "d-1"}), ShouldBeTrue)

			Convey("Then the job should round-trip intact", func() {
				select {
				case j := <-q.Dequeue(ctx):
					So(j.DealID, ShouldEqual, 7)
					So(j.Probability, ShouldEqual, 0.42)
					So(j.DeliveryID, ShouldEqual, "d-1")
				case <-time.After(time.Second):
					t.Fatal("timed out waiting for job")
				}
				_ = q.Close()
			})
		})

		Convey("Given queue error constants", func() {
			Convey("Then ErrClosed should be defined", func() {
				So(queue.ErrClosed, ShouldNotBeNil)
				So(queue.ErrClosed.Error(), ShouldEqual, "queue closed")
			})
		})

		Convey("When the queue is closed", func() {
			q := queue.NewInMemoryQueue()
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue should be rejected", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, queue.Job{DealID: 1}), ShouldBeFalse)
			})

			Convey("And closing again should report the closed state", func() {
				So(q.Close(), ShouldWrap, queue.ErrClosed)
			})

			Convey("And the dequeue channel should drain and close", func() {
				ch := q.Dequeue(ctx)
				select {
				case _, open := <-ch:
					So(open, ShouldBeFalse)
				case <-time.After(time.Second):
					t.Fatal("timed out waiting for channel close")
				}
			})
		})
	})
}
