package queue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/fanpulse/internal/adapters/mq/queue"
	model "github.com/okian/fanpulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func item(id string) queue.Item {
	return queue.Item{BatchID: "b1", Event: model.RawEvent{ID: id, Sport: "football"}}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity 2", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		So(q.Len(), ShouldEqual, 0)
		So(q.Cap(), ShouldEqual, 2)

		Convey("When two items are enqueued", func() {
			So(q.Enqueue(ctx, item("e1")), ShouldBeNil)
			So(q.Enqueue(ctx, item("e2")), ShouldBeNil)

			Convey("Then a third is refused with ErrFull", func() {
				err := q.Enqueue(ctx, item("e3"))
				So(errors.Is(err, queue.ErrFull), ShouldBeTrue)
				So(q.Len(), ShouldEqual, 2)
			})

			Convey("Then items come out in order", func() {
				So((<-q.Dequeue()).Event.ID, ShouldEqual, "e1")
				So((<-q.Dequeue()).Event.ID, ShouldEqual, "e2")
				So(q.Len(), ShouldEqual, 0)
			})

			Convey("Then closing keeps buffered items readable", func() {
				So(q.Close(), ShouldBeNil)
				So(q.IsClosed(), ShouldBeTrue)
				var ids []string
				for it := range q.Dequeue() {
					ids = append(ids, it.Event.ID)
				}
				So(ids, ShouldResemble, []string{"e1", "e2"})
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue fails with ErrClosed", func() {
				So(errors.Is(q.Enqueue(ctx, item("late")), queue.ErrClosed), ShouldBeTrue)
			})
		})
	})
}
