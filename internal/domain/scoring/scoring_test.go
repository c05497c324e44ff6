package scoring_test

import (
	"fmt"
	"testing"
	"time"

	model "github.com/okian/fanpulse/internal/domain/model"
	scoring "github.com/okian/fanpulse/internal/domain/scoring"
	"github.com/okian/fanpulse/internal/domain/timemodel"
	. "github.com/smartystreets/goconvey/convey"
)

var anchor = &model.Location{Lat: 51.5549, Lng: -0.1084}

// fixtures builds n football events on date, kicking off every step from
// firstHour.
func fixtures(date string, n, firstHour int, step time.Duration) []model.RawEvent {
	out := make([]model.RawEvent, 0, n)
	base, _ := time.Parse("2006-01-02T15:04", fmt.Sprintf("%sT%02d:00", date, firstHour))
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(i) * step)
		out = append(out, model.RawEvent{
			ID:    fmt.Sprintf("%s-%d", date, i),
			Sport: "football",
			Date:  at.Format("2006-01-02T15:04:05"),
		})
	}
	return out
}

func TestScore(t *testing.T) {
	Convey("Given a risk scorer in Europe/London", t, func() {
		loc, err := time.LoadLocation("Europe/London")
		So(err, ShouldBeNil)
		scorer := scoring.NewScorer(timemodel.NewResolver(timemodel.WithLocation(loc)))

		Convey("When there is no anchor", func() {
			r := scorer.Score(nil, "2026-02-14", nil)

			Convey("Then every field is zero", func() {
				So(r.PeakConcurrent, ShouldEqual, 0)
				So(r.Percentile, ShouldEqual, 0)
				So(r.BaseScore, ShouldEqual, 0)
				So(r.SpatialOverlap, ShouldEqual, 0)
				So(r.TimeOverlap, ShouldEqual, 0)
				So(r.FinalScore, ShouldEqual, 0)
				So(r.History, ShouldBeEmpty)
				So(r.IsZero(), ShouldBeTrue)
			})

			Convey("And events are ignored too", func() {
				r := scorer.Score(fixtures("2026-02-14", 5, 12, time.Hour), "2026-02-14", nil)
				So(r.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When the target day is the busiest in the history", func() {
			var events []model.RawEvent
			events = append(events, fixtures("2026-02-11", 2, 12, 3*time.Hour)...)
			events = append(events, fixtures("2026-02-12", 3, 12, 3*time.Hour)...)
			events = append(events, fixtures("2026-02-13", 4, 12, 3*time.Hour)...)
			events = append(events, fixtures("2026-02-14", 20, 10, 30*time.Minute)...)
			r := scorer.Score(events, "2026-02-14", anchor)

			Convey("Then the percentile is 100 and the base score 70", func() {
				So(r.History, ShouldResemble, []int{2, 3, 4, 20})
				So(r.PeakConcurrent, ShouldEqual, 20)
				So(r.Percentile, ShouldEqual, 100)
				So(r.BaseScore, ShouldEqual, 70)
				So(r.SpatialOverlap, ShouldEqual, 20)
				So(r.FinalScore, ShouldEqual, 100)
			})
		})

		Convey("When ties with the target are present", func() {
			var events []model.RawEvent
			events = append(events, fixtures("2026-02-12", 1, 12, 0)...)
			events = append(events, fixtures("2026-02-13", 2, 12, 4*time.Hour)...)
			events = append(events, fixtures("2026-02-14", 2, 12, 4*time.Hour)...)
			r := scorer.Score(events, "2026-02-14", anchor)

			Convey("Then only strictly smaller days count as below", func() {
				So(r.Percentile, ShouldEqual, 50)
				So(r.BaseScore, ShouldEqual, 35)
				So(r.TimeOverlap, ShouldEqual, 0)
				So(r.FinalScore, ShouldEqual, 35+2*4)
			})
		})

		Convey("When kickoffs cluster", func() {
			// 12:00, 13:00, 14:00, 17:00: pairs within two hours are
			// (12,13) (12,14) (13,14).
			events := fixtures("2026-02-14", 3, 12, time.Hour)
			events = append(events, model.RawEvent{ID: "late", Sport: "football", Date: "2026-02-14T17:00:00"})
			r := scorer.Score(events, "2026-02-14", anchor)

			Convey("Then pairs within the window are counted with inclusive bounds", func() {
				So(r.TimeOverlap, ShouldEqual, 3)
				So(r.Percentile, ShouldEqual, 0)
				So(r.FinalScore, ShouldEqual, 4*4+3*6)
			})

			Convey("And a narrower window counts fewer pairs", func() {
				narrow := scoring.NewScorer(
					timemodel.NewResolver(timemodel.WithLocation(loc)),
					scoring.WithOverlapWindow(time.Hour),
				)
				So(narrow.Score(events, "2026-02-14", anchor).TimeOverlap, ShouldEqual, 2)
			})
		})

		Convey("When some events are date-only or unparsable", func() {
			events := fixtures("2026-02-14", 2, 15, 30*time.Minute)
			events = append(events,
				model.RawEvent{ID: "d", Sport: "tennis", Date: "2026-02-14"},
				model.RawEvent{ID: "x", Sport: "tennis", Date: "soon"},
			)
			r := scorer.Score(events, "2026-02-14", anchor)

			Convey("Then date-only events count for the day but not for time overlap", func() {
				So(r.PeakConcurrent, ShouldEqual, 3)
				So(r.TimeOverlap, ShouldEqual, 1)
				So(r.History, ShouldResemble, []int{3})
			})
		})

		Convey("When the target date has no events", func() {
			r := scorer.Score(fixtures("2026-02-13", 3, 12, time.Hour), "2026-02-14", anchor)

			Convey("Then the score is zero but history is reported", func() {
				So(r.PeakConcurrent, ShouldEqual, 0)
				So(r.Percentile, ShouldEqual, 0)
				So(r.FinalScore, ShouldEqual, 0)
				So(r.History, ShouldResemble, []int{3})
			})
		})
	})
}
