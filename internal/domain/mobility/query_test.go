package mobility_test

import (
	"strings"
	"testing"

	model "github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/internal/domain/mobility"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRangeImpact(t *testing.T) {
	Convey("Given a hand-built curve", t, func() {
		buckets := []mobility.Bucket{
			{MinuteOfDay: 540, Value: 1},
			{MinuteOfDay: 600, Value: 3},
			{MinuteOfDay: 660, Value: 3},
			{MinuteOfDay: 720, Value: 2},
		}

		Convey("When the range covers everything", func() {
			r := mobility.RangeImpact(buckets, 9, 12)

			Convey("Then the total sums and the earliest peak wins", func() {
				So(r.TotalImpact, ShouldEqual, 9)
				So(r.PeakMinute, ShouldNotBeNil)
				So(*r.PeakMinute, ShouldEqual, 600)
				So(r.PeakValue, ShouldEqual, 3)
			})
		})

		Convey("When the range ends mid-hour", func() {
			r := mobility.RangeImpact(buckets, 11, 11)

			Convey("Then the end hour is inclusive to :59", func() {
				So(r.TotalImpact, ShouldEqual, 3)
				So(*r.PeakMinute, ShouldEqual, 660)
			})
		})

		Convey("When the range contains no buckets", func() {
			r := mobility.RangeImpact(buckets, 18, 20)

			Convey("Then the result is zeroed with a nil peak", func() {
				So(r.TotalImpact, ShouldEqual, 0)
				So(r.PeakMinute, ShouldBeNil)
				So(r.PeakValue, ShouldEqual, 0)
			})
		})

		Convey("When all values are zero", func() {
			r := mobility.RangeImpact([]mobility.Bucket{{MinuteOfDay: 540}, {MinuteOfDay: 550}}, 9, 9)

			Convey("Then the first bucket is the peak", func() {
				So(*r.PeakMinute, ShouldEqual, 540)
				So(r.PeakValue, ShouldEqual, 0)
			})
		})
	})
}

func TestExplain(t *testing.T) {
	Convey("Given an engine and a busy afternoon", t, func() {
		engine := newEngine()
		events := []model.RawEvent{
			{ID: "fx-1", Sport: "football", Title: "Arsenal v Spurs", Date: "2026-02-14T15:00:00"},
			{ID: "fx-2", Sport: "rugby", Title: "Quins v Saints", Date: "2026-02-14T15:00:00"},
			{ID: "h1", Sport: "horse-racing", Title: "Kempton", SessionTime: "Afternoon", Date: "2026-02-14"},
			{ID: "fx-3", Sport: "football", Title: "Chelsea v Fulham", Date: "2026-02-14T15:00:00"},
			{ID: "b1", Sport: "basketball", Title: "Lions v Riders", Date: "2026-02-14T19:30:00"},
		}

		Convey("When asking about 14:30", func() {
			reasons := engine.Explain(events, 14*60+30)

			Convey("Then at most three reasons are returned in input order", func() {
				So(len(reasons), ShouldEqual, 3)
				So(reasons[0], ShouldStartWith, "Arsenal v Spurs: football arrivals 13:30-15:00")
				So(reasons[1], ShouldStartWith, "Quins v Saints: rugby arrivals")
				So(reasons[2], ShouldContainSubstring, "Kempton: horse-racing day window 11:00-19:00")
			})
		})

		Convey("When asking about 20:00", func() {
			reasons := engine.Explain(events, 20*60)

			Convey("Then only the covering event is named", func() {
				So(len(reasons), ShouldEqual, 1)
				So(strings.HasPrefix(reasons[0], "Lions v Riders: basketball in-play"), ShouldBeTrue)
			})
		})

		Convey("When a block-profile meeting has no date", func() {
			undated := []model.RawEvent{
				{ID: "h2", Sport: "horse-racing", Title: "Lingfield", SessionTime: "Afternoon"},
				{ID: "c1", Sport: "cricket", Title: "Surrey v Kent", Date: "garbage"},
			}
			reasons := engine.Explain(undated, 14*60+30)

			Convey("Then it is not named", func() {
				So(len(reasons), ShouldEqual, 0)
			})
		})

		Convey("When nothing covers the minute", func() {
			reasons := engine.Explain(events, 6*60)

			Convey("Then the list is empty, not nil", func() {
				So(reasons, ShouldNotBeNil)
				So(len(reasons), ShouldEqual, 0)
			})
		})
	})
}
