package timemodel_test

import (
	"testing"
	"time"

	model "github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/internal/domain/timemodel"
	. "github.com/smartystreets/goconvey/convey"
)

func london() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		panic(err)
	}
	return loc
}

func at(loc *time.Location, y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, loc)
}

func TestResolver_Fixed(t *testing.T) {
	Convey("Given a resolver in Europe/London", t, func() {
		loc := london()
		r := timemodel.NewResolver(timemodel.WithLocation(loc))

		Convey("When a football match has a zoneless kickoff", func() {
			m := r.Resolve(model.RawEvent{ID: "fx-1", Sport: "football", Date: "2026-02-14T15:00:00"})

			Convey("Then it resolves to a fixed 2.5h model", func() {
				So(m, ShouldNotBeNil)
				So(m.Kind, ShouldEqual, timemodel.KindFixed)
				So(m.Start.Equal(at(loc, 2026, 2, 14, 15, 0)), ShouldBeTrue)
				So(m.Duration, ShouldEqual, 150*time.Minute)
				So(m.End.Equal(at(loc, 2026, 2, 14, 17, 30)), ShouldBeTrue)
				So(m.DurationMs(), ShouldEqual, int64(150*60*1000))
				So(m.TimeKnown, ShouldBeTrue)
			})
		})

		Convey("When the timestamp uses a space separator", func() {
			m := r.Resolve(model.RawEvent{ID: "fx-2", Sport: "rugby", UTCDate: "2026-02-14 15:00:00"})

			Convey("Then the space is treated as the date/time separator", func() {
				So(m, ShouldNotBeNil)
				So(m.Start.Equal(at(loc, 2026, 2, 14, 15, 0)), ShouldBeTrue)
			})
		})

		Convey("When the timestamp carries a zone", func() {
			m := r.Resolve(model.RawEvent{ID: "fx-3", Sport: "basketball", UTCDate: "2026-07-01T18:00:00Z"})

			Convey("Then the instant is preserved", func() {
				So(m, ShouldNotBeNil)
				So(m.Start.Equal(time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(m.Duration, ShouldEqual, 2*time.Hour)
			})
		})

		Convey("When several start fields are present", func() {
			m := r.Resolve(model.RawEvent{
				ID: "fx-4", Sport: "tennis",
				Date:      "not a date",
				UTCDate:   "2026-06-30T12:00:00Z",
				StartDate: "2026-06-29T10:00:00Z",
			})

			Convey("Then the first parsable field in priority order wins", func() {
				So(m, ShouldNotBeNil)
				So(m.Start.Equal(time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(m.Duration, ShouldEqual, 3*time.Hour)
			})
		})

		Convey("When cricket kinds differ", func() {
			t20 := r.Resolve(model.RawEvent{ID: "c1", Sport: "cricket", Kind: "t20", Date: "2026-06-01T18:30:00"})
			odi := r.Resolve(model.RawEvent{ID: "c2", Sport: "cricket", Kind: "one-day", Date: "2026-06-01T10:30:00"})
			other := r.Resolve(model.RawEvent{ID: "c3", Sport: "cricket", Kind: "the_hundred", Date: "2026-06-01T14:30:00"})

			Convey("Then each gets its own duration", func() {
				So(t20.Duration, ShouldEqual, 210*time.Minute)
				So(odi.Duration, ShouldEqual, 8*time.Hour)
				So(other.Duration, ShouldEqual, 7*time.Hour)
			})
		})

		Convey("When the sport is unknown", func() {
			m := r.Resolve(model.RawEvent{ID: "x", Sport: "curling", Date: "2026-02-14T15:00:00"})

			Convey("Then the 2h default applies", func() {
				So(m.Duration, ShouldEqual, 2*time.Hour)
			})
		})

		Convey("When no start field parses", func() {
			Convey("Then Resolve returns nil without panicking", func() {
				So(r.Resolve(model.RawEvent{ID: "x", Sport: "football"}), ShouldBeNil)
				So(r.Resolve(model.RawEvent{ID: "x", Sport: "football", Date: "14/02/2026"}), ShouldBeNil)
				So(r.Resolve(model.RawEvent{ID: "x", Sport: "football", Date: "2026-13-45"}), ShouldBeNil)
			})
		})

		Convey("When the start is date-only", func() {
			m := r.Resolve(model.RawEvent{ID: "x", Sport: "darts", Date: "2026-02-14"})

			Convey("Then it starts at local midnight without a known time", func() {
				So(m.Start.Equal(at(loc, 2026, 2, 14, 0, 0)), ShouldBeTrue)
				So(m.TimeKnown, ShouldBeFalse)
				So(m.Duration, ShouldEqual, 4*time.Hour)
			})
		})
	})
}

func TestResolver_Sessions(t *testing.T) {
	Convey("Given a resolver in Europe/London", t, func() {
		loc := london()
		r := timemodel.NewResolver(timemodel.WithLocation(loc))

		Convey("When a generic session has a date-only start", func() {
			m := r.Resolve(model.RawEvent{ID: "s1", Sport: "tennis", Kind: "session", StartDate: "2026-03-01"})

			Convey("Then it is widened to the full local day", func() {
				So(m.Kind, ShouldEqual, timemodel.KindGenericSession)
				So(m.Start.Equal(at(loc, 2026, 3, 1, 0, 0)), ShouldBeTrue)
				So(m.End.Equal(time.Date(2026, 3, 1, 23, 59, 59, int(999*time.Millisecond), loc)), ShouldBeTrue)
			})
		})

		Convey("When a generic session has explicit bounds", func() {
			m := r.Resolve(model.RawEvent{
				ID: "s2", Sport: "snooker", Kind: "Session",
				StartDate: "2026-03-01T13:00:00", EndDate: "2026-03-03",
			})

			Convey("Then a date-only end closes at the end of that day", func() {
				So(m.Start.Equal(at(loc, 2026, 3, 1, 13, 0)), ShouldBeTrue)
				So(m.End.Equal(time.Date(2026, 3, 3, 23, 59, 59, int(999*time.Millisecond), loc)), ShouldBeTrue)
			})
		})

		Convey("When a timed session has no end", func() {
			m := r.Resolve(model.RawEvent{ID: "s3", Sport: "darts", Kind: "session", StartDate: "2026-03-01T19:00:00"})

			Convey("Then the sport duration closes it", func() {
				So(m.End.Equal(at(loc, 2026, 3, 1, 23, 0)), ShouldBeTrue)
			})
		})

		Convey("When the session start does not parse", func() {
			m := r.Resolve(model.RawEvent{ID: "s4", Sport: "darts", Kind: "session", StartDate: "soon", Date: "2026-03-01T19:00:00"})

			Convey("Then it falls through to the fixed rule", func() {
				So(m.Kind, ShouldEqual, timemodel.KindFixed)
			})
		})

		Convey("When a horse-racing meeting is Floodlit", func() {
			m := r.Resolve(model.RawEvent{ID: "h1", Sport: "horse-racing", SessionTime: "Floodlit", Date: "2026-02-14"})

			Convey("Then the window runs 19:00 to 01:00 next day", func() {
				So(m.Kind, ShouldEqual, timemodel.KindSportSession)
				So(m.Start.Equal(at(loc, 2026, 2, 14, 19, 0)), ShouldBeTrue)
				So(m.End.Equal(at(loc, 2026, 2, 15, 1, 0)), ShouldBeTrue)
			})
		})

		Convey("When a horse-racing meeting is Afternoon or Evening", func() {
			aft := r.Resolve(model.RawEvent{ID: "h2", Sport: "horse-racing", SessionTime: "afternoon", Date: "2026-02-14"})
			eve := r.Resolve(model.RawEvent{ID: "h3", Sport: "horse-racing", SessionTime: "Evening", Date: "2026-02-14"})

			Convey("Then the label windows apply", func() {
				So(aft.Start.Equal(at(loc, 2026, 2, 14, 11, 0)), ShouldBeTrue)
				So(aft.End.Equal(at(loc, 2026, 2, 14, 19, 0)), ShouldBeTrue)
				So(eve.Start.Equal(at(loc, 2026, 2, 14, 16, 0)), ShouldBeTrue)
				So(eve.End.Equal(at(loc, 2026, 2, 15, 0, 0)), ShouldBeTrue)
			})
		})

		Convey("When the session label is unrecognized", func() {
			m := r.Resolve(model.RawEvent{ID: "h4", Sport: "horse-racing", SessionTime: "Twilight", Date: "2026-02-14T13:00:00"})

			Convey("Then it falls through to a fixed 6h model", func() {
				So(m.Kind, ShouldEqual, timemodel.KindFixed)
				So(m.Duration, ShouldEqual, 6*time.Hour)
			})
		})

		Convey("When a first-class cricket match has a start date", func() {
			m := r.Resolve(model.RawEvent{ID: "c1", Sport: "Cricket", Kind: "first_class", StartDate: "2026-05-10"})

			Convey("Then it spans 10:30 to 18:30 the following day", func() {
				So(m.Kind, ShouldEqual, timemodel.KindDaySpan)
				So(m.Start.Equal(at(loc, 2026, 5, 10, 10, 30)), ShouldBeTrue)
				So(m.End.Equal(at(loc, 2026, 5, 11, 18, 30)), ShouldBeTrue)
			})
		})

		Convey("When a first-class match is also tagged as a session", func() {
			m := r.Resolve(model.RawEvent{ID: "c2", Sport: "cricket", Kind: "first_class", StartDate: "2026-05-10", SessionTime: "Afternoon"})

			Convey("Then the sport-specific day span wins", func() {
				So(m.Kind, ShouldEqual, timemodel.KindDaySpan)
			})
		})
	})
}

func TestParseInstant(t *testing.T) {
	Convey("Given the instant parser", t, func() {
		loc := london()

		Convey("Then fractional seconds and minutes-only values parse", func() {
			in, ok := timemodel.ParseInstant("2026-02-14T15:00:00.250", loc)
			So(ok, ShouldBeTrue)
			So(in.HasClock, ShouldBeTrue)

			in, ok = timemodel.ParseInstant("2026-02-14 15:00", loc)
			So(ok, ShouldBeTrue)
			So(in.Time.Equal(at(loc, 2026, 2, 14, 15, 0)), ShouldBeTrue)
		})

		Convey("Then garbage is rejected", func() {
			for _, raw := range []string{"", "   ", "tomorrow", "2026-02-14T25:00:00", "14-02-2026"} {
				_, ok := timemodel.ParseInstant(raw, loc)
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestSportDurations(t *testing.T) {
	Convey("Given the default duration table", t, func() {
		table := timemodel.DefaultDurations()

		Convey("When overriding entries", func() {
			out := table.Override(map[string]time.Duration{"Football": 3 * time.Hour, "default": 90 * time.Minute, "tennis": 0})

			Convey("Then the copy carries the overrides", func() {
				So(out.Lookup("football", ""), ShouldEqual, 3*time.Hour)
				So(out.Lookup("curling", ""), ShouldEqual, 90*time.Minute)
				So(out.Lookup("tennis", ""), ShouldEqual, 3*time.Hour)
			})

			Convey("And the original is untouched", func() {
				So(table.Lookup("football", ""), ShouldEqual, 150*time.Minute)
				So(table.Fallback(), ShouldEqual, 2*time.Hour)
			})
		})
	})
}
