package spatial_test

import (
	"testing"

	model "github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/internal/domain/spatial"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	emirates    = model.Location{Lat: 51.5549, Lng: -0.1084}
	tottenham   = model.Location{Lat: 51.6043, Lng: -0.0664}
	oldTrafford = model.Location{Lat: 53.4631, Lng: -2.2913}
)

func TestDistanceKm(t *testing.T) {
	Convey("Given two London grounds", t, func() {
		d := spatial.DistanceKm(emirates, tottenham)

		Convey("Then they are a few kilometres apart", func() {
			So(d, ShouldAlmostEqual, 6.3, 0.3)
		})

		Convey("And distance is symmetric and zero to itself", func() {
			So(spatial.DistanceKm(tottenham, emirates), ShouldAlmostEqual, d, 1e-9)
			So(spatial.DistanceKm(emirates, emirates), ShouldEqual, 0)
		})
	})
}

func TestWithinRadius(t *testing.T) {
	Convey("Given events around the country", t, func() {
		events := []model.RawEvent{
			{ID: "ars", Sport: "football", Location: &emirates},
			{ID: "tot", Sport: "football", Location: &tottenham},
			{ID: "mun", Sport: "football", Location: &oldTrafford},
			{ID: "nowhere", Sport: "football"},
		}

		Convey("When filtering 25km around the Emirates", func() {
			got := spatial.WithinRadius(events, emirates, 25)

			Convey("Then only the London events remain", func() {
				So(got, ShouldHaveLength, 2)
				So(got[0].ID, ShouldEqual, "ars")
				So(got[1].ID, ShouldEqual, "tot")
			})
		})

		Convey("When the radius is not positive", func() {
			got := spatial.WithinRadius(events, emirates, 0)

			Convey("Then every located event is kept", func() {
				So(got, ShouldHaveLength, 3)
			})
		})

		Convey("When there are no events", func() {
			So(spatial.WithinRadius(nil, emirates, 25), ShouldBeEmpty)
		})
	})
}

func TestValid(t *testing.T) {
	Convey("Coordinates are validated", t, func() {
		So(spatial.Valid(emirates), ShouldBeTrue)
		So(spatial.Valid(model.Location{Lat: 91, Lng: 0}), ShouldBeFalse)
	})
}
