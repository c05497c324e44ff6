// Package spatial narrows events to a radius around a risk anchor.
package spatial

import (
	"github.com/golang/geo/s2"

	"github.com/okian/fanpulse/internal/domain/model"
)

// EarthRadiusKm is the mean Earth radius.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b model.Location) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// WithinRadius keeps events located no further than radiusKm from anchor.
// Events without a location are dropped. A non-positive radius keeps every
// located event.
func WithinRadius(events []model.RawEvent, anchor model.Location, radiusKm float64) []model.RawEvent {
	out := make([]model.RawEvent, 0, len(events))
	for _, ev := range events {
		if ev.Location == nil {
			continue
		}
		if radiusKm > 0 && DistanceKm(anchor, *ev.Location) > radiusKm {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Valid reports whether l is a usable coordinate.
func Valid(l model.Location) bool {
	return s2.LatLngFromDegrees(l.Lat, l.Lng).IsValid()
}
