// Package model contains domain models passed between layers.
package model

import "strings"

// Sports with dedicated temporal or impact rules. The set is open: any other
// sport string is accepted and falls back to default tables.
const (
	SportFootball    = "football"
	SportRugby       = "rugby"
	SportBasketball  = "basketball"
	SportTennis      = "tennis"
	SportDarts       = "darts"
	SportCricket     = "cricket"
	SportHorseRacing = "horse-racing"
)

// Location is a WGS84 coordinate in degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RawEvent is a fixture record as delivered by an upstream sport feed.
// Only ID and Sport are guaranteed; every other field is optional and its
// presence depends on the sport.
type RawEvent struct {
	ID          string    `json:"id"`
	Sport       string    `json:"sport"`
	Title       string    `json:"title,omitempty"`
	Date        string    `json:"date,omitempty"`
	UTCDate     string    `json:"utcDate,omitempty"`
	StartDate   string    `json:"startDate,omitempty"`
	EndDate     string    `json:"endDate,omitempty"`
	Kind        string    `json:"kind,omitempty"`
	SessionTime string    `json:"sessionTime,omitempty"`
	Location    *Location `json:"location,omitempty"`
	Competition string    `json:"competition,omitempty"`
	City        string    `json:"city,omitempty"`
	Region      string    `json:"region,omitempty"`
}

// Name returns a display label for the event, falling back to its ID.
func (e RawEvent) Name() string {
	if t := strings.TrimSpace(e.Title); t != "" {
		return t
	}
	return e.ID
}

// NormalizedSport returns the sport in its canonical lower-case form.
func (e RawEvent) NormalizedSport() string {
	return NormalizeSport(e.Sport)
}

// NormalizedKind returns the fixture kind with separators folded to '_',
// so "First-Class" and "first_class" compare equal.
func (e RawEvent) NormalizedKind() string {
	k := strings.ToLower(strings.TrimSpace(e.Kind))
	return strings.NewReplacer("-", "_", " ", "_").Replace(k)
}

// NormalizeSport lower-cases and trims a sport name.
func NormalizeSport(sport string) string {
	return strings.ToLower(strings.TrimSpace(sport))
}

// Valid reports whether the record carries the two guaranteed fields.
func (e RawEvent) Valid() bool {
	return strings.TrimSpace(e.ID) != "" && strings.TrimSpace(e.Sport) != ""
}
