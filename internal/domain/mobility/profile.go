// Package mobility turns fixtures into a heuristic time-of-day crowd
// movement pressure curve. The figures are deliberately approximate.
package mobility

import "github.com/okian/fanpulse/internal/domain/model"

// Confidence scales every weight contributed by an event.
type Confidence string

// Confidence levels.
const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// Weight returns the multiplier for c. Unknown values count as low.
func (c Confidence) Weight() float64 {
	switch c {
	case High:
		return 1.0
	case Medium:
		return 0.8
	default:
		return 0.6
	}
}

// blockWeight is the constant per-bucket contribution of a block profile.
const blockWeight = 0.4

// Phase is a movement phase anchored to the event start.
type Phase struct {
	Label           string  `json:"label"`
	OffsetMinutes   int     `json:"offsetMinutes"`
	DurationMinutes int     `json:"durationMinutes"`
	Weight          float64 `json:"weight"`
}

// Block is a fixed local hour window [StartHour, EndHour) used when a sport
// has no precise start/end.
type Block struct {
	StartHour int `json:"startHour"`
	EndHour   int `json:"endHour"`
}

func (b Block) coversMinute(minute int) bool {
	hour := minute / 60
	return hour >= b.StartHour && hour < b.EndHour
}

// Profile describes when and how strongly one event adds pressure. Exactly
// one of Block and Phases is used; Block wins when set.
type Profile struct {
	Block      *Block     `json:"block,omitempty"`
	Phases     []Phase    `json:"phases,omitempty"`
	Confidence Confidence `json:"confidence"`
}

func (p Profile) clone() Profile {
	out := Profile{Confidence: p.Confidence}
	if p.Block != nil {
		b := *p.Block
		out.Block = &b
	}
	out.Phases = append([]Phase(nil), p.Phases...)
	return out
}

// FallbackProfile is used for sports without a preset: a single low
// confidence arrival phase in the hour before the start.
func FallbackProfile() Profile {
	return Profile{
		Phases:     []Phase{{Label: "arrivals", OffsetMinutes: -60, DurationMinutes: 60, Weight: 0.5}},
		Confidence: Low,
	}
}

// ProfileTable is an immutable sport -> profile lookup.
type ProfileTable struct {
	bySport  map[string]Profile
	fallback Profile
}

// NewProfileTable deep-copies profiles into a new table.
func NewProfileTable(profiles map[string]Profile, fallback Profile) ProfileTable {
	t := ProfileTable{bySport: make(map[string]Profile, len(profiles)), fallback: fallback.clone()}
	for sport, p := range profiles {
		t.bySport[model.NormalizeSport(sport)] = p.clone()
	}
	return t
}

// For returns a copy of the profile for sport.
func (t ProfileTable) For(sport string) Profile {
	if p, ok := t.bySport[model.NormalizeSport(sport)]; ok {
		return p.clone()
	}
	return t.fallback.clone()
}

// DefaultProfiles is the preset table.
func DefaultProfiles() ProfileTable {
	matchDay := func(inPlay int) []Phase {
		return []Phase{
			{Label: "arrivals", OffsetMinutes: -90, DurationMinutes: 90, Weight: 1.0},
			{Label: "in-play", OffsetMinutes: 0, DurationMinutes: inPlay, Weight: 0.3},
			{Label: "departures", OffsetMinutes: inPlay, DurationMinutes: 60, Weight: 1.0},
		}
	}
	return NewProfileTable(map[string]Profile{
		model.SportFootball: {Phases: matchDay(115), Confidence: High},
		model.SportRugby:    {Phases: matchDay(100), Confidence: High},
		model.SportBasketball: {Phases: []Phase{
			{Label: "arrivals", OffsetMinutes: -60, DurationMinutes: 60, Weight: 0.8},
			{Label: "in-play", OffsetMinutes: 0, DurationMinutes: 120, Weight: 0.3},
			{Label: "departures", OffsetMinutes: 120, DurationMinutes: 45, Weight: 0.9},
		}, Confidence: High},
		model.SportTennis: {Phases: []Phase{
			{Label: "arrivals", OffsetMinutes: -60, DurationMinutes: 60, Weight: 0.6},
			{Label: "in-play", OffsetMinutes: 0, DurationMinutes: 180, Weight: 0.4},
			{Label: "departures", OffsetMinutes: 180, DurationMinutes: 45, Weight: 0.6},
		}, Confidence: Medium},
		model.SportDarts: {Phases: []Phase{
			{Label: "arrivals", OffsetMinutes: -60, DurationMinutes: 60, Weight: 0.7},
			{Label: "in-play", OffsetMinutes: 0, DurationMinutes: 240, Weight: 0.3},
			{Label: "departures", OffsetMinutes: 240, DurationMinutes: 45, Weight: 0.8},
		}, Confidence: Medium},
		model.SportCricket:     {Block: &Block{StartHour: 10, EndHour: 19}, Confidence: Medium},
		model.SportHorseRacing: {Block: &Block{StartHour: 11, EndHour: 19}, Confidence: Medium},
	}, FallbackProfile())
}
