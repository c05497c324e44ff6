package timemodel

import (
	"time"

	"github.com/okian/fanpulse/internal/domain/model"
)

// SportDurations is an immutable sport -> duration lookup with a default arm.
// Keys are a normalized sport ("football") or a sport/kind pair
// ("cricket/t20"); the pair wins over the bare sport.
type SportDurations struct {
	entries  map[string]time.Duration
	fallback time.Duration
}

// NewSportDurations copies entries into a new table.
func NewSportDurations(entries map[string]time.Duration, fallback time.Duration) SportDurations {
	t := SportDurations{entries: make(map[string]time.Duration, len(entries)), fallback: fallback}
	for k, v := range entries {
		t.entries[model.NormalizeSport(k)] = v
	}
	return t
}

// Lookup returns the duration for sport and kind, falling back to the sport
// entry and then to the table default.
func (t SportDurations) Lookup(sport, kind string) time.Duration {
	sport = model.NormalizeSport(sport)
	if kind != "" {
		if d, ok := t.entries[sport+"/"+kind]; ok {
			return d
		}
	}
	if d, ok := t.entries[sport]; ok {
		return d
	}
	return t.fallback
}

// Fallback returns the default arm.
func (t SportDurations) Fallback() time.Duration {
	return t.fallback
}

// Override returns a new table with overrides applied on top of t.
// Non-positive overrides are ignored. The key "default" replaces the fallback.
func (t SportDurations) Override(overrides map[string]time.Duration) SportDurations {
	out := NewSportDurations(t.entries, t.fallback)
	for k, v := range overrides {
		if v <= 0 {
			continue
		}
		if k == "default" {
			out.fallback = v
			continue
		}
		out.entries[model.NormalizeSport(k)] = v
	}
	return out
}

// DefaultDurations is the sport -> default match length table used by the
// fixed model.
func DefaultDurations() SportDurations {
	return NewSportDurations(map[string]time.Duration{
		model.SportFootball:    150 * time.Minute,
		model.SportRugby:       150 * time.Minute,
		model.SportBasketball:  2 * time.Hour,
		model.SportTennis:      3 * time.Hour,
		model.SportHorseRacing: 6 * time.Hour,
		model.SportDarts:       4 * time.Hour,
		model.SportCricket:     7 * time.Hour,
		"cricket/t20":          210 * time.Minute,
		"cricket/one_day":      8 * time.Hour,
		"cricket/odi":          8 * time.Hour,
	}, 2*time.Hour)
}
