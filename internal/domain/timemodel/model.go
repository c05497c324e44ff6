// Package timemodel resolves heterogeneous fixture records into one canonical
// temporal model (fixed, generic session, sport session or day span).
package timemodel

import "time"

// Kind tags the temporal model variant.
type Kind string

// Temporal model variants.
const (
	KindFixed          Kind = "fixed"
	KindGenericSession Kind = "generic_session"
	KindSportSession   Kind = "sport_session"
	KindDaySpan        Kind = "day_span"
)

// Model is the canonical start/end representation of an event.
//
// For KindFixed, End is Start+Duration. For the other kinds Duration is
// End-Start. TimeKnown is false when the start came from a date-only value
// and carries no real time of day.
type Model struct {
	Kind      Kind          `json:"kind"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Duration  time.Duration `json:"-"`
	TimeKnown bool          `json:"timeKnown"`
}

// DurationMs returns the model length in milliseconds.
func (m Model) DurationMs() int64 {
	return m.Duration.Milliseconds()
}

// Contains reports whether t lies within [Start, End].
func (m Model) Contains(t time.Time) bool {
	return !t.Before(m.Start) && !t.After(m.End)
}

// Touches reports whether the model overlaps the local calendar day starting
// at dayStart.
func (m Model) Touches(dayStart time.Time) bool {
	dayEnd := dayStart.AddDate(0, 0, 1)
	return m.Start.Before(dayEnd) && !m.End.Before(dayStart)
}

func fixed(start time.Time, d time.Duration, timeKnown bool) *Model {
	return &Model{Kind: KindFixed, Start: start, End: start.Add(d), Duration: d, TimeKnown: timeKnown}
}

func window(kind Kind, start, end time.Time, timeKnown bool) *Model {
	return &Model{Kind: kind, Start: start, End: end, Duration: end.Sub(start), TimeKnown: timeKnown}
}
