package timemodel

import (
	"strings"
	"time"
	_ "time/tzdata" // fixture feeds are resolved in named zones such as Europe/London

	"github.com/okian/fanpulse/internal/domain/model"
)

// DefaultTimezone is the zone used when no location is configured.
const DefaultTimezone = "Europe/London"

// Day-span clock for multi-day formats: play starts at 10:30 and the span
// closes at 18:30 on the following day.
const (
	daySpanStartHour   = 10
	daySpanStartMinute = 30
	daySpanEndHour     = 18
	daySpanEndMinute   = 30
)

const (
	kindSession    = "session"
	kindFirstClass = "first_class"
)

// SessionWindow is a local clock window for a labelled sport session.
// EndHour may exceed 24 to reach into the next day.
type SessionWindow struct {
	StartHour int
	EndHour   int
}

// DefaultHorseRacingSessions maps meeting labels to their local windows.
func DefaultHorseRacingSessions() map[string]SessionWindow {
	return map[string]SessionWindow{
		"afternoon": {StartHour: 11, EndHour: 19},
		"evening":   {StartHour: 16, EndHour: 24},
		"floodlit":  {StartHour: 19, EndHour: 25},
	}
}

// StartField names a record field that may carry the start instant.
type StartField struct {
	Name string
	Get  func(model.RawEvent) string
}

// StartFields is the documented priority order in which start candidates are
// tried. The first one that parses wins.
func StartFields() []StartField {
	return []StartField{
		{Name: "date", Get: func(e model.RawEvent) string { return e.Date }},
		{Name: "utcDate", Get: func(e model.RawEvent) string { return e.UTCDate }},
		{Name: "startDate", Get: func(e model.RawEvent) string { return e.StartDate }},
	}
}

// Rule is one step of the resolution order. It returns nil to fall through.
type Rule struct {
	Name    string
	Resolve func(r *Resolver, e model.RawEvent) *Model
}

// Rules returns the resolution order. Sport-specific rules precede the
// generic session rule, which precedes the fixed-match default.
func Rules() []Rule {
	return []Rule{
		{Name: "cricket_day_span", Resolve: (*Resolver).daySpan},
		{Name: "horse_racing_session", Resolve: (*Resolver).sportSession},
		{Name: "generic_session", Resolve: (*Resolver).genericSession},
		{Name: "fixed", Resolve: (*Resolver).fixed},
	}
}

// Resolver turns raw records into temporal models. It is immutable once built
// and safe for concurrent use.
type Resolver struct {
	loc       *time.Location
	durations SportDurations
	sessions  map[string]SessionWindow
	fields    []StartField
	rules     []Rule
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithLocation sets the zone used for zoneless and date-only values.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithDurations replaces the fixed-model duration table.
func WithDurations(d SportDurations) Option {
	return func(r *Resolver) {
		if d.entries != nil {
			r.durations = d
		}
	}
}

// WithHorseRacingSessions replaces the session label table.
func WithHorseRacingSessions(sessions map[string]SessionWindow) Option {
	return func(r *Resolver) {
		if len(sessions) == 0 {
			return
		}
		r.sessions = make(map[string]SessionWindow, len(sessions))
		for label, w := range sessions {
			r.sessions[strings.ToLower(strings.TrimSpace(label))] = w
		}
	}
}

// NewResolver creates a resolver with default tables in Europe/London.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		loc:       londonOrUTC(),
		durations: DefaultDurations(),
		sessions:  DefaultHorseRacingSessions(),
		fields:    StartFields(),
		rules:     Rules(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithLocationOf returns a copy of r that reads local time in loc.
func (r *Resolver) WithLocationOf(loc *time.Location) *Resolver {
	if loc == nil || loc == r.loc {
		return r
	}
	cp := *r
	cp.loc = loc
	return &cp
}

// Location returns the resolver's local zone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Durations returns the fixed-model duration table.
func (r *Resolver) Durations() SportDurations {
	return r.durations
}

// Resolve classifies e into exactly one temporal model. It returns nil when
// no start field parses under any rule.
func (r *Resolver) Resolve(e model.RawEvent) *Model {
	for _, rule := range r.rules {
		if m := rule.Resolve(r, e); m != nil {
			return m
		}
	}
	return nil
}

// StartInstant returns the first start candidate that parses.
func (r *Resolver) StartInstant(e model.RawEvent) (Instant, bool) {
	for _, f := range r.fields {
		if in, ok := ParseInstant(f.Get(e), r.loc); ok {
			return in, true
		}
	}
	return Instant{}, false
}

// DayStart parses a YYYY-MM-DD key as local midnight.
func (r *Resolver) DayStart(dateKey string) (time.Time, bool) {
	in, ok := ParseInstant(dateKey, r.loc)
	if !ok || in.HasClock {
		return time.Time{}, false
	}
	return in.Time, true
}

// DateKey formats t as a local YYYY-MM-DD key.
func (r *Resolver) DateKey(t time.Time) string {
	return t.In(r.loc).Format(time.DateOnly)
}

func (r *Resolver) daySpan(e model.RawEvent) *Model {
	if e.NormalizedSport() != model.SportCricket || e.NormalizedKind() != kindFirstClass {
		return nil
	}
	in, ok := r.StartInstant(e)
	if !ok {
		return nil
	}
	start := atClock(in.Time, r.loc, 0, daySpanStartHour, daySpanStartMinute)
	end := atClock(in.Time, r.loc, 1, daySpanEndHour, daySpanEndMinute)
	return window(KindDaySpan, start, end, true)
}

func (r *Resolver) sportSession(e model.RawEvent) *Model {
	if e.NormalizedSport() != model.SportHorseRacing {
		return nil
	}
	label := strings.ToLower(strings.TrimSpace(e.SessionTime))
	if label == "" {
		return nil
	}
	w, ok := r.sessions[label]
	if !ok {
		return nil
	}
	in, ok := r.StartInstant(e)
	if !ok {
		return nil
	}
	start := atClock(in.Time, r.loc, 0, w.StartHour, 0)
	end := atClock(in.Time, r.loc, 0, w.EndHour, 0)
	return window(KindSportSession, start, end, true)
}

func (r *Resolver) genericSession(e model.RawEvent) *Model {
	if e.NormalizedKind() != kindSession || strings.TrimSpace(e.StartDate) == "" {
		return nil
	}
	startIn, ok := ParseInstant(e.StartDate, r.loc)
	if !ok {
		return nil
	}
	start := startIn.Time
	if !startIn.HasClock {
		start = startOfDay(start, r.loc)
	}

	var end time.Time
	if endIn, ok := ParseInstant(e.EndDate, r.loc); ok {
		end = endIn.Time
		if !endIn.HasClock {
			end = endOfDay(end, r.loc)
		}
	}
	switch {
	case end.IsZero() && !startIn.HasClock:
		end = endOfDay(start, r.loc)
	case end.IsZero():
		end = start.Add(r.durations.Lookup(e.Sport, e.NormalizedKind()))
	case end.Before(start):
		end = endOfDay(start, r.loc)
	}
	return window(KindGenericSession, start, end, startIn.HasClock)
}

func (r *Resolver) fixed(e model.RawEvent) *Model {
	in, ok := r.StartInstant(e)
	if !ok {
		return nil
	}
	return fixed(in.Time, r.durations.Lookup(e.Sport, e.NormalizedKind()), in.HasClock)
}

func londonOrUTC() *time.Location {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
