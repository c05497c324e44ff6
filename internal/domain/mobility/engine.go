package mobility

import (
	"fmt"

	"github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/internal/domain/timemodel"
)

// Default operating window.
const (
	DefaultStartHour         = 9
	DefaultEndHour           = 22
	DefaultResolutionMinutes = 10
)

// Window is the operating window and bucket width of a curve.
type Window struct {
	StartHour         int `json:"startHour"`
	EndHour           int `json:"endHour"`
	ResolutionMinutes int `json:"resolutionMinutes"`
}

// DefaultWindow returns 09:00-22:00 at 10 minute resolution.
func DefaultWindow() Window {
	return Window{StartHour: DefaultStartHour, EndHour: DefaultEndHour, ResolutionMinutes: DefaultResolutionMinutes}
}

// Validate rejects windows that are configuration errors rather than data.
func (w Window) Validate() error {
	switch {
	case w.ResolutionMinutes <= 0:
		return fmt.Errorf("%w: resolution %d must be positive", ErrInvalidWindow, w.ResolutionMinutes)
	case w.StartHour < 0 || w.EndHour > 24:
		return fmt.Errorf("%w: hours %d-%d outside 0-24", ErrInvalidWindow, w.StartHour, w.EndHour)
	case w.StartHour > w.EndHour:
		return fmt.Errorf("%w: start hour %d after end hour %d", ErrInvalidWindow, w.StartHour, w.EndHour)
	}
	return nil
}

// Bucket is one time-of-day slot of accumulated pressure.
type Bucket struct {
	MinuteOfDay int     `json:"minuteOfDay"`
	Value       float64 `json:"value"`
}

// Engine builds pressure curves. It holds only read-only tables and is safe
// for concurrent use.
type Engine struct {
	resolver *timemodel.Resolver
	profiles ProfileTable
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithProfiles replaces the sport profile table.
func WithProfiles(t ProfileTable) Option {
	return func(e *Engine) {
		if t.bySport != nil {
			e.profiles = t
		}
	}
}

// NewEngine creates an engine that anchors phases using resolver.
func NewEngine(resolver *timemodel.Resolver, opts ...Option) *Engine {
	if resolver == nil {
		resolver = timemodel.NewResolver()
	}
	e := &Engine{resolver: resolver, profiles: DefaultProfiles()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Profile returns the impact profile applied to ev.
func (e *Engine) Profile(ev model.RawEvent) Profile {
	return e.profiles.For(ev.Sport)
}

// BuildBuckets returns a fresh zeroed curve over [StartHour*60, EndHour*60]
// with every event's contribution added. Overlapping phases and events add up.
// Events without a usable start contribute nothing.
func (e *Engine) BuildBuckets(events []model.RawEvent, w Window) ([]Bucket, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	first, last := w.StartHour*60, w.EndHour*60
	buckets := make([]Bucket, 0, (last-first)/w.ResolutionMinutes+1)
	for m := first; m <= last; m += w.ResolutionMinutes {
		buckets = append(buckets, Bucket{MinuteOfDay: m})
	}

	for _, ev := range events {
		m := e.resolver.Resolve(ev)
		if m == nil {
			continue
		}
		p := e.profiles.For(ev.Sport)
		cw := p.Confidence.Weight()
		if p.Block != nil {
			for i := range buckets {
				if p.Block.coversMinute(buckets[i].MinuteOfDay) {
					buckets[i].Value += blockWeight * cw
				}
			}
			continue
		}
		start, ok := e.startMinute(m)
		if !ok {
			continue
		}
		for _, ph := range p.Phases {
			from, to := phaseSpan(start, ph)
			for i := range buckets {
				if m := buckets[i].MinuteOfDay; m >= from && m <= to {
					buckets[i].Value += ph.Weight * cw
				}
			}
		}
	}
	return buckets, nil
}

// startMinute is the local minute-of-day of the event start. Events without
// a real time of day have no anchor for phases.
func (e *Engine) startMinute(m *timemodel.Model) (int, bool) {
	if !m.TimeKnown {
		return 0, false
	}
	local := m.Start.In(e.resolver.Location())
	return local.Hour()*60 + local.Minute(), true
}

func phaseSpan(start int, ph Phase) (int, int) {
	from := start + ph.OffsetMinutes
	return from, from + ph.DurationMinutes
}
