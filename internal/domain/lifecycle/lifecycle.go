// Package lifecycle derives an event's lifecycle state from its temporal
// model and a caller-supplied reference instant. Nothing is stored; every
// call is a fresh evaluation.
package lifecycle

import (
	"time"

	"github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/internal/domain/timemodel"
)

// State is the lifecycle of an event relative to "now".
type State string

// Lifecycle states.
const (
	Live     State = "LIVE"
	Soon     State = "SOON"
	Upcoming State = "UPCOMING"
	Ended    State = "ENDED"
)

// States lists every state in display order.
func States() []State {
	return []State{Live, Soon, Upcoming, Ended}
}

// StateOf evaluates m at now. A nil model is Ended. now == Start is Live.
// A negative soonWindow is treated as zero.
func StateOf(m *timemodel.Model, now time.Time, soonWindow time.Duration) State {
	if m == nil {
		return Ended
	}
	if soonWindow < 0 {
		soonWindow = 0
	}
	if now.Before(m.Start) {
		if m.Start.Sub(now) <= soonWindow {
			return Soon
		}
		return Upcoming
	}
	if !now.After(m.End) {
		return Live
	}
	return Ended
}

// DefaultSoonWindows is the sport -> soon-window table.
func DefaultSoonWindows() timemodel.SportDurations {
	return timemodel.NewSportDurations(map[string]time.Duration{
		model.SportHorseRacing: 4 * time.Hour,
		model.SportDarts:       4 * time.Hour,
		model.SportTennis:      time.Hour,
		model.SportCricket:     3 * time.Hour,
	}, 2*time.Hour)
}

// Classifier resolves records and evaluates their state. It holds only
// read-only tables and is safe for concurrent use.
type Classifier struct {
	resolver *timemodel.Resolver
	windows  timemodel.SportDurations
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithSoonWindows replaces the soon-window table.
func WithSoonWindows(windows timemodel.SportDurations) Option {
	return func(c *Classifier) {
		c.windows = windows
	}
}

// NewClassifier creates a classifier over resolver.
func NewClassifier(resolver *timemodel.Resolver, opts ...Option) *Classifier {
	if resolver == nil {
		resolver = timemodel.NewResolver()
	}
	c := &Classifier{resolver: resolver, windows: DefaultSoonWindows()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SoonWindow returns the sport window for e.
func (c *Classifier) SoonWindow(e model.RawEvent) time.Duration {
	return c.windows.Lookup(e.Sport, "")
}

// Classify evaluates e at now using its sport window.
func (c *Classifier) Classify(e model.RawEvent, now time.Time) State {
	return StateOf(c.resolver.Resolve(e), now, c.SoonWindow(e))
}

// ClassifyWithin evaluates e at now with an explicit soon window, leaving the
// shared table untouched.
func (c *Classifier) ClassifyWithin(e model.RawEvent, now time.Time, soonWindow time.Duration) State {
	return StateOf(c.resolver.Resolve(e), now, soonWindow)
}
