// Package congestion counts concurrent fixtures per local hour and labels
// the peak. Callers pre-filter events to the date and region of interest.
package congestion

import (
	"math"
	"time"

	"github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/internal/domain/timemodel"
)

// Level is the qualitative congestion label.
type Level string

// Congestion levels.
const (
	High     Level = "High"
	Moderate Level = "Moderate"
	Low      Level = "Low"
)

// Default thresholds on the peak hour count.
const (
	DefaultHighThreshold     = 6
	LeagueHighThreshold      = 4
	DefaultModerateThreshold = 3
)

const hoursPerDay = 24

// Summary is the hourly congestion picture for one slice.
type Summary struct {
	Total      int              `json:"total"`
	PeakHour   *int             `json:"peakHour"`
	PeakCount  int              `json:"peakCount"`
	PeakRatio  int              `json:"peakRatio"`
	Level      Level            `json:"level"`
	HourCounts [hoursPerDay]int `json:"hourCounts"`
}

// Thresholds are the peak counts at which a level starts.
type Thresholds struct {
	High     int `json:"high"`
	Moderate int `json:"moderate"`
}

// DefaultThresholds returns the general-purpose thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{High: DefaultHighThreshold, Moderate: DefaultModerateThreshold}
}

// LeagueThresholds returns the thresholds for a slice already narrowed to a
// single competition.
func LeagueThresholds() Thresholds {
	return Thresholds{High: LeagueHighThreshold, Moderate: DefaultModerateThreshold}
}

// Classify labels a peak count.
func (t Thresholds) Classify(peakCount int) Level {
	switch {
	case peakCount >= t.High:
		return High
	case peakCount >= t.Moderate:
		return Moderate
	default:
		return Low
	}
}

// Aggregator computes summaries. It is immutable and safe for concurrent use.
type Aggregator struct {
	resolver   *timemodel.Resolver
	thresholds Thresholds
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithThresholds sets the level thresholds.
func WithThresholds(t Thresholds) Option {
	return func(a *Aggregator) {
		if t.High > 0 && t.Moderate > 0 {
			a.thresholds = t
		}
	}
}

// WithLocation buckets hours in loc instead of the resolver's zone.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		a.resolver = a.resolver.WithLocationOf(loc)
	}
}

// NewAggregator creates an aggregator over resolver.
func NewAggregator(resolver *timemodel.Resolver, opts ...Option) *Aggregator {
	if resolver == nil {
		resolver = timemodel.NewResolver()
	}
	a := &Aggregator{resolver: resolver, thresholds: DefaultThresholds()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Thresholds returns the level thresholds in use.
func (a *Aggregator) Thresholds() Thresholds {
	return a.thresholds
}

// Summarize counts each resolvable event at the local hour of its start.
// Events without a usable start are left out of every count.
func (a *Aggregator) Summarize(events []model.RawEvent) Summary {
	var counts [hoursPerDay]int
	loc := a.resolver.Location()
	for _, ev := range events {
		m := a.resolver.Resolve(ev)
		if m == nil {
			continue
		}
		counts[m.Start.In(loc).Hour()]++
	}
	return a.FromCounts(counts)
}

// FromCounts derives the summary from hour counts. Ties on the peak go to
// the earliest hour.
func (a *Aggregator) FromCounts(counts [hoursPerDay]int) Summary {
	s := Summary{HourCounts: counts, Level: Low}
	for hour, n := range counts {
		s.Total += n
		if n > s.PeakCount {
			h := hour
			s.PeakHour = &h
			s.PeakCount = n
		}
	}
	if s.Total == 0 {
		return s
	}
	s.PeakRatio = int(math.Round(float64(s.PeakCount) / float64(s.Total) * 100))
	s.Level = a.thresholds.Classify(s.PeakCount)
	return s
}
