// Package scoring computes the percentile-anchored congestion risk score for
// a target date and maps it onto operational guidance tables.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/internal/domain/timemodel"
)

// Scoring weights.
const (
	DefaultOverlapWindow = 2 * time.Hour

	percentileWeight = 0.7
	spatialWeight    = 4
	timeWeight       = 6
	maxScoreValue    = 100
)

// Result is the computed risk for one date around one anchor.
type Result struct {
	PeakConcurrent int   `json:"peakConcurrent"`
	Percentile     int   `json:"percentile"`
	BaseScore      int   `json:"baseScore"`
	SpatialOverlap int   `json:"spatialOverlap"`
	TimeOverlap    int   `json:"timeOverlap"`
	FinalScore     int   `json:"finalScore"`
	History        []int `json:"history"`
}

// IsZero reports whether the result carries no signal.
func (r Result) IsZero() bool {
	return r.PeakConcurrent == 0 && r.FinalScore == 0 && len(r.History) == 0
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithOverlapWindow sets the maximum start gap for two events to count as a
// time overlap.
func WithOverlapWindow(d time.Duration) Option {
	return func(s *Scorer) {
		if d >= 0 {
			s.overlapWindow = d
		}
	}
}

// Scorer computes risk results. It holds no mutable state.
type Scorer struct {
	resolver      *timemodel.Resolver
	overlapWindow time.Duration
}

// NewScorer creates a scorer keyed on resolver's local dates.
func NewScorer(resolver *timemodel.Resolver, opts ...Option) *Scorer {
	if resolver == nil {
		resolver = timemodel.NewResolver()
	}
	s := &Scorer{resolver: resolver, overlapWindow: DefaultOverlapWindow}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OverlapWindow returns the configured time overlap window.
func (s *Scorer) OverlapWindow() time.Duration {
	return s.overlapWindow
}

type dated struct {
	start     time.Time
	timeKnown bool
}

// Score rates targetDate (YYYY-MM-DD) for events already narrowed to the
// area around anchor. A nil anchor yields an all-zero Result with an empty
// history.
func (s *Scorer) Score(events []model.RawEvent, targetDate string, anchor *model.Location) Result {
	if anchor == nil {
		return Result{History: []int{}}
	}

	byDate := make(map[string][]dated)
	for _, ev := range events {
		m := s.resolver.Resolve(ev)
		if m == nil {
			continue
		}
		key := s.resolver.DateKey(m.Start)
		byDate[key] = append(byDate[key], dated{start: m.Start, timeKnown: m.TimeKnown})
	}

	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r := Result{History: make([]int, 0, len(keys))}
	for _, k := range keys {
		r.History = append(r.History, len(byDate[k]))
	}

	target := byDate[targetDate]
	r.PeakConcurrent = len(target)
	r.Percentile = percentileRank(byDate, targetDate, r.PeakConcurrent)
	r.BaseScore = min(int(math.Round(float64(r.Percentile)*percentileWeight)), maxScoreValue)
	r.SpatialOverlap = r.PeakConcurrent
	r.TimeOverlap = s.timeOverlaps(target)
	r.FinalScore = clamp(r.BaseScore + r.SpatialOverlap*spatialWeight + r.TimeOverlap*timeWeight)
	return r
}

// percentileRank is the share of other dates whose count is strictly below
// peak.
func percentileRank(byDate map[string][]dated, targetDate string, peak int) int {
	var below, n int
	for k, evs := range byDate {
		if k == targetDate {
			continue
		}
		n++
		if len(evs) < peak {
			below++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(100 * float64(below) / float64(n)))
}

func (s *Scorer) timeOverlaps(day []dated) int {
	var pairs int
	for i := 0; i < len(day); i++ {
		if !day[i].timeKnown {
			continue
		}
		for j := i + 1; j < len(day); j++ {
			if !day[j].timeKnown {
				continue
			}
			gap := day[i].start.Sub(day[j].start)
			if gap < 0 {
				gap = -gap
			}
			if gap <= s.overlapWindow {
				pairs++
			}
		}
	}
	return pairs
}

func clamp(score int) int {
	return max(0, min(score, maxScoreValue))
}
