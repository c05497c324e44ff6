package mobility

import (
	"fmt"

	"github.com/okian/fanpulse/internal/domain/model"
)

// maxReasons caps Explain output.
const maxReasons = 3

// Range aggregates a slice of the curve.
type Range struct {
	TotalImpact float64 `json:"totalImpact"`
	PeakMinute  *int    `json:"peakMinute"`
	PeakValue   float64 `json:"peakValue"`
}

// RangeImpact sums buckets in [startHour*60, endHour*60+59] and reports the
// earliest bucket holding the maximum. An empty range yields a nil peak.
func RangeImpact(buckets []Bucket, startHour, endHour int) Range {
	from, to := startHour*60, endHour*60+59
	var out Range
	for _, b := range buckets {
		if b.MinuteOfDay < from || b.MinuteOfDay > to {
			continue
		}
		out.TotalImpact += b.Value
		if out.PeakMinute == nil || b.Value > out.PeakValue {
			minute := b.MinuteOfDay
			out.PeakMinute = &minute
			out.PeakValue = b.Value
		}
	}
	return out
}

// Explain names up to three events whose profile window covers
// targetMinute. It is best-effort and not exhaustive.
func (e *Engine) Explain(events []model.RawEvent, targetMinute int) []string {
	reasons := make([]string, 0, maxReasons)
	for _, ev := range events {
		if len(reasons) == maxReasons {
			break
		}
		if reason, ok := e.reason(ev, targetMinute); ok {
			reasons = append(reasons, reason)
		}
	}
	return reasons
}

func (e *Engine) reason(ev model.RawEvent, target int) (string, bool) {
	m := e.resolver.Resolve(ev)
	if m == nil {
		return "", false
	}
	p := e.profiles.For(ev.Sport)
	if p.Block != nil {
		if !p.Block.coversMinute(target) {
			return "", false
		}
		return fmt.Sprintf("%s: %s day window %s-%s (%s confidence)",
			ev.Name(), ev.NormalizedSport(), clock(p.Block.StartHour*60), clock(p.Block.EndHour*60), p.Confidence), true
	}
	start, ok := e.startMinute(m)
	if !ok {
		return "", false
	}
	for _, ph := range p.Phases {
		from, to := phaseSpan(start, ph)
		if target >= from && target <= to {
			return fmt.Sprintf("%s: %s %s %s-%s (%s confidence)",
				ev.Name(), ev.NormalizedSport(), ph.Label, clock(from), clock(to), p.Confidence), true
		}
	}
	return "", false
}

// clock renders a minute-of-day as HH:MM, wrapping across midnight.
func clock(minute int) string {
	const day = 24 * 60
	minute = ((minute % day) + day) % day
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
