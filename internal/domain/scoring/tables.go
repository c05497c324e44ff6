package scoring

// Band is a qualitative risk label.
type Band string

// Risk bands.
const (
	Critical Band = "Critical"
	HighBand Band = "High"
	Elevated Band = "Elevated"
	Moderate Band = "Moderate"
	Low      Band = "Low"
)

// Threshold maps a minimum score to a value.
type Threshold[T any] struct {
	Min   int `json:"min"`
	Value T   `json:"value"`
}

// ThresholdTable is ordered from the highest minimum to the lowest.
type ThresholdTable[T any] []Threshold[T]

// Lookup returns the value of the first entry whose minimum score meets or
// is exceeded by score. It reports false when no entry matches.
func (t ThresholdTable[T]) Lookup(score int) (T, bool) {
	for _, th := range t {
		if score >= th.Min {
			return th.Value, true
		}
	}
	var zero T
	return zero, false
}

// DefaultBands returns the band thresholds.
func DefaultBands() ThresholdTable[Band] {
	return ThresholdTable[Band]{
		{Min: 80, Value: Critical},
		{Min: 65, Value: HighBand},
		{Min: 50, Value: Elevated},
		{Min: 35, Value: Moderate},
		{Min: 0, Value: Low},
	}
}

// DefaultStaffing returns the staffing multiplier thresholds.
func DefaultStaffing() ThresholdTable[float64] {
	return ThresholdTable[float64]{
		{Min: 80, Value: 1.18},
		{Min: 65, Value: 1.12},
		{Min: 50, Value: 1.08},
		{Min: 35, Value: 1.05},
		{Min: 0, Value: 1.0},
	}
}

// Signal names the Result field a driver is gated on.
type Signal string

// Driver signals.
const (
	SignalPercentile Signal = "percentile"
	SignalSpatial    Signal = "spatialOverlap"
	SignalTime       Signal = "timeOverlap"
)

// Value extracts the signal from r.
func (s Signal) Value(r Result) int {
	switch s {
	case SignalPercentile:
		return r.Percentile
	case SignalSpatial:
		return r.SpatialOverlap
	case SignalTime:
		return r.TimeOverlap
	default:
		return 0
	}
}

// Driver is an explanation shown when its signal reaches Min.
type Driver struct {
	Signal Signal `json:"signal"`
	Min    int    `json:"min"`
	Text   string `json:"text"`
}

// DefaultDrivers returns the driver explanations.
func DefaultDrivers() []Driver {
	return []Driver{
		{Signal: SignalPercentile, Min: 70, Text: "Fixture count is high against recent days"},
		{Signal: SignalSpatial, Min: 1, Text: "Several fixtures fall within the anchor radius"},
		{Signal: SignalTime, Min: 1, Text: "Kickoffs cluster within the overlap window"},
	}
}

// DefaultActions returns recommended actions per band.
func DefaultActions() map[Band][]string {
	return map[Band][]string{
		Critical: {
			"Activate surge staffing on transport hubs",
			"Issue public travel advisory",
			"Coordinate with venue stewards on staggered exits",
		},
		HighBand: {
			"Extend staffing at nearby stations",
			"Publish alternative route guidance",
		},
		Elevated: {
			"Brief control room on overlapping fixtures",
			"Monitor arrival flows from 90 minutes before kickoff",
		},
		Moderate: {
			"Monitor key corridors around kickoff",
		},
		Low: {
			"Standard operations",
		},
	}
}

// Tables bundles the lookup tables used by Assess.
type Tables struct {
	Bands    ThresholdTable[Band]
	Staffing ThresholdTable[float64]
	Drivers  []Driver
	Actions  map[Band][]string
}

// DefaultTables returns fresh copies of every default table.
func DefaultTables() Tables {
	return Tables{
		Bands:    DefaultBands(),
		Staffing: DefaultStaffing(),
		Drivers:  DefaultDrivers(),
		Actions:  DefaultActions(),
	}
}

// Assessment is the guidance derived from a Result.
type Assessment struct {
	Band     Band     `json:"band"`
	Staffing float64  `json:"staffingMultiplier"`
	Drivers  []string `json:"drivers"`
	Actions  []string `json:"actions"`
}

// Assess maps r onto t.
func Assess(r Result, t Tables) Assessment {
	a := Assessment{Band: Low, Staffing: 1.0, Drivers: []string{}, Actions: []string{}}
	if b, ok := t.Bands.Lookup(r.FinalScore); ok {
		a.Band = b
	}
	if m, ok := t.Staffing.Lookup(r.FinalScore); ok {
		a.Staffing = m
	}
	for _, d := range t.Drivers {
		if d.Signal.Value(r) >= d.Min {
			a.Drivers = append(a.Drivers, d.Text)
		}
	}
	a.Actions = append(a.Actions, t.Actions[a.Band]...)
	return a
}
