package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/fanpulse/internal/domain/congestion"
	"github.com/okian/fanpulse/internal/domain/lifecycle"
	"github.com/okian/fanpulse/internal/domain/mobility"
	"github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/internal/domain/scoring"
	"github.com/okian/fanpulse/internal/domain/spatial"
	"github.com/okian/fanpulse/internal/domain/timemodel"
	"github.com/okian/fanpulse/pkg/metrics"
)

// DefaultRiskRadiusKm is the radius used when a risk query names none.
const DefaultRiskRadiusKm = 25

// zone bundles the engine components bound to one local timezone.
type zone struct {
	resolver   *timemodel.Resolver
	classifier *lifecycle.Classifier
	mobility   *mobility.Engine
	congestion *congestion.Aggregator
	league     *congestion.Aggregator
	scorer     *scoring.Scorer
}

type evaluatorConfig struct {
	location         *time.Location
	regions          map[string]*time.Location
	durations        map[string]time.Duration
	soonWindows      map[string]time.Duration
	window           mobility.Window
	thresholds       congestion.Thresholds
	leagueThresholds congestion.Thresholds
	overlapWindow    time.Duration
	radiusKm         float64
	tables           scoring.Tables
	profiles         *mobility.ProfileTable
}

// EvaluatorOption applies a configuration option to the Evaluator.
type EvaluatorOption func(*evaluatorConfig)

// WithLocation sets the default local zone.
func WithLocation(loc *time.Location) EvaluatorOption {
	return func(c *evaluatorConfig) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithRegionLocations sets per-region zones, keyed case-insensitively.
func WithRegionLocations(regions map[string]*time.Location) EvaluatorOption {
	return func(c *evaluatorConfig) {
		for r, loc := range regions {
			if loc != nil {
				c.regions[strings.ToLower(strings.TrimSpace(r))] = loc
			}
		}
	}
}

// WithDurationOverrides patches the fixed-model duration table.
func WithDurationOverrides(d map[string]time.Duration) EvaluatorOption {
	return func(c *evaluatorConfig) { c.durations = d }
}

// WithSoonWindowOverrides patches the soon-window table.
func WithSoonWindowOverrides(d map[string]time.Duration) EvaluatorOption {
	return func(c *evaluatorConfig) { c.soonWindows = d }
}

// WithBucketWindow sets the default mobility window.
func WithBucketWindow(w mobility.Window) EvaluatorOption {
	return func(c *evaluatorConfig) { c.window = w }
}

// WithCongestionThresholds sets the general and single-competition
// thresholds.
func WithCongestionThresholds(general, league congestion.Thresholds) EvaluatorOption {
	return func(c *evaluatorConfig) {
		c.thresholds = general
		c.leagueThresholds = league
	}
}

// WithRiskOverlapWindow sets the risk time overlap window.
func WithRiskOverlapWindow(d time.Duration) EvaluatorOption {
	return func(c *evaluatorConfig) { c.overlapWindow = d }
}

// WithRiskRadiusKm sets the default risk radius.
func WithRiskRadiusKm(km float64) EvaluatorOption {
	return func(c *evaluatorConfig) {
		if km > 0 {
			c.radiusKm = km
		}
	}
}

// WithRiskTables replaces the risk guidance tables.
func WithRiskTables(t scoring.Tables) EvaluatorOption {
	return func(c *evaluatorConfig) { c.tables = t }
}

// WithProfiles replaces the mobility profile table.
func WithProfiles(t mobility.ProfileTable) EvaluatorOption {
	return func(c *evaluatorConfig) { c.profiles = &t }
}

// Evaluator runs the engine over caller-supplied events. It does the
// filtering the engine leaves to callers: scope, date and radius.
// It is immutable and safe for concurrent use.
type Evaluator struct {
	base     *zone
	regions  map[string]*zone
	window   mobility.Window
	tables   scoring.Tables
	radiusKm float64
}

// NewEvaluator builds an evaluator.
func NewEvaluator(opts ...EvaluatorOption) (*Evaluator, error) {
	c := evaluatorConfig{
		regions:          make(map[string]*time.Location),
		window:           mobility.DefaultWindow(),
		thresholds:       congestion.DefaultThresholds(),
		leagueThresholds: congestion.LeagueThresholds(),
		overlapWindow:    scoring.DefaultOverlapWindow,
		radiusKm:         DefaultRiskRadiusKm,
		tables:           scoring.DefaultTables(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.window.Validate(); err != nil {
		return nil, err
	}

	resolverOpts := []timemodel.Option{
		timemodel.WithDurations(timemodel.DefaultDurations().Override(c.durations)),
	}
	if c.location != nil {
		resolverOpts = append(resolverOpts, timemodel.WithLocation(c.location))
	}
	base := timemodel.NewResolver(resolverOpts...)
	soon := lifecycle.DefaultSoonWindows().Override(c.soonWindows)

	build := func(r *timemodel.Resolver) *zone {
		var mopts []mobility.Option
		if c.profiles != nil {
			mopts = append(mopts, mobility.WithProfiles(*c.profiles))
		}
		return &zone{
			resolver:   r,
			classifier: lifecycle.NewClassifier(r, lifecycle.WithSoonWindows(soon)),
			mobility:   mobility.NewEngine(r, mopts...),
			congestion: congestion.NewAggregator(r, congestion.WithThresholds(c.thresholds)),
			league:     congestion.NewAggregator(r, congestion.WithThresholds(c.leagueThresholds)),
			scorer:     scoring.NewScorer(r, scoring.WithOverlapWindow(c.overlapWindow)),
		}
	}

	e := &Evaluator{
		base:     build(base),
		regions:  make(map[string]*zone, len(c.regions)),
		window:   c.window,
		tables:   c.tables,
		radiusKm: c.radiusKm,
	}
	for region, loc := range c.regions {
		e.regions[region] = build(base.WithLocationOf(loc))
	}
	return e, nil
}

func (e *Evaluator) zoneFor(region string) *zone {
	if z, ok := e.regions[strings.ToLower(strings.TrimSpace(region))]; ok {
		return z
	}
	return e.base
}

// Resolver returns the default-zone resolver.
func (e *Evaluator) Resolver() *timemodel.Resolver {
	return e.base.resolver
}

// Window returns the default mobility window.
func (e *Evaluator) Window() mobility.Window {
	return e.window
}

// Location returns the zone used for region.
func (e *Evaluator) Location(region string) *time.Location {
	return e.zoneFor(region).resolver.Location()
}

// DateKey formats t as the local date of region.
func (e *Evaluator) DateKey(region string, t time.Time) string {
	return e.zoneFor(region).resolver.DateKey(t)
}

func (e *Evaluator) dayStart(z *zone, date string) (time.Time, error) {
	day, ok := z.resolver.DayStart(date)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, date)
	}
	return day, nil
}

// startingOn keeps scoped events whose resolved start falls on date.
func (e *Evaluator) startingOn(z *zone, events []model.RawEvent, scope model.Scope) ([]model.RawEvent, error) {
	day, err := e.dayStart(z, scope.Date)
	if err != nil {
		return nil, err
	}
	key := z.resolver.DateKey(day)
	out := make([]model.RawEvent, 0, len(events))
	for _, ev := range events {
		if !scope.Matches(ev) {
			continue
		}
		if m := z.resolver.Resolve(ev); m != nil && z.resolver.DateKey(m.Start) == key {
			out = append(out, ev)
		}
	}
	return out, nil
}

// touching keeps scoped events whose window overlaps date. An empty date
// keeps every scoped event.
func (e *Evaluator) touching(z *zone, events []model.RawEvent, scope model.Scope) ([]model.RawEvent, error) {
	if strings.TrimSpace(scope.Date) == "" {
		out := make([]model.RawEvent, 0, len(events))
		for _, ev := range events {
			if scope.Matches(ev) {
				out = append(out, ev)
			}
		}
		return out, nil
	}
	day, err := e.dayStart(z, scope.Date)
	if err != nil {
		return nil, err
	}
	out := make([]model.RawEvent, 0, len(events))
	for _, ev := range events {
		if !scope.Matches(ev) {
			continue
		}
		if m := z.resolver.Resolve(ev); m != nil && m.Touches(day) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// StateView is the lifecycle state of one event.
type StateView struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Sport             string           `json:"sport"`
	State             lifecycle.State  `json:"state"`
	SoonWindowMinutes int              `json:"soonWindowMinutes"`
	Model             *timemodel.Model `json:"model,omitempty"`
}

// State evaluates ev at now. A non-nil soon overrides the sport window.
func (e *Evaluator) State(ev model.RawEvent, now time.Time, soon *time.Duration) StateView {
	z := e.zoneFor(ev.Region)
	window := z.classifier.SoonWindow(ev)
	if soon != nil {
		window = *soon
	}
	m := z.resolver.Resolve(ev)
	st := lifecycle.StateOf(m, now, window)
	metrics.RecordLifecycleState(string(st))
	return StateView{
		ID:                ev.ID,
		Name:              ev.Name(),
		Sport:             ev.Sport,
		State:             st,
		SoonWindowMinutes: int(window / time.Minute),
		Model:             m,
	}
}

// States evaluates every event in scope that touches the scope date.
func (e *Evaluator) States(events []model.RawEvent, scope model.Scope, now time.Time) ([]StateView, error) {
	defer observe("lifecycle", time.Now())
	in, err := e.touching(e.zoneFor(scope.Region), events, scope)
	if err != nil {
		return nil, err
	}
	out := make([]StateView, 0, len(in))
	for _, ev := range in {
		out = append(out, e.State(ev, now, nil))
	}
	return out, nil
}

// MobilityView is the bucket curve for a date.
type MobilityView struct {
	Date    string            `json:"date"`
	Window  mobility.Window   `json:"window"`
	Events  int               `json:"events"`
	Buckets []mobility.Bucket `json:"buckets"`
	Peak    mobility.Range    `json:"peak"`
}

// Mobility builds the curve for events starting on the scope date. A nil
// window uses the configured one.
func (e *Evaluator) Mobility(events []model.RawEvent, scope model.Scope, w *mobility.Window) (MobilityView, error) {
	defer observe("mobility", time.Now())
	window := e.window
	if w != nil {
		window = *w
	}
	z := e.zoneFor(scope.Region)
	in, err := e.startingOn(z, events, scope)
	if err != nil {
		return MobilityView{}, err
	}
	buckets, err := z.mobility.BuildBuckets(in, window)
	if err != nil {
		return MobilityView{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return MobilityView{
		Date:    scope.Date,
		Window:  window,
		Events:  len(in),
		Buckets: buckets,
		Peak:    mobility.RangeImpact(buckets, window.StartHour, window.EndHour),
	}, nil
}

// MobilityRange sums the curve over [fromHour:00, toHour:59].
func (e *Evaluator) MobilityRange(events []model.RawEvent, scope model.Scope, fromHour, toHour int) (mobility.Range, error) {
	if fromHour < 0 || toHour > 23 || fromHour > toHour {
		return mobility.Range{}, fmt.Errorf("%w: hour range %d-%d", ErrInvalidQuery, fromHour, toHour)
	}
	view, err := e.Mobility(events, scope, nil)
	if err != nil {
		return mobility.Range{}, err
	}
	return mobility.RangeImpact(view.Buckets, fromHour, toHour), nil
}

// Explain attributes pressure at minute of the scope date.
func (e *Evaluator) Explain(events []model.RawEvent, scope model.Scope, minute int) ([]string, error) {
	if minute < 0 || minute >= 24*60 {
		return nil, fmt.Errorf("%w: minute %d", ErrInvalidQuery, minute)
	}
	z := e.zoneFor(scope.Region)
	in, err := e.startingOn(z, events, scope)
	if err != nil {
		return nil, err
	}
	return z.mobility.Explain(in, minute), nil
}

// CongestionView is the congestion summary for a scope.
type CongestionView struct {
	Scope      model.Scope           `json:"scope"`
	Timezone   string                `json:"timezone"`
	Thresholds congestion.Thresholds `json:"thresholds"`
	congestion.Summary
}

// Congestion summarizes events starting on the scope date. A scope pinned
// to one competition uses the league thresholds.
func (e *Evaluator) Congestion(events []model.RawEvent, scope model.Scope) (CongestionView, error) {
	defer observe("congestion", time.Now())
	z := e.zoneFor(scope.Region)
	in, err := e.startingOn(z, events, scope)
	if err != nil {
		return CongestionView{}, err
	}
	agg := z.congestion
	if scope.SingleCompetition() {
		agg = z.league
	}
	s := agg.Summarize(in)
	metrics.RecordCongestionLevel(string(s.Level))
	return CongestionView{
		Scope:      scope,
		Timezone:   z.resolver.Location().String(),
		Thresholds: agg.Thresholds(),
		Summary:    s,
	}, nil
}

// RiskView is the risk result with its guidance.
type RiskView struct {
	Date       string          `json:"date"`
	Anchor     *model.Location `json:"anchor"`
	RadiusKm   float64         `json:"radiusKm"`
	Considered int             `json:"considered"`
	scoring.Result
	Assessment *scoring.Assessment `json:"assessment,omitempty"`
}

// Risk scores the scope date around anchor. History spans every date of
// the scoped events within the radius. A nil anchor yields a zero result
// with no assessment.
func (e *Evaluator) Risk(events []model.RawEvent, scope model.Scope, anchor *model.Location, radiusKm float64) (RiskView, error) {
	defer observe("risk", time.Now())
	if radiusKm <= 0 {
		radiusKm = e.radiusKm
	}
	z := e.zoneFor(scope.Region)
	if _, err := e.dayStart(z, scope.Date); err != nil {
		return RiskView{}, err
	}
	view := RiskView{Date: scope.Date, Anchor: anchor, RadiusKm: radiusKm}
	if anchor == nil {
		view.Result = z.scorer.Score(nil, scope.Date, nil)
		return view, nil
	}
	if !spatial.Valid(*anchor) {
		return RiskView{}, fmt.Errorf("%w: anchor %v,%v out of range", ErrInvalidQuery, anchor.Lat, anchor.Lng)
	}

	unscoped := scope
	unscoped.Date = ""
	scoped := make([]model.RawEvent, 0, len(events))
	for _, ev := range events {
		if unscoped.Matches(ev) {
			scoped = append(scoped, ev)
		}
	}
	near := spatial.WithinRadius(scoped, *anchor, radiusKm)

	view.Considered = len(near)
	view.Result = z.scorer.Score(near, scope.Date, anchor)
	a := scoring.Assess(view.Result, e.tables)
	view.Assessment = &a
	metrics.RecordRiskScore(view.FinalScore)
	return view, nil
}

// Report is the combined offline evaluation for one date.
type Report struct {
	Date       string         `json:"date"`
	Now        time.Time      `json:"now"`
	States     []StateView    `json:"states"`
	Mobility   MobilityView   `json:"mobility"`
	Congestion CongestionView `json:"congestion"`
	Risk       RiskView       `json:"risk"`
}

// Report runs every engine component for scope at now.
func (e *Evaluator) Report(events []model.RawEvent, scope model.Scope, now time.Time, anchor *model.Location) (Report, error) {
	states, err := e.States(events, scope, now)
	if err != nil {
		return Report{}, err
	}
	mob, err := e.Mobility(events, scope, nil)
	if err != nil {
		return Report{}, err
	}
	cong, err := e.Congestion(events, scope)
	if err != nil {
		return Report{}, err
	}
	risk, err := e.Risk(events, scope, anchor, 0)
	if err != nil {
		return Report{}, err
	}
	return Report{Date: scope.Date, Now: now, States: states, Mobility: mob, Congestion: cong, Risk: risk}, nil
}

func observe(component string, start time.Time) {
	metrics.RecordEngineLatency(component, float64(time.Since(start).Microseconds())/1000)
}
