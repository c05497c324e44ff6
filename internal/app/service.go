// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fanpulse/internal/adapters/eventsource"
	eventqueue "github.com/okian/fanpulse/internal/adapters/mq/queue"
	workerpool "github.com/okian/fanpulse/internal/adapters/mq/worker"
	"github.com/okian/fanpulse/internal/adapters/repository"
	"github.com/okian/fanpulse/internal/domain/dedupe"
	"github.com/okian/fanpulse/internal/domain/mobility"
	"github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/internal/domain/timemodel"
	"github.com/okian/fanpulse/pkg/logger"
	"github.com/okian/fanpulse/pkg/metrics"
)

const (
	defaultQueueSize  = 10000
	defaultDedupeSize = 50000

	// loadRetryInterval paces source loading while the queue is full.
	loadRetryInterval = 10 * time.Millisecond
)

// Service implements the API dependencies for the event engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	deduper   dedupe.Deduper
	queue     eventqueue.Queue
	pool      *workerpool.Pool
	evaluator *Evaluator
	sources   []eventsource.Source

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the fingerprint cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEvaluator sets the engine evaluator queries run through.
func WithEvaluator(e *Evaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.evaluator = e
		}
	}
}

// WithSources registers feeds loaded on Start.
func WithSources(sources ...eventsource.Source) Option {
	return func(s *Service) {
		s.sources = append(s.sources, sources...)
	}
}

// WithStore replaces the event catalogue.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.evaluator == nil {
		e, err := NewEvaluator()
		if err != nil {
			return nil, err
		}
		s.evaluator = e
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s, nil
}

// Start starts the worker pool and loads the registered sources.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting event service...")

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.evaluator.Resolver(), s.store,
		workerpool.WithFailureHook(func(ctx context.Context, it eventqueue.Item) {
			s.deduper.Unrecord(ctx, it.Fingerprint)
		}),
	)
	s.pool.Start(context.WithoutCancel(ctx))
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "event service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("timezone", s.evaluator.Location("").String()),
	)

	for _, src := range s.sources {
		if err := s.load(ctx, src); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, src eventsource.Source) error {
	events, err := src.Load(ctx)
	if err != nil {
		metrics.RecordSourceLoad(src.Name(), "error")
		s.logger.Error(ctx, "source load failed", logger.String("source", src.Name()), logger.Error(err))
		return err
	}
	res, err := s.ingest(ctx, events, true)
	if err != nil {
		metrics.RecordSourceLoad(src.Name(), "error")
		return fmt.Errorf("ingest %s source: %w", src.Name(), err)
	}
	metrics.RecordSourceLoad(src.Name(), "ok")
	s.logger.Info(ctx, "source loaded",
		logger.String("source", src.Name()),
		logger.String("batchID", res.BatchID),
		logger.Int("accepted", res.Accepted),
		logger.Int("duplicates", res.Duplicates),
		logger.Int("rejected", res.Rejected),
	)
	return nil
}

// Stop drains the queue and releases sources.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping event service...")

	var err error
	if s.pool != nil {
		err = s.pool.Shutdown(ctx)
	}
	for _, src := range s.sources {
		if c, ok := src.(interface{ Close() }); ok {
			c.Close()
		}
	}

	s.started = false
	s.logger.Info(ctx, "event service stopped")
	return err
}

// IngestResult reports what happened to a batch.
type IngestResult struct {
	BatchID    string `json:"batchId"`
	Accepted   int    `json:"accepted"`
	Duplicates int    `json:"duplicates"`
	Rejected   int    `json:"rejected"`
}

// Ingest validates, deduplicates and enqueues events. On backpressure it
// stops at the first record the queue refused and returns ErrBackpressure
// with the counts so far.
func (s *Service) Ingest(ctx context.Context, events []model.RawEvent) (IngestResult, error) {
	return s.ingest(ctx, events, false)
}

func (s *Service) ingest(ctx context.Context, events []model.RawEvent, wait bool) (IngestResult, error) {
	s.mu.RLock()
	q, started := s.queue, s.started
	s.mu.RUnlock()

	res := IngestResult{BatchID: uuid.NewString()}
	if !started {
		return res, ErrNotStarted
	}

	for _, ev := range events {
		if !ev.Valid() {
			res.Rejected++
			metrics.RecordEventRejected()
			continue
		}
		fp := dedupe.Fingerprint(ev)
		if s.deduper.SeenAndRecord(ctx, fp) {
			res.Duplicates++
			metrics.RecordEventDuplicate()
			continue
		}
		it := eventqueue.Item{BatchID: res.BatchID, Fingerprint: fp, Event: ev}
		if err := s.enqueue(ctx, q, it, wait); err != nil {
			s.deduper.Unrecord(ctx, fp)
			return res, err
		}
		res.Accepted++
		metrics.RecordEventIngested()
	}
	return res, nil
}

func (s *Service) enqueue(ctx context.Context, q eventqueue.Queue, it eventqueue.Item, wait bool) error {
	for {
		err := q.Enqueue(ctx, it)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, eventqueue.ErrFull) && wait:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(loadRetryInterval):
			}
		case errors.Is(err, eventqueue.ErrFull), errors.Is(err, eventqueue.ErrClosed):
			return fmt.Errorf("%w: %w", ErrBackpressure, err)
		default:
			return err
		}
	}
}

// EventView is a stored record with its resolved temporal model.
type EventView struct {
	Event model.RawEvent   `json:"event"`
	Model *timemodel.Model `json:"model"`
}

// Event returns the stored record id.
func (s *Service) Event(ctx context.Context, id string) (EventView, error) {
	ev, err := s.store.Get(ctx, id)
	if err != nil {
		return EventView{}, err
	}
	return EventView{Event: ev, Model: s.evaluator.zoneFor(ev.Region).resolver.Resolve(ev)}, nil
}

// EventState classifies the stored record id at now.
func (s *Service) EventState(ctx context.Context, id string, now time.Time, soon *time.Duration) (StateView, error) {
	ev, err := s.store.Get(ctx, id)
	if err != nil {
		return StateView{}, err
	}
	return s.evaluator.State(ev, now, soon), nil
}

// States classifies every stored record in scope.
func (s *Service) States(ctx context.Context, scope model.Scope, now time.Time) ([]StateView, error) {
	return s.evaluator.States(s.store.List(ctx), scope, now)
}

// Mobility builds the bucket curve for scope.
func (s *Service) Mobility(ctx context.Context, scope model.Scope, w *mobility.Window) (MobilityView, error) {
	return s.evaluator.Mobility(s.store.List(ctx), scope, w)
}

// MobilityRange sums the curve between two hours.
func (s *Service) MobilityRange(ctx context.Context, scope model.Scope, fromHour, toHour int) (mobility.Range, error) {
	return s.evaluator.MobilityRange(s.store.List(ctx), scope, fromHour, toHour)
}

// Explain attributes pressure at minute.
func (s *Service) Explain(ctx context.Context, scope model.Scope, minute int) ([]string, error) {
	return s.evaluator.Explain(s.store.List(ctx), scope, minute)
}

// Congestion summarizes scope.
func (s *Service) Congestion(ctx context.Context, scope model.Scope) (CongestionView, error) {
	return s.evaluator.Congestion(s.store.List(ctx), scope)
}

// Risk scores scope around anchor.
func (s *Service) Risk(ctx context.Context, scope model.Scope, anchor *model.Location, radiusKm float64) (RiskView, error) {
	return s.evaluator.Risk(s.store.List(ctx), scope, anchor, radiusKm)
}

// DateKey formats t as a local date for region.
func (s *Service) DateKey(region string, t time.Time) string {
	return s.evaluator.DateKey(region, t)
}

// Window returns the configured mobility window.
func (s *Service) Window() mobility.Window {
	return s.evaluator.Window()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.store.Count(ctx)
	stats := map[string]any{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"dedupeEntries": s.deduper.Size(),
		"events":        events,
		"timezone":      s.evaluator.Location("").String(),
	}
	if s.started {
		queueLen := s.queue.Len()
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	metrics.UpdateStoreSize(events)
	return stats
}
