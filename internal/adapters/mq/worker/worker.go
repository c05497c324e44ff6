// Package worker drains the ingestion queue into the event catalogue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/fanpulse/internal/adapters/mq/queue"
	"github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/internal/domain/timemodel"
	"github.com/okian/fanpulse/pkg/logger"
	"github.com/okian/fanpulse/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Upserter stores a record by id.
type Upserter interface {
	Upsert(ctx context.Context, ev model.RawEvent) (bool, error)
}

// Resolver classifies a record into a temporal model.
type Resolver interface {
	Resolve(ev model.RawEvent) *timemodel.Model
}

// Source delivers queued items.
type Source interface {
	Dequeue() <-chan queue.Item
}

// InMemoryWorker processes items from a Source.
type InMemoryWorker struct {
	source    Source
	resolver  Resolver
	store     Upserter
	name      string
	onFailure func(ctx context.Context, it queue.Item)

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(source Source, resolver Resolver, store Upserter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:   source,
		resolver: resolver,
		store:    store,
		name:     "worker",
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes items until the source is closed and drained or ctx ends.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case it, ok := <-items:
			if !ok {
				return
			}
			if err := w.process(ctx, it); err != nil {
				w.logger.Error(ctx, "error processing event",
					logger.String("eventID", it.Event.ID),
					logger.String("batchID", it.BatchID),
					logger.Error(err),
				)
				if w.onFailure != nil {
					w.onFailure(ctx, it)
				}
			}
		}
	}
}

// Done is closed once Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, it queue.Item) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if m := w.resolver.Resolve(it.Event); m != nil {
		metrics.RecordResolution(string(m.Kind))
	} else {
		metrics.RecordResolution("unresolved")
		w.logger.Debug(ctx, "event has no usable start; it will read as ended",
			logger.String("eventID", it.Event.ID),
			logger.String("sport", it.Event.Sport),
		)
	}

	created, err := w.store.Upsert(ctx, it.Event)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store event %s: %w", it.Event.ID, err)
	}
	if created {
		w.logger.Debug(ctx, "event stored", logger.String("eventID", it.Event.ID))
	}
	return nil
}

// Pool manages multiple workers reading one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   queue.Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses
// one worker per CPU.
func NewPool(workerCount int, q queue.Queue, resolver Resolver, store Upserter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, resolver, store, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start runs every worker in its own goroutine.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
