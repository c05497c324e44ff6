package worker

import (
	"context"

	"github.com/okian/fanpulse/internal/adapters/mq/queue"
	"github.com/okian/fanpulse/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithFailureHook is called with every item the worker could not store.
func WithFailureHook(fn func(ctx context.Context, it queue.Item)) Option {
	return func(w *InMemoryWorker) {
		w.onFailure = fn
	}
}
