// Package repository holds the in-memory catalogue of feed events.
package repository

import (
	"context"

	"github.com/okian/fanpulse/internal/domain/model"
)

// Store provides read/write access to the event catalogue.
type Store interface {
	// Upsert inserts or replaces ev by id. It reports whether ev was new.
	Upsert(ctx context.Context, ev model.RawEvent) (bool, error)

	// Get returns the event with id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.RawEvent, error)

	// List returns every event ordered by id. Callers must not modify the
	// returned slice.
	List(ctx context.Context) []model.RawEvent

	// Count returns the number of events held.
	Count(ctx context.Context) int
}
