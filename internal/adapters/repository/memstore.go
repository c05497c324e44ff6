package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/pkg/metrics"
)

// MemoryStore is a map-backed Store. Reads of the full list are served from
// an immutable snapshot rebuilt after the first read following a write.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]model.RawEvent

	snapshot atomic.Pointer[[]model.RawEvent]
}

// NewMemoryStore constructs an empty catalogue.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]model.RawEvent)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert implements Store.Upsert.
func (s *MemoryStore) Upsert(_ context.Context, ev model.RawEvent) (bool, error) {
	if !ev.Valid() {
		metrics.RecordErrorByComponent("repository", "invalid_event")
		return false, fmt.Errorf("upsert %q: %w", ev.ID, ErrInvalidEvent)
	}

	s.mu.Lock()
	_, exists := s.byID[ev.ID]
	s.byID[ev.ID] = ev
	n := len(s.byID)
	s.snapshot.Store(nil)
	s.mu.Unlock()

	metrics.UpdateStoreSize(n)
	return !exists, nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (model.RawEvent, error) {
	s.mu.RLock()
	ev, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.RawEvent{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return ev, nil
}

// List implements Store.List.
func (s *MemoryStore) List(_ context.Context) []model.RawEvent {
	if snap := s.snapshot.Load(); snap != nil {
		return *snap
	}

	start := time.Now()
	s.mu.RLock()
	out := make([]model.RawEvent, 0, len(s.byID))
	for _, ev := range s.byID {
		out = append(out, ev)
	}
	// Publish while holding the read lock so a concurrent writer cannot
	// clear the snapshot before this one lands.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	s.snapshot.Store(&out)
	s.mu.RUnlock()

	metrics.RecordEngineLatency("repository_snapshot", float64(time.Since(start).Microseconds())/1000)
	return out
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
