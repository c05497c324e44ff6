// Package dedupe tracks feed record fingerprints so unchanged re-deliveries
// are skipped.
package dedupe

import (
	"container/list"
	"context"
	"encoding/json"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/okian/fanpulse/internal/domain/model"
)

const defaultMaxSize = 50000

// Deduper records seen fingerprints.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded, recording it
	// when it was not.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so a record rejected downstream (for example by
	// queue backpressure) can be retried.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper evicts the oldest fingerprint once maxSize is reached.
// A maxSize <= 0 keeps every fingerprint.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushBack(key)
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.seen, front.Value.(string))
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// Fingerprint identifies a record by id and content, so a changed record
// under the same id is not treated as a duplicate.
func Fingerprint(ev model.RawEvent) string {
	h := fnv.New64a()
	if b, err := json.Marshal(ev); err == nil {
		_, _ = h.Write(b)
	}
	return ev.ID + ":" + strconv.FormatUint(h.Sum64(), 16)
}
