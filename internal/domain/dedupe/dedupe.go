// Package dedupe tracks webhook delivery IDs so a redelivered event is
// acknowledged without scoring or writing back a second time.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Default bound on remembered delivery IDs.
const defaultMaxSize = 50_000

// Deduper records seen delivery IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set, allowing a retry when an
	// event was recorded but processing failed before any side effect.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a bounded seen-set. When the bound
// is reached the oldest recorded ID is evicted (FIFO); with maxSize <= 0 the
// set grows without bound.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion ring, only used in bounded mode
	next    int      // ring write position
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.order = make([]string, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		if evicted := d.order[d.next]; evicted != "" {
			delete(d.seen, evicted)
			d.size.Add(-1)
		}
		d.order[d.next] = id
		d.next = (d.next + 1) % d.maxSize
	}
	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; !exists {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)
	// The ring slot keeps the stale id; eviction of an already-deleted entry
	// is a no-op because the map lookup anchors the truth.
	for i, v := range d.order {
		if v == id {
			d.order[i] = ""
			break
		}
	}
}

// Size returns the current number of remembered IDs.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
