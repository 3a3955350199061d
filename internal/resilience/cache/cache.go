// Package cache provides a time-bounded keyed cache for previously computed
// results. Keys are derived from normalized request parameters so that
// semantically identical requests share one entry. Entries expire after a
// configured TTL; expired entries are removed lazily on lookup and swept in
// bulk on every write, with no background task.
package cache

import (
	"sort"
	"sync"
	"time"
)

// Recorder receives cache effectiveness events. Implementations must be safe
// for concurrent use.
type Recorder interface {
	Hit()
	Miss()
	Evicted(n int)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) Hit()        {}
func (NopRecorder) Miss()       {}
func (NopRecorder) Evicted(int) {}

// Stats is a point-in-time view of the entry set.
type Stats struct {
	// Total counts all stored entries, including expired ones that have not
	// been swept yet.
	Total int
	// Active counts only entries that are still within their TTL.
	Active int
}

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Cache maps a normalized request fingerprint to an immutable snapshot of a
// prior result. All access is serialized by an internal mutex.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[uint64]entry[V]

	ttl        time.Duration
	maxEntries int

	now      func() time.Time
	recorder Recorder
}

// Option configures optional cache behavior.
type Option[V any] func(*Cache[V])

// WithMaxEntries bounds the entry set. When a write pushes the cache past the
// bound after expired entries were swept, the oldest entries are evicted.
// Zero means unbounded.
func WithMaxEntries[V any](n int) Option[V] {
	return func(c *Cache[V]) { c.maxEntries = n }
}

// WithRecorder installs a hit/miss recorder.
func WithRecorder[V any](r Recorder) Option[V] {
	return func(c *Cache[V]) { c.recorder = r }
}

// WithClock overrides the time source. Used in tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) { c.now = now }
}

// New creates a cache whose entries are valid for ttl after creation.
func New[V any](ttl time.Duration, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		entries:  make(map[uint64]entry[V]),
		ttl:      ttl,
		now:      time.Now,
		recorder: NopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for params if a non-expired entry exists.
// An expired entry found during lookup is removed as a side effect.
func (c *Cache[V]) Get(params Params) (V, bool) {
	var zero V
	key := Key(params)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.recorder.Miss()
		return zero, false
	}
	if c.expired(e, c.now()) {
		delete(c.entries, key)
		c.recorder.Miss()
		return zero, false
	}
	c.recorder.Hit()
	return e.value, true
}

// Put stores value under the canonical key for params, overwriting any prior
// entry, and sweeps the whole entry set removing expired entries. When a
// maximum entry count is configured, the oldest entries are evicted until the
// cache fits the bound.
func (c *Cache[V]) Put(params Params, value V) {
	key := Key(params)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, createdAt: now}

	evicted := 0
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
			evicted++
		}
	}
	evicted += c.enforceBound()
	if evicted > 0 {
		c.recorder.Evicted(evicted)
	}
}

// enforceBound evicts the oldest entries until the entry count fits
// maxEntries. Caller must hold the mutex.
func (c *Cache[V]) enforceBound() int {
	if c.maxEntries <= 0 || len(c.entries) <= c.maxEntries {
		return 0
	}

	type aged struct {
		key       uint64
		createdAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, createdAt: e.createdAt})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].createdAt.Before(all[j].createdAt)
	})

	excess := len(c.entries) - c.maxEntries
	for i := 0; i < excess; i++ {
		delete(c.entries, all[i].key)
	}
	return excess
}

// Stats counts total and non-expired entries as of the call.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s := Stats{Total: len(c.entries)}
	for _, e := range c.entries {
		if !c.expired(e, now) {
			s.Active++
		}
	}
	return s
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]entry[V])
}

func (c *Cache[V]) expired(e entry[V], now time.Time) bool {
	return now.Sub(e.createdAt) >= c.ttl
}
