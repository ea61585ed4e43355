// Package localcache provides an in-process LRU implementation of ports.Cache.
package localcache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecoledesexcellents/ecole-ui/internal/ports"
)

var _ ports.Cache = (*LRU)(nil)

// DefaultCapacity is used when Config.Capacity is not positive.
const DefaultCapacity = 256

// LRU is a small in-memory LRU cache with per-entry TTL.
// Concurrency: methods are safe for concurrent use.
type LRU struct {
	mu     sync.Mutex
	cap    int
	ll     *list.List               // front = most-recently used
	items  map[string]*list.Element // key -> element
	now    func() time.Time
	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
}

type entry struct {
	key    string
	value  []byte
	expiry time.Time // zero means no expiry
}

// Config groups constructor options.
type Config struct {
	Capacity int
	Now      func() time.Time
}

// New creates an LRU.
func New(cfg Config) *LRU {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &LRU{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[string]*list.Element, capacity),
		now:   nowFn,
	}
}

// Get returns nil, nil when key is absent or expired. Returned slices are copies.
func (c *LRU) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.items[key]
	if !found {
		c.misses.Add(1)
		return nil, nil
	}
	ent := el.Value.(*entry)
	if c.isExpired(ent) {
		c.removeElement(el)
		c.misses.Add(1)
		return nil, nil
	}
	c.ll.MoveToFront(el)
	c.hits.Add(1)
	return append([]byte(nil), ent.value...), nil
}

// Set inserts or updates a value. ttl <= 0 means no expiration.
func (c *LRU) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	value = append([]byte(nil), value...)

	if el, found := c.items[key]; found {
		ent := el.Value.(*entry)
		ent.value = value
		ent.expiry = exp
		c.ll.MoveToFront(el)
		return nil
	}

	c.items[key] = c.ll.PushFront(&entry{key: key, value: value, expiry: exp})
	c.evictIfNeeded()
	return nil
}

// Delete removes key and reports whether it was present.
func (c *LRU) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false, nil
	}
	expired := c.isExpired(el.Value.(*entry))
	c.removeElement(el)
	return !expired, nil
}

// Len returns the number of stored entries, expired ones included.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Stats are simple counters for observability.
type Stats struct {
	Hits, Misses, Evictions uint64
	Size, Capacity          int
}

// Stats returns a snapshot of counters and sizes.
func (c *LRU) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicts.Load(),
		Size:      c.Len(),
		Capacity:  c.cap,
	}
}

// Helpers below require c.mu.
func (c *LRU) isExpired(e *entry) bool {
	if e.expiry.IsZero() {
		return false
	}
	return c.now().After(e.expiry)
}

func (c *LRU) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

func (c *LRU) evictIfNeeded() {
	for c.ll.Len() > c.cap {
		el := c.ll.Back()
		if el == nil {
			return
		}
		c.removeElement(el)
		c.evicts.Add(1)
	}
}
