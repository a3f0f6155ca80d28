// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

// Package cache provides the bounded in-memory caches used by the
// recommendation pipeline. The caches here bound memory by entry count with
// insertion-order eviction, which matches the access pattern of geocode and
// place-search results: repeated queries over a small working set, where
// strict recency tracking buys nothing over a simple ring.
package cache

import (
	"sync"
)

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
}

// BoundedCache is a thread-safe fixed-capacity cache with insertion-order
// eviction: when an insert would exceed capacity, the oldest-inserted entry is
// removed first. Reads do not affect eviction order (this is deliberately not
// an LRU), and updating an existing key keeps its original insertion slot.
//
// The zero value is not usable; construct with NewBounded.
type BoundedCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]V

	// order is a ring of insertion order. head indexes the oldest key and
	// is only meaningful while len(items) > 0.
	order []K
	head  int

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewBounded creates a bounded cache holding at most capacity entries.
// A non-positive capacity falls back to 16.
func NewBounded[K comparable, V any](capacity int) *BoundedCache[K, V] {
	if capacity <= 0 {
		capacity = 16
	}
	return &BoundedCache[K, V]{
		capacity: capacity,
		items:    make(map[K]V, capacity),
		order:    make([]K, capacity),
	}
}

// Get returns the cached value for key.
func (c *BoundedCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.items[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Put inserts or updates key. Inserting a new key into a full cache evicts
// exactly one entry, the oldest-inserted one. Updates leave the insertion
// order untouched.
func (c *BoundedCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; exists {
		c.items[key] = value
		return
	}

	if len(c.items) >= c.capacity {
		oldest := c.order[c.head]
		delete(c.items, oldest)
		c.evictions++
		// The freed head slot becomes the newest slot.
		c.order[c.head] = key
		c.head = (c.head + 1) % c.capacity
	} else {
		c.order[(c.head+len(c.items))%c.capacity] = key
	}
	c.items[key] = value
}

// Contains reports whether key is cached without counting a hit or miss.
func (c *BoundedCache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Len returns the current number of entries.
func (c *BoundedCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the configured maximum entry count.
func (c *BoundedCache[K, V]) Capacity() int {
	return c.capacity
}

// Clear removes all entries. Counters are preserved.
func (c *BoundedCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V, c.capacity)
	c.head = 0
}

// Stats returns a snapshot of the cache counters.
func (c *BoundedCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.items),
		Capacity:  c.capacity,
	}
}
