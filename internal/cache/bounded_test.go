// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestBoundedCache_BasicOperations(t *testing.T) {
	t.Parallel()

	c := NewBounded[string, int](3)

	c.Put("a", 1)
	c.Put("b", 2)

	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}

	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Errorf("Get('a') = %d, %v; want 1, true", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Get('missing') should return false")
	}
}

func TestBoundedCache_UpdateKeepsOrder(t *testing.T) {
	t.Parallel()

	c := NewBounded[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	// Updating "a" must not move it to the back of the eviction order.
	c.Put("a", 10)
	c.Put("c", 3) // evicts "a", the oldest insert

	if c.Contains("a") {
		t.Error("'a' should have been evicted as the oldest insert")
	}
	if !c.Contains("b") || !c.Contains("c") {
		t.Error("'b' and 'c' should remain")
	}
}

func TestBoundedCache_CapacityNeverExceeded(t *testing.T) {
	t.Parallel()

	const capacity = 30
	c := NewBounded[string, int](capacity)

	for i := 0; i < capacity; i++ {
		c.Put(fmt.Sprintf("addr-%d", i), i)
	}

	stats := c.Stats()
	if stats.Size != capacity {
		t.Errorf("Size = %d, want %d", stats.Size, capacity)
	}
	if stats.Evictions != 0 {
		t.Errorf("Evictions after filling = %d, want 0", stats.Evictions)
	}

	// The 31st distinct key evicts exactly one prior entry.
	c.Put("addr-overflow", 99)

	stats = c.Stats()
	if stats.Size != capacity {
		t.Errorf("Size after overflow = %d, want %d", stats.Size, capacity)
	}
	if stats.Evictions != 1 {
		t.Errorf("Evictions after overflow = %d, want 1", stats.Evictions)
	}
	if c.Contains("addr-0") {
		t.Error("oldest entry 'addr-0' should have been evicted")
	}
	if !c.Contains("addr-overflow") {
		t.Error("newest entry should be present")
	}
}

func TestBoundedCache_EvictionOrderIsInsertion(t *testing.T) {
	t.Parallel()

	c := NewBounded[int, string](3)
	c.Put(1, "one")
	c.Put(2, "two")
	c.Put(3, "three")

	// Reads must not promote entries; 1 stays the eviction candidate.
	c.Get(1)
	c.Get(1)

	c.Put(4, "four")
	if c.Contains(1) {
		t.Error("entry 1 should be evicted despite recent reads")
	}

	c.Put(5, "five")
	if c.Contains(2) {
		t.Error("entry 2 should be evicted next")
	}

	for _, k := range []int{3, 4, 5} {
		if !c.Contains(k) {
			t.Errorf("entry %d should remain", k)
		}
	}
}

func TestBoundedCache_RingWrapsRepeatedly(t *testing.T) {
	t.Parallel()

	const capacity = 5
	c := NewBounded[int, int](capacity)

	for i := 0; i < 100; i++ {
		c.Put(i, i*i)
		if got := c.Len(); got > capacity {
			t.Fatalf("Len() = %d exceeds capacity %d at i=%d", got, capacity, i)
		}
	}

	// Only the last 5 keys survive.
	for i := 95; i < 100; i++ {
		v, ok := c.Get(i)
		if !ok || v != i*i {
			t.Errorf("Get(%d) = %d, %v; want %d, true", i, v, ok, i*i)
		}
	}
	if c.Contains(94) {
		t.Error("entry 94 should have been evicted")
	}

	stats := c.Stats()
	if stats.Evictions != 95 {
		t.Errorf("Evictions = %d, want 95", stats.Evictions)
	}
}

func TestBoundedCache_Stats(t *testing.T) {
	t.Parallel()

	c := NewBounded[string, string](2)
	c.Put("k", "v")

	c.Get("k")       // hit
	c.Get("k")       // hit
	c.Get("absent")  // miss
	c.Contains("k")  // not counted
	c.Contains("no") // not counted

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Capacity != 2 {
		t.Errorf("Capacity = %d, want 2", stats.Capacity)
	}
}

func TestBoundedCache_Clear(t *testing.T) {
	t.Parallel()

	c := NewBounded[string, int](4)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}

	// The ring must be reusable after Clear.
	for i := 0; i < 10; i++ {
		c.Put(fmt.Sprintf("k%d", i), i)
	}
	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}
}

func TestBoundedCache_DefaultCapacity(t *testing.T) {
	t.Parallel()

	c := NewBounded[string, int](0)
	if c.Capacity() != 16 {
		t.Errorf("Capacity() = %d, want fallback 16", c.Capacity())
	}
}

func TestBoundedCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := NewBounded[int, int](30)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := (seed*500 + i) % 100
				c.Put(key, i)
				c.Get(key)
				c.Len()
			}
		}(g)
	}
	wg.Wait()

	if got := c.Len(); got > 30 {
		t.Errorf("Len() = %d exceeds capacity after concurrent writes", got)
	}
}

func TestBoundedCache_CapacityOne(t *testing.T) {
	t.Parallel()

	c := NewBounded[string, int](1)
	c.Put("a", 1)
	c.Put("b", 2)

	if c.Contains("a") {
		t.Error("'a' should be evicted")
	}
	v, ok := c.Get("b")
	if !ok || v != 2 {
		t.Errorf("Get('b') = %d, %v; want 2, true", v, ok)
	}
}
