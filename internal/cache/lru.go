// internal/cache/lru.go
//
// Bounded least-recently-used map.
//
// Context
// -------
// The in-process rate limiter keeps one counter window per client key.
// Without a bound, a flood of spoofed addresses would grow that map without
// limit.  LRU caps it: once Cap entries exist, adding a new key drops the
// least recently touched one.
//
// Notes
// -----
// • Not safe for concurrent use.  Callers hold their own lock.
// • Oxford commas, two spaces after periods.
package cache

import "container/list"

// LRU is a generic least-recently-used cache.
type LRU[K comparable, V any] struct {
	cap  int
	ll   *list.List
	dict map[K]*list.Element
}

type pair[K comparable, V any] struct {
	key K
	val V
}

// New returns an LRU with the given capacity.  Panics on cap < 1.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU[K, V]{
		cap:  capacity,
		ll:   list.New(),
		dict: make(map[K]*list.Element, capacity),
	}
}

// Get retrieves a value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (val V, ok bool) {
	if ele, hit := c.dict[key]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(pair[K, V]).val, true
	}
	return val, false
}

// Add inserts or updates a value.  It reports whether an older entry was
// evicted to make room.
func (c *LRU[K, V]) Add(key K, val V) (evicted bool) {
	if ele, hit := c.dict[key]; hit {
		ele.Value = pair[K, V]{key, val}
		c.ll.MoveToFront(ele)
		return false
	}
	c.dict[key] = c.ll.PushFront(pair[K, V]{key, val})
	if c.ll.Len() > c.cap {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.dict, last.Value.(pair[K, V]).key)
		return true
	}
	return false
}

// Remove drops key if present.
func (c *LRU[K, V]) Remove(key K) {
	if ele, hit := c.dict[key]; hit {
		c.ll.Remove(ele)
		delete(c.dict, key)
	}
}

// Len reports current size.
func (c *LRU[K, V]) Len() int { return c.ll.Len() }
