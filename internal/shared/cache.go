package shared

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoCache is a size-bounded, process-lifetime cache for external service
// responses. Identical similarity and catalog queries recur constantly during
// a search, so responses are memoized per query key to avoid duplicate
// network round trips. LRU eviction keeps the bound; no TTL.
type MemoCache[V any] struct {
	lru *lru.Cache[string, V]
}

// NewMemoCache creates a MemoCache holding at most size entries.
// Sizes below 1 fall back to a default of 512.
func NewMemoCache[V any](size int) *MemoCache[V] {
	if size < 1 {
		size = 512
	}
	// lru.New only errors on non-positive sizes, which are normalized above.
	c, _ := lru.New[string, V](size)
	return &MemoCache[V]{lru: c}
}

// Get returns the cached value for key, if present.
func (c *MemoCache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Put stores a value under key, evicting the least recently used entry when full.
func (c *MemoCache[V]) Put(key string, value V) {
	c.lru.Add(key, value)
}

// Len returns the number of cached entries.
func (c *MemoCache[V]) Len() int {
	return c.lru.Len()
}
