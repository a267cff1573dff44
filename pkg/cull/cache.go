package cull

import (
	"container/list"
	"log/slog"
	"math"
	"sync"
)

// CacheKey identifies one culled result set.
type CacheKey struct {
	Layer   string
	Bounds  Bounds
	Zoom    float64
	Options Options
}

// matchable reports whether k can equal itself. A NaN field never does, so
// such keys are never stored.
func (k CacheKey) matchable() bool {
	for _, v := range []float64{
		k.Bounds.NorthEast.Latitude, k.Bounds.NorthEast.Longitude,
		k.Bounds.SouthWest.Latitude, k.Bounds.SouthWest.Longitude,
		k.Zoom, k.Options.Buffer,
	} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// ResultCache keeps recently culled result sets with LRU eviction.
//
// Culling the same layer against the same viewport twice (panning back,
// re-rendering an unchanged frame) returns the cached slice instead of
// re-running the filter. Callers must treat returned slices as read-only.
//
// Example:
//
//	cache := cull.NewResultCache[cull.PointRecord](64)
//	key := cull.CacheKey{Layer: "gps", Bounds: *bounds, Zoom: zoom, Options: cull.DefaultOptions()}
//	visible := cache.Get(key, func() []cull.PointRecord {
//	    return cull.CullPoints(points, bounds, zoom)
//	})
type ResultCache[T any] struct {
	maxEntries int
	records    int // records held across all entries
	entries    map[CacheKey]*cacheEntry[T]
	lru        *list.List // LRU list (most recent at front)
	hits       int
	misses     int
	mu         sync.Mutex
}

// cacheEntry tracks a cached result and its LRU position
type cacheEntry[T any] struct {
	key     CacheKey
	result  []T
	element *list.Element // Position in LRU list
}

// NewResultCache creates a cache holding at most maxEntries result sets.
// Set to 0 for an unbounded cache.
func NewResultCache[T any](maxEntries int) *ResultCache[T] {
	return &ResultCache[T]{
		maxEntries: maxEntries,
		entries:    make(map[CacheKey]*cacheEntry[T]),
		lru:        list.New(),
	}
}

// Get returns the cached result for key, or runs compute and caches its
// result on a miss.
//
// compute runs without the cache lock held, so concurrent misses on the same
// key may both compute; the last one to finish wins.
func (c *ResultCache[T]) Get(key CacheKey, compute func() []T) []T {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.lru.MoveToFront(entry.element)
		c.hits++
		c.mu.Unlock()

		Logger().Debug("cull cache hit", slog.String("layer", key.Layer))
		return entry.result
	}
	c.misses++
	c.mu.Unlock()

	result := compute()
	c.Add(key, result)
	return result
}

// Lookup returns the cached result for key without computing on a miss.
func (c *ResultCache[T]) Lookup(key CacheKey) ([]T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.lru.MoveToFront(entry.element)
	c.hits++
	return entry.result, true
}

// Add stores a result, evicting least-recently-used entries if the cache is
// full. Keys holding a NaN are ignored.
func (c *ResultCache[T]) Add(key CacheKey, result []T) {
	if !key.matchable() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if already cached
	if entry, ok := c.entries[key]; ok {
		c.records += len(result) - len(entry.result)
		entry.result = result
		c.lru.MoveToFront(entry.element)
		return
	}

	// Evict until we have space
	if c.maxEntries > 0 {
		for c.lru.Len() >= c.maxEntries {
			c.evictLRU()
		}
	}

	entry := &cacheEntry[T]{
		key:    key,
		result: result,
	}
	entry.element = c.lru.PushFront(entry)
	c.entries[key] = entry
	c.records += len(result)
}

// evictLRU removes the least recently used entry.
// Must be called with c.mu locked.
func (c *ResultCache[T]) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}

	entry := elem.Value.(*cacheEntry[T])
	c.lru.Remove(elem)
	delete(c.entries, entry.key)
	c.records -= len(entry.result)
}

// Remove explicitly removes an entry from the cache.
func (c *ResultCache[T]) Remove(key CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.lru.Remove(entry.element)
		delete(c.entries, key)
		c.records -= len(entry.result)
	}
}

// RemoveLayer drops every entry belonging to a layer, e.g. after its records
// changed.
func (c *ResultCache[T]) RemoveLayer(layer string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if key.Layer != layer {
			continue
		}
		c.lru.Remove(entry.element)
		delete(c.entries, key)
		c.records -= len(entry.result)
	}
}

// Clear removes all entries from the cache.
func (c *ResultCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[CacheKey]*cacheEntry[T])
	c.lru.Init()
	c.records = 0
}

// Stats returns cache statistics.
func (c *ResultCache[T]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Entries:    len(c.entries),
		Records:    c.records,
		MaxEntries: c.maxEntries,
		Hits:       c.hits,
		Misses:     c.misses,
	}
}

// CacheStats holds cache performance metrics.
type CacheStats struct {
	Entries    int // Number of result sets currently cached
	Records    int // Records held across all cached result sets
	MaxEntries int // Maximum number of result sets, 0 for unbounded
	Hits       int // Lookups served from the cache
	Misses     int // Lookups that had to compute
}
