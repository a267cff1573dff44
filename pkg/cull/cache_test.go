package cull

import (
	"fmt"
	"math"
	"sync"
	"testing"
)

func cacheKey(layer string) CacheKey {
	return CacheKey{Layer: layer, Bounds: testBounds, Zoom: 10, Options: DefaultOptions()}
}

func TestCacheBasic(t *testing.T) {
	cache := NewResultCache[PointRecord](8)

	// Test empty cache
	stats := cache.Stats()
	if stats.Entries != 0 {
		t.Errorf("Expected empty cache, got %d entries", stats.Entries)
	}

	// Test cache miss and compute
	computeCount := 0
	result := cache.Get(cacheKey("gps"), func() []PointRecord {
		computeCount++
		return []PointRecord{point("a", 35, 135)}
	})
	if len(result) != 1 || result[0].ID != "a" {
		t.Errorf("Expected computed result [a], got %v", pointIDs(result))
	}
	if computeCount != 1 {
		t.Errorf("Expected compute called once, got %d times", computeCount)
	}

	// Test cache hit
	result2 := cache.Get(cacheKey("gps"), func() []PointRecord {
		computeCount++
		return []PointRecord{point("b", 35, 135)}
	})
	if len(result2) != 1 || result2[0].ID != "a" {
		t.Errorf("Expected cached result [a], got %v", pointIDs(result2))
	}
	if computeCount != 1 {
		t.Errorf("Expected compute not called for cache hit, called %d times", computeCount)
	}

	stats = cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d and %d", stats.Hits, stats.Misses)
	}
	if stats.Records != 1 {
		t.Errorf("Expected 1 cached record, got %d", stats.Records)
	}
}

func TestCacheKeyDistinguishesInputs(t *testing.T) {
	cache := NewResultCache[PointRecord](0)

	base := cacheKey("gps")
	otherZoom := base
	otherZoom.Zoom = 11
	otherOptions := base
	otherOptions.Options.Buffer = 20
	otherBounds := base
	otherBounds.Bounds = ExpandBounds(testBounds, 1)

	computeCount := 0
	for _, key := range []CacheKey{base, otherZoom, otherOptions, otherBounds, cacheKey("tracks")} {
		cache.Get(key, func() []PointRecord {
			computeCount++
			return nil
		})
	}
	if computeCount != 5 {
		t.Errorf("Expected 5 distinct keys, computed %d times", computeCount)
	}
}

func TestCacheIgnoresNaNKeys(t *testing.T) {
	cache := NewResultCache[PointRecord](0)

	nanZoom := cacheKey("gps")
	nanZoom.Zoom = math.NaN()
	nanBounds := cacheKey("gps")
	nanBounds.Bounds.NorthEast.Latitude = math.NaN()
	nanBuffer := cacheKey("gps")
	nanBuffer.Options.Buffer = math.NaN()

	for _, key := range []CacheKey{nanZoom, nanBounds, nanBuffer} {
		computeCount := 0
		for i := 0; i < 3; i++ {
			cache.Get(key, func() []PointRecord {
				computeCount++
				return []PointRecord{point("a", 35, 135)}
			})
		}
		if computeCount != 3 {
			t.Errorf("Expected compute on every call, got %d", computeCount)
		}
		cache.Add(key, []PointRecord{point("a", 35, 135)})
	}

	if got := cache.Stats(); got.Entries != 0 || got.Records != 0 {
		t.Errorf("Expected NaN keys to be ignored, got %+v", got)
	}
}

func TestCacheEviction(t *testing.T) {
	cache := NewResultCache[PointRecord](3)

	for i := 0; i < 10; i++ {
		layer := fmt.Sprintf("layer-%d", i)
		cache.Add(cacheKey(layer), make([]PointRecord, 2))
	}

	stats := cache.Stats()
	if stats.Entries != 3 {
		t.Errorf("Expected 3 entries after eviction, got %d", stats.Entries)
	}
	if stats.Records != 6 {
		t.Errorf("Expected 6 records after eviction, got %d", stats.Records)
	}

	// Most recent entries survive
	if _, ok := cache.Lookup(cacheKey("layer-9")); !ok {
		t.Error("Expected layer-9 to be cached")
	}
	if _, ok := cache.Lookup(cacheKey("layer-0")); ok {
		t.Error("Expected layer-0 to be evicted")
	}
}

func TestCacheLRUOrder(t *testing.T) {
	cache := NewResultCache[PointRecord](2)

	cache.Add(cacheKey("a"), nil)
	cache.Add(cacheKey("b"), nil)

	// Touch "a" so "b" becomes least recently used
	if _, ok := cache.Lookup(cacheKey("a")); !ok {
		t.Fatal("Expected a to be cached")
	}
	cache.Add(cacheKey("c"), nil)

	if _, ok := cache.Lookup(cacheKey("b")); ok {
		t.Error("Expected b to be evicted")
	}
	if _, ok := cache.Lookup(cacheKey("a")); !ok {
		t.Error("Expected a to survive")
	}
}

func TestCacheReplace(t *testing.T) {
	cache := NewResultCache[PointRecord](0)

	cache.Add(cacheKey("gps"), make([]PointRecord, 5))
	cache.Add(cacheKey("gps"), make([]PointRecord, 2))

	stats := cache.Stats()
	if stats.Entries != 1 || stats.Records != 2 {
		t.Errorf("Expected 1 entry with 2 records, got %d entries with %d records", stats.Entries, stats.Records)
	}
}

func TestCacheRemove(t *testing.T) {
	cache := NewResultCache[PointRecord](0)

	cache.Add(cacheKey("gps"), make([]PointRecord, 3))
	cache.Remove(cacheKey("gps"))
	cache.Remove(cacheKey("missing"))

	stats := cache.Stats()
	if stats.Entries != 0 || stats.Records != 0 {
		t.Errorf("Expected empty cache, got %d entries with %d records", stats.Entries, stats.Records)
	}
}

func TestCacheRemoveLayer(t *testing.T) {
	cache := NewResultCache[PointRecord](0)

	zoomed := cacheKey("gps")
	zoomed.Zoom = 12
	cache.Add(cacheKey("gps"), make([]PointRecord, 1))
	cache.Add(zoomed, make([]PointRecord, 1))
	cache.Add(cacheKey("tracks"), make([]PointRecord, 1))

	cache.RemoveLayer("gps")

	stats := cache.Stats()
	if stats.Entries != 1 {
		t.Errorf("Expected 1 entry, got %d", stats.Entries)
	}
	if _, ok := cache.Lookup(cacheKey("tracks")); !ok {
		t.Error("Expected tracks to survive")
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewResultCache[PointRecord](0)

	for i := 0; i < 3; i++ {
		cache.Add(cacheKey(fmt.Sprintf("layer-%d", i)), make([]PointRecord, 4))
	}
	cache.Clear()

	stats := cache.Stats()
	if stats.Entries != 0 || stats.Records != 0 {
		t.Errorf("Expected empty cache after Clear, got %d entries with %d records", stats.Entries, stats.Records)
	}

	// Cache stays usable after Clear
	cache.Add(cacheKey("gps"), make([]PointRecord, 1))
	if cache.Stats().Entries != 1 {
		t.Error("Expected cache to accept entries after Clear")
	}
}

func TestCacheConcurrent(t *testing.T) {
	cache := NewResultCache[PointRecord](4)
	records := []PointRecord{point("a", 35, 135), point("b", 50, 150)}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := cacheKey(fmt.Sprintf("layer-%d", i%6))
			got := cache.Get(key, func() []PointRecord {
				return CullPoints(records, &testBounds, 10)
			})
			if len(got) != 1 {
				t.Errorf("Expected 1 record, got %d", len(got))
			}
		}(i)
	}
	wg.Wait()

	if stats := cache.Stats(); stats.Entries > 4 {
		t.Errorf("Cache exceeded max entries: %d", stats.Entries)
	}
}
