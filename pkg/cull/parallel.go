package cull

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// PointLayer is one named set of point records to cull.
//
// If Index is set it is used instead of Records. Name keys the layer's
// entries in FrameCaches; layers with no name, or sharing a name with another
// layer of the same kind in the frame, are never cached.
type PointLayer struct {
	Name    string
	Records []PointRecord
	Index   *Index[PointRecord]
	Options []Option
}

// LineLayer is one named set of line records to cull.
type LineLayer struct {
	Name    string
	Records []LineRecord
	Index   *Index[LineRecord]
	Options []Option
}

// PolygonLayer is one named set of polygon records to cull.
type PolygonLayer struct {
	Name    string
	Records []PolygonRecord
	Index   *Index[PolygonRecord]
	Options []Option
}

// Frame is every layer rendered for one viewport.
type Frame struct {
	Bounds   *Bounds
	Zoom     float64
	Points   []PointLayer
	Lines    []LineLayer
	Polygons []PolygonLayer
}

// FrameCaches holds one result cache per geometry kind.
type FrameCaches struct {
	Points   *ResultCache[PointRecord]
	Lines    *ResultCache[LineRecord]
	Polygons *ResultCache[PolygonRecord]
}

// NewFrameCaches creates result caches holding at most maxEntries result
// sets per geometry kind.
func NewFrameCaches(maxEntries int) *FrameCaches {
	return &FrameCaches{
		Points:   NewResultCache[PointRecord](maxEntries),
		Lines:    NewResultCache[LineRecord](maxEntries),
		Polygons: NewResultCache[PolygonRecord](maxEntries),
	}
}

// FrameOptions controls how the layers of a frame are culled.
type FrameOptions struct {
	// Parallel enables concurrent culling of layers.
	Parallel bool

	// Workers specifies the number of worker goroutines.
	// If 0, defaults to runtime.NumCPU().
	// Only used when Parallel is true.
	Workers int

	// Progress is an optional callback called after each layer is culled.
	// Parameters: (done, total) layers.
	Progress func(done, total int)

	// Caches is optional. When set, layer results are looked up and stored
	// by layer name, bounds, zoom and options.
	Caches *FrameCaches
}

// DefaultFrameOptions returns frame options with sensible defaults.
func DefaultFrameOptions() FrameOptions {
	return FrameOptions{
		Parallel: true,
		Workers:  runtime.NumCPU(),
		Progress: nil,
		Caches:   nil,
	}
}

// LayerStats describes the outcome of culling one layer.
type LayerStats struct {
	Name     string
	Kind     Kind
	Input    int           // Records in the layer
	Kept     int           // Records returned
	Duration time.Duration // Time spent culling, zero on a cache hit
	Cached   bool          // Result served from FrameOptions.Caches
}

// FrameResult holds culled records per layer, in the same order as the
// frame's layers.
type FrameResult struct {
	Points   [][]PointRecord
	Lines    [][]LineRecord
	Polygons [][]PolygonRecord

	// Stats has one entry per layer: points layers first, then lines,
	// then polygons.
	Stats []LayerStats
}

// CullFrame culls every layer of a frame, optionally in parallel.
//
// Each layer is culled exactly as CullPoints, CullLines or CullPolygons (or
// the layer's Index) would cull it on its own. Layers are independent, so
// running them concurrently changes only the wall time.
//
// Example:
//
//	result := cull.CullFrame(cull.Frame{
//	    Bounds: bounds,
//	    Zoom:   zoom,
//	    Points: []cull.PointLayer{{Name: "gps", Records: fixes}},
//	    Lines:  []cull.LineLayer{{Name: "tracks", Index: trackIndex}},
//	}, cull.DefaultFrameOptions())
//	renderPoints(result.Points[0])
func CullFrame(frame Frame, opts FrameOptions) FrameResult {
	result := FrameResult{
		Points:   make([][]PointRecord, len(frame.Points)),
		Lines:    make([][]LineRecord, len(frame.Lines)),
		Polygons: make([][]PolygonRecord, len(frame.Polygons)),
	}
	jobs := frameJobs(frame, opts.Caches, &result)
	result.Stats = make([]LayerStats, len(jobs))

	if len(jobs) == 0 {
		return result
	}

	start := time.Now()
	if opts.Parallel {
		runParallel(jobs, result.Stats, opts)
	} else {
		runSerial(jobs, result.Stats, opts)
	}

	Logger().Info("frame culled",
		slog.Int("layers", len(jobs)),
		slog.Bool("parallel", opts.Parallel),
		slog.Duration("elapsed", time.Since(start)),
	)
	return result
}

// layerJob culls one layer, stores its records in the frame result and
// returns its stats.
type layerJob func() LayerStats

func frameJobs(frame Frame, caches *FrameCaches, result *FrameResult) []layerJob {
	jobs := make([]layerJob, 0, len(frame.Points)+len(frame.Lines)+len(frame.Polygons))
	pointNames := uniqueNames(len(frame.Points), func(i int) string { return frame.Points[i].Name })
	lineNames := uniqueNames(len(frame.Lines), func(i int) string { return frame.Lines[i].Name })
	polygonNames := uniqueNames(len(frame.Polygons), func(i int) string { return frame.Polygons[i].Name })

	for i, layer := range frame.Points {
		var cache *ResultCache[PointRecord]
		if caches != nil && pointNames[layer.Name] {
			cache = caches.Points
		}
		jobs = append(jobs, newLayerJob(KindPoint, layer.Name, layer.Records, layer.Index, layer.Options,
			frame, cache, CullPoints, &result.Points[i]))
	}
	for i, layer := range frame.Lines {
		var cache *ResultCache[LineRecord]
		if caches != nil && lineNames[layer.Name] {
			cache = caches.Lines
		}
		jobs = append(jobs, newLayerJob(KindLine, layer.Name, layer.Records, layer.Index, layer.Options,
			frame, cache, CullLines, &result.Lines[i]))
	}
	for i, layer := range frame.Polygons {
		var cache *ResultCache[PolygonRecord]
		if caches != nil && polygonNames[layer.Name] {
			cache = caches.Polygons
		}
		jobs = append(jobs, newLayerJob(KindPolygon, layer.Name, layer.Records, layer.Index, layer.Options,
			frame, cache, CullPolygons, &result.Polygons[i]))
	}
	return jobs
}

// uniqueNames returns the non-empty names that appear exactly once among n
// layers.
func uniqueNames(n int, name func(int) string) map[string]bool {
	counts := make(map[string]int, n)
	for i := 0; i < n; i++ {
		counts[name(i)]++
	}

	unique := make(map[string]bool, n)
	for nm, count := range counts {
		switch {
		case nm == "":
		case count > 1:
			Logger().Debug("layer name repeated, not caching", slog.String("layer", nm), slog.Int("layers", count))
		default:
			unique[nm] = true
		}
	}
	return unique
}

func newLayerJob[T any](
	kind Kind,
	name string,
	records []T,
	idx *Index[T],
	layerOpts []Option,
	frame Frame,
	cache *ResultCache[T],
	cullFn func([]T, *Bounds, float64, ...Option) []T,
	out *[]T,
) layerJob {
	return func() LayerStats {
		input := len(records)
		run := func() []T { return cullFn(records, frame.Bounds, frame.Zoom, layerOpts...) }
		if idx != nil {
			input = idx.Len()
			run = func() []T { return idx.Cull(frame.Bounds, frame.Zoom, layerOpts...) }
		}

		stats := LayerStats{Name: name, Kind: kind, Input: input}

		var key CacheKey
		useCache := cache != nil && frame.Bounds != nil
		if useCache {
			key = CacheKey{
				Layer:   name,
				Bounds:  *frame.Bounds,
				Zoom:    frame.Zoom,
				Options: resolveOptions(layerOpts),
			}
			useCache = key.matchable()
		}

		if useCache {
			if cached, ok := cache.Lookup(key); ok {
				*out = cached
				stats.Kept = len(cached)
				stats.Cached = true
				return stats
			}
			start := time.Now()
			*out = run()
			stats.Duration = time.Since(start)
			cache.Add(key, *out)
		} else {
			start := time.Now()
			*out = run()
			stats.Duration = time.Since(start)
		}

		stats.Kept = len(*out)
		return stats
	}
}

// runParallel runs jobs on a worker pool.
func runParallel(jobs []layerJob, stats []LayerStats, opts FrameOptions) {
	// Determine worker count
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Don't create more workers than layers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	queue := make(chan int, len(jobs))
	done := make(chan struct{}, len(jobs))

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range queue {
				// Each job writes only its own slots
				stats[index] = jobs[index]()
				done <- struct{}{}
			}
		}()
	}

	// Send jobs to workers
	for i := range jobs {
		queue <- i
	}
	close(queue)

	// Wait for workers to finish in a separate goroutine
	go func() {
		wg.Wait()
		close(done)
	}()

	finished := 0
	for range done {
		finished++
		if opts.Progress != nil {
			opts.Progress(finished, len(jobs))
		}
	}
}

// runSerial runs jobs one at a time (fallback when Parallel=false).
func runSerial(jobs []layerJob, stats []LayerStats, opts FrameOptions) {
	for i, job := range jobs {
		stats[i] = job()
		if opts.Progress != nil {
			opts.Progress(i+1, len(jobs))
		}
	}
}
