package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/beetlebugorg/viewcull/pkg/cull"
)

func main() {
	// Log frame summaries
	cull.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	points := make([]cull.PointRecord, 0, 2000)
	for i := 0; i < 2000; i++ {
		points = append(points, cull.PointRecord{
			ID:     fmt.Sprintf("buoy-%d", i),
			Coords: &cull.GeoPoint{Latitude: 42.0 + float64(i%50)*0.02, Longitude: -71.5 + float64(i/50)*0.02},
		})
	}
	areas := []cull.PolygonRecord{{
		ID: "anchorage",
		Coords: []cull.GeoPoint{
			{Latitude: 42.30, Longitude: -71.05}, {Latitude: 42.35, Longitude: -71.05},
			{Latitude: 42.35, Longitude: -71.00}, {Latitude: 42.30, Longitude: -71.05},
		},
	}}

	buoys := cull.NewPointIndex(points)
	caches := cull.NewFrameCaches(16)
	opts := cull.FrameOptions{
		Parallel: true,
		Workers:  4,
		Caches:   caches,
		Progress: func(done, total int) {
			fmt.Printf("  culled %d/%d layers\n", done, total)
		},
	}

	// Pan slowly; the viewport tracker skips frames that barely moved
	vp := cull.NewViewport(0.1)
	for _, lng := range []float64{-71.05, -71.049, -71.02, -71.05} {
		zoom := 12.0
		bounds, changed := vp.Update(&cull.Region{
			Latitude: 42.33, Longitude: lng,
			LatitudeDelta: 0.1, LongitudeDelta: 0.1,
			Zoom: &zoom,
		})
		if !changed {
			fmt.Printf("Center %.3f: unchanged, reusing previous frame\n", lng)
			continue
		}

		fmt.Printf("Center %.3f:\n", lng)
		result := cull.CullFrame(cull.Frame{
			Bounds:   bounds,
			Zoom:     zoom,
			Points:   []cull.PointLayer{{Name: "buoys", Index: buoys}},
			Polygons: []cull.PolygonLayer{{Name: "areas", Records: areas}},
		}, opts)

		for _, s := range result.Stats {
			fmt.Printf("  %-6s %d/%d kept, cached=%v\n", s.Name, s.Kept, s.Input, s.Cached)
		}
	}

	stats := caches.Points.Stats()
	fmt.Printf("Point cache: %d entries, %d hits, %d misses\n", stats.Entries, stats.Hits, stats.Misses)
}
