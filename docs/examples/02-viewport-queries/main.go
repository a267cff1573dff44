package main

import (
	"fmt"

	"github.com/beetlebugorg/viewcull/pkg/cull"
)

func main() {
	// Synthetic tracks across a 2° x 2° region
	tracks := make([]cull.LineRecord, 0, 5000)
	for i := 0; i < 5000; i++ {
		lat := 42.0 + float64(i/100)*0.04
		lng := -72.0 + float64(i%100)*0.02
		tracks = append(tracks, cull.LineRecord{
			ID: fmt.Sprintf("track-%d", i),
			Coords: []cull.GeoPoint{
				{Latitude: lat, Longitude: lng},
				{Latitude: lat + 0.01, Longitude: lng + 0.01},
			},
		})
	}

	// Build the R-tree once, query it for every viewport
	idx := cull.NewLineIndex(tracks)

	viewport := cull.Bounds{
		NorthEast: cull.GeoPoint{Latitude: 42.4, Longitude: -71.0},
		SouthWest: cull.GeoPoint{Latitude: 42.3, Longitude: -71.1},
	}

	visible := idx.Cull(&viewport, 12, cull.WithMaxFeatures(50))
	fmt.Printf("Visible tracks: %d (capped at 50)\n", len(visible))

	// Same records as the linear scan
	linear := cull.CullLines(tracks, &viewport, 12, cull.WithMaxFeatures(50))
	fmt.Printf("Linear scan:    %d\n", len(linear))

	// Below MinZoom the viewport is ignored
	overview := idx.Cull(&viewport, 3, cull.WithMinZoom(8), cull.WithMaxFeatures(10))
	fmt.Printf("Zoomed out:     %d (first 10 tracks)\n", len(overview))
}
