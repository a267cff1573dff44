package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/viewcull/pkg/cull"
)

func main() {
	// Describe the map viewport (Boston Harbor area)
	region := &cull.Region{
		Latitude:       42.35,
		Longitude:      -71.05,
		LatitudeDelta:  0.1,
		LongitudeDelta: 0.1,
	}

	// Compute viewport bounds
	bounds := cull.ComputeBounds(region)
	if bounds == nil {
		log.Fatal("region has no center")
	}
	fmt.Printf("Bounds: [%.4f,%.4f] to [%.4f,%.4f]\n",
		bounds.SouthWest.Longitude, bounds.SouthWest.Latitude,
		bounds.NorthEast.Longitude, bounds.NorthEast.Latitude)

	// GPS fixes, one of them far outside the viewport
	fixes := []cull.PointRecord{
		{ID: "fix-1", Coords: &cull.GeoPoint{Latitude: 42.36, Longitude: -71.04}},
		{ID: "fix-2", Coords: &cull.GeoPoint{Latitude: 40.71, Longitude: -74.00}},
		{ID: "fix-3", Coords: &cull.GeoPoint{Latitude: 42.33, Longitude: -71.08}},
	}

	visible := cull.CullPoints(fixes, bounds, 12)
	fmt.Printf("Visible fixes: %d of %d\n", len(visible), len(fixes))
	for _, p := range visible {
		fmt.Printf("  %s at %.4f,%.4f\n", p.ID, p.Coords.Latitude, p.Coords.Longitude)
	}
}
