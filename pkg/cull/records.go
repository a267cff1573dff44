package cull

import (
	"math"
	"sort"
)

// PointRecord is a single located observation, e.g. a GPS fix or a survey
// point.
//
// A nil Coords, or a Coords with a missing latitude or longitude, marks the
// record as unlocated; it is never inside any bounds.
type PointRecord struct {
	ID         string
	Coords     *GeoPoint
	Properties map[string]any
}

// LineRecord is an ordered polyline, e.g. a GPS track.
//
// Nil or empty Coords means the record has no geometry.
type LineRecord struct {
	ID         string
	Coords     []GeoPoint
	Properties map[string]any
}

// PolygonRecord is an area with an exterior ring and optional named holes.
//
// A nil Coords means the record has no geometry.
type PolygonRecord struct {
	ID         string
	Coords     []GeoPoint
	Holes      map[string][]GeoPoint
	Properties map[string]any
}

// Rings returns the exterior ring followed by the holes, ordered by hole name.
//
// The result is the input shape for PolygonIntersectsBounds. Empty rings are
// included as-is.
func (r PolygonRecord) Rings() [][]GeoPoint {
	rings := make([][]GeoPoint, 0, 1+len(r.Holes))
	rings = append(rings, r.Coords)

	names := make([]string, 0, len(r.Holes))
	for name := range r.Holes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rings = append(rings, r.Holes[name])
	}
	return rings
}

// located reports whether the point record has a usable coordinate.
func (r PointRecord) located(strict bool) bool {
	if r.Coords == nil {
		return false
	}
	if strict {
		return !math.IsNaN(r.Coords.Latitude) && !math.IsNaN(r.Coords.Longitude)
	}
	return present(r.Coords.Latitude) && present(r.Coords.Longitude)
}
