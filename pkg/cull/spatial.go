package cull

import "math"

// GeoPoint is a WGS-84 coordinate in decimal degrees.
//
// Longitude wraparound at ±180 and the poles are not handled specially.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// Bounds represents a rectangular viewport in latitude/longitude space.
//
// Well-formed bounds satisfy NorthEast.Latitude >= SouthWest.Latitude and
// NorthEast.Longitude >= SouthWest.Longitude. Bounds are never validated or
// repaired; antimeridian-spanning or inverted bounds give undefined results.
type Bounds struct {
	NorthEast GeoPoint // Northern and eastern edges
	SouthWest GeoPoint // Southern and western edges
}

// Region describes a map viewport by its center and angular span.
//
// LatitudeDelta and LongitudeDelta are the full height and width of the
// viewport in degrees. Zoom is optional and only used for culling thresholds.
type Region struct {
	Latitude       float64
	Longitude      float64
	LatitudeDelta  float64
	LongitudeDelta float64
	Zoom           *float64
}

// Contains returns true if the bounds fully contain other (edges inclusive).
func (b Bounds) Contains(other Bounds) bool {
	return other.SouthWest.Latitude >= b.SouthWest.Latitude &&
		other.NorthEast.Latitude <= b.NorthEast.Latitude &&
		other.SouthWest.Longitude >= b.SouthWest.Longitude &&
		other.NorthEast.Longitude <= b.NorthEast.Longitude
}

// Intersects returns true if the given bounds overlap this bounds.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.NorthEast.Longitude < b.SouthWest.Longitude ||
		other.SouthWest.Longitude > b.NorthEast.Longitude ||
		other.NorthEast.Latitude < b.SouthWest.Latitude ||
		other.SouthWest.Latitude > b.NorthEast.Latitude)
}

// LatitudeSpan returns the absolute north-south extent in degrees.
func (b Bounds) LatitudeSpan() float64 {
	return math.Abs(b.NorthEast.Latitude - b.SouthWest.Latitude)
}

// LongitudeSpan returns the absolute east-west extent in degrees.
func (b Bounds) LongitudeSpan() float64 {
	return math.Abs(b.NorthEast.Longitude - b.SouthWest.Longitude)
}

// ringBounds calculates the axis-aligned bounding box of a ring.
// The second result is false for an empty ring.
func ringBounds(ring []GeoPoint) (Bounds, bool) {
	if len(ring) == 0 {
		return Bounds{}, false
	}

	// Initialize with first coordinate
	first := ring[0]
	bounds := Bounds{NorthEast: first, SouthWest: first}

	for _, p := range ring[1:] {
		bounds = bounds.extend(p)
	}

	return bounds, true
}

// extend grows the bounds to include p.
func (b Bounds) extend(p GeoPoint) Bounds {
	if p.Latitude < b.SouthWest.Latitude {
		b.SouthWest.Latitude = p.Latitude
	}
	if p.Latitude > b.NorthEast.Latitude {
		b.NorthEast.Latitude = p.Latitude
	}
	if p.Longitude < b.SouthWest.Longitude {
		b.SouthWest.Longitude = p.Longitude
	}
	if p.Longitude > b.NorthEast.Longitude {
		b.NorthEast.Longitude = p.Longitude
	}
	return b
}
