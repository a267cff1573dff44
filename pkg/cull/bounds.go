package cull

import "math"

// ComputeBounds derives the viewport bounds of a region.
//
// Returns nil if region is nil or if its center latitude or longitude is
// missing. A center coordinate of exactly 0 (or NaN) counts as missing, so
// viewports centered on the equator or the prime meridian produce nil bounds
// and culling is bypassed for them. Use ComputeBoundsStrict to treat 0 as a
// real coordinate.
//
// The result is plain arithmetic on the center and half the deltas; it is not
// clamped to ±90 / ±180.
//
// Example:
//
//	region := &cull.Region{
//	    Latitude: 35, Longitude: 135,
//	    LatitudeDelta: 10, LongitudeDelta: 10,
//	}
//	bounds := cull.ComputeBounds(region)
//	// bounds.NorthEast = {40, 140}, bounds.SouthWest = {30, 130}
func ComputeBounds(region *Region) *Bounds {
	if region == nil || !present(region.Latitude) || !present(region.Longitude) {
		return nil
	}
	return regionBounds(region)
}

// ComputeBoundsStrict is ComputeBounds with explicit presence checks: only a
// NaN center coordinate counts as missing.
func ComputeBoundsStrict(region *Region) *Bounds {
	if region == nil || math.IsNaN(region.Latitude) || math.IsNaN(region.Longitude) {
		return nil
	}
	return regionBounds(region)
}

func regionBounds(region *Region) *Bounds {
	halfLat := region.LatitudeDelta / 2
	halfLng := region.LongitudeDelta / 2
	return &Bounds{
		NorthEast: GeoPoint{
			Latitude:  region.Latitude + halfLat,
			Longitude: region.Longitude + halfLng,
		},
		SouthWest: GeoPoint{
			Latitude:  region.Latitude - halfLat,
			Longitude: region.Longitude - halfLng,
		},
	}
}

// ExpandBounds grows the bounds outward by bufferPercent of its span.
//
// Each axis is handled independently: both edges move by
// bufferPercent/100 * span, so a buffer of 10 pads each side by 10% of the
// original width or height. A buffer of 0 returns the bounds unchanged.
// There is no upper limit on bufferPercent.
func ExpandBounds(bounds Bounds, bufferPercent float64) Bounds {
	if bufferPercent == 0 {
		return bounds
	}

	latPad := bounds.LatitudeSpan() * bufferPercent / 100
	lngPad := bounds.LongitudeSpan() * bufferPercent / 100

	return Bounds{
		NorthEast: GeoPoint{
			Latitude:  bounds.NorthEast.Latitude + latPad,
			Longitude: bounds.NorthEast.Longitude + lngPad,
		},
		SouthWest: GeoPoint{
			Latitude:  bounds.SouthWest.Latitude - latPad,
			Longitude: bounds.SouthWest.Longitude - lngPad,
		},
	}
}

// present reports whether a coordinate counts as set under the legacy
// truthiness rule: zero and NaN are missing.
func present(v float64) bool {
	return v != 0 && !math.IsNaN(v)
}
