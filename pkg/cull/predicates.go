package cull

// PointInBounds returns true if p lies within bounds. Edges are inclusive.
func PointInBounds(p GeoPoint, bounds Bounds) bool {
	return p.Latitude >= bounds.SouthWest.Latitude &&
		p.Latitude <= bounds.NorthEast.Latitude &&
		p.Longitude >= bounds.SouthWest.Longitude &&
		p.Longitude <= bounds.NorthEast.Longitude
}

// LineIntersectsBounds reports whether a polyline may be visible in bounds.
//
// A line matches if any vertex is inside bounds, or if any segment straddles
// the box on a single axis: one endpoint south of the southern edge and the
// other north of the northern edge (or the same east-west). The straddle check
// looks at one axis only, so it also accepts segments that pass beside the box.
//
// This is a cheap approximation, not a segment/rectangle clip. A segment that
// cuts a corner of the box without a vertex inside and without straddling an
// axis is not detected.
func LineIntersectsBounds(coords []GeoPoint, bounds Bounds) bool {
	for _, p := range coords {
		if PointInBounds(p, bounds) {
			return true
		}
	}

	for i := 1; i < len(coords); i++ {
		if straddles(coords[i-1], coords[i], bounds) {
			return true
		}
	}

	return false
}

// straddles reports whether segment a-b crosses the full box on one axis.
func straddles(a, b GeoPoint, bounds Bounds) bool {
	south, north := bounds.SouthWest.Latitude, bounds.NorthEast.Latitude
	west, east := bounds.SouthWest.Longitude, bounds.NorthEast.Longitude

	if (a.Latitude < south && b.Latitude > north) || (b.Latitude < south && a.Latitude > north) {
		return true
	}
	return (a.Longitude < west && b.Longitude > east) || (b.Longitude < west && a.Longitude > east)
}

// PolygonIntersectsBounds reports whether any ring of a polygon may be
// visible in bounds.
//
// Rings are checked in order, exterior and holes alike. A ring matches if any
// vertex is inside bounds, or if the ring's own bounding box contains the
// whole of bounds (the viewport sits inside a large polygon). The first
// matching ring ends the scan.
//
// Edge crossings are not tested: a polygon whose edges pass through the
// viewport without a vertex inside and without enclosing it is missed.
func PolygonIntersectsBounds(rings [][]GeoPoint, bounds Bounds) bool {
	for _, ring := range rings {
		for _, p := range ring {
			if PointInBounds(p, bounds) {
				return true
			}
		}

		rb, ok := ringBounds(ring)
		if ok && rb.Contains(bounds) {
			return true
		}
	}
	return false
}
