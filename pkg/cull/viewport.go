package cull

import (
	"math"
	"sync"
)

// Viewport tracks the live map region and decides when culled sets are
// worth recomputing.
//
// Bounds are recomputed on every Update. Update reports a change only when
// bounds appear or disappear, or when an edge has moved by more than
// threshold times the span of the bounds last reported as changed. With a
// threshold of 0.1, panning by less than a tenth of the view keeps the
// previous culled sets, which the default 10% buffer already covers.
//
// Example:
//
//	vp := cull.NewViewport(0.1)
//	for region := range regionChanges {
//	    bounds, changed := vp.Update(&region)
//	    if changed {
//	        visible = cull.CullPoints(points, bounds, vp.Zoom())
//	    }
//	}
type Viewport struct {
	threshold float64
	strict    bool

	mu      sync.Mutex
	current *Bounds // bounds from the latest region
	culled  *Bounds // bounds at the last reported change
	zoom    float64
	seen    bool
}

// NewViewport creates a tracker that reports changes larger than threshold,
// a fraction of the viewport span. A threshold of 0 reports any change.
func NewViewport(threshold float64) *Viewport {
	return &Viewport{threshold: threshold}
}

// NewStrictViewport is NewViewport using ComputeBoundsStrict, so regions
// centered on 0 latitude or longitude still produce bounds.
func NewStrictViewport(threshold float64) *Viewport {
	return &Viewport{threshold: threshold, strict: true}
}

// Update records a new region and returns its bounds and whether culled
// sets should be recomputed.
//
// The first call always reports a change. A region without Zoom keeps the
// previous zoom level.
func (v *Viewport) Update(region *Region) (*Bounds, bool) {
	var bounds *Bounds
	if v.strict {
		bounds = ComputeBoundsStrict(region)
	} else {
		bounds = ComputeBounds(region)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	zoomChanged := false
	if region != nil && region.Zoom != nil && *region.Zoom != v.zoom {
		v.zoom = *region.Zoom
		zoomChanged = true
	}

	v.current = bounds
	changed := !v.seen || zoomChanged || v.moved(bounds)
	v.seen = true
	if changed {
		v.culled = bounds
	}
	return bounds, changed
}

// moved reports whether bounds differ enough from the last culled bounds.
// Must be called with v.mu locked.
func (v *Viewport) moved(bounds *Bounds) bool {
	if (bounds == nil) != (v.culled == nil) {
		return true
	}
	if bounds == nil {
		return false
	}

	last := *v.culled
	latLimit := last.LatitudeSpan() * v.threshold
	lngLimit := last.LongitudeSpan() * v.threshold

	exceeds := func(a, b, limit float64) bool {
		d := math.Abs(a - b)
		if v.threshold == 0 {
			return d != 0
		}
		return d > limit
	}

	return exceeds(bounds.NorthEast.Latitude, last.NorthEast.Latitude, latLimit) ||
		exceeds(bounds.SouthWest.Latitude, last.SouthWest.Latitude, latLimit) ||
		exceeds(bounds.NorthEast.Longitude, last.NorthEast.Longitude, lngLimit) ||
		exceeds(bounds.SouthWest.Longitude, last.SouthWest.Longitude, lngLimit)
}

// Bounds returns the bounds of the latest region, or nil.
func (v *Viewport) Bounds() *Bounds {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// CulledBounds returns the bounds at the last reported change, or nil.
func (v *Viewport) CulledBounds() *Bounds {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.culled
}

// Zoom returns the latest zoom level seen, 0 until a region carries one.
func (v *Viewport) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}
