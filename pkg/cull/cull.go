package cull

import "log/slog"

// Kind identifies the geometry kind of a layer.
type Kind int

const (
	// KindPoint is a layer of PointRecord.
	KindPoint Kind = iota

	// KindLine is a layer of LineRecord.
	KindLine

	// KindPolygon is a layer of PolygonRecord.
	KindPolygon
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// CullPoints returns the point records to render for a viewport.
//
// If bounds is nil or zoom is below MinZoom, no geometric filtering happens
// and the first MaxFeatures records are returned. Otherwise the bounds are
// padded by Buffer percent and only located points inside them are kept,
// up to MaxFeatures, in input order.
//
// The input slice is never modified.
//
// Example:
//
//	bounds := cull.ComputeBounds(region)
//	visible := cull.CullPoints(trackPoints, bounds, zoom)
//	for _, p := range visible {
//	    render(p)
//	}
func CullPoints(records []PointRecord, bounds *Bounds, zoom float64, opts ...Option) []PointRecord {
	o := resolveOptions(opts)
	return cullSlice(KindPoint, records, bounds, zoom, o, keepPoint)
}

// CullLines returns the line records to render for a viewport.
//
// Lines are kept when LineIntersectsBounds matches the padded bounds. Bypass,
// capping and ordering follow CullPoints.
func CullLines(records []LineRecord, bounds *Bounds, zoom float64, opts ...Option) []LineRecord {
	o := resolveOptions(opts)
	return cullSlice(KindLine, records, bounds, zoom, o, keepLine)
}

// CullPolygons returns the polygon records to render for a viewport.
//
// A polygon is kept when its exterior ring, or any of its holes, matches
// LineIntersectsBounds against the padded bounds. This is the line test on
// each ring, not the containment test of PolygonIntersectsBounds; a ring that
// encloses the viewport is only kept if one of its edges straddles it.
// Bypass, capping and ordering follow CullPoints.
func CullPolygons(records []PolygonRecord, bounds *Bounds, zoom float64, opts ...Option) []PolygonRecord {
	o := resolveOptions(opts)
	return cullSlice(KindPolygon, records, bounds, zoom, o, keepPolygon)
}

// keepFunc decides whether a record survives culling against padded bounds.
type keepFunc[T any] func(record T, padded Bounds, o Options) bool

func keepPoint(r PointRecord, padded Bounds, o Options) bool {
	return r.located(o.StrictCoordinates) && PointInBounds(*r.Coords, padded)
}

func keepLine(r LineRecord, padded Bounds, _ Options) bool {
	return r.Coords != nil && LineIntersectsBounds(r.Coords, padded)
}

func keepPolygon(r PolygonRecord, padded Bounds, _ Options) bool {
	if r.Coords == nil {
		return false
	}
	if LineIntersectsBounds(r.Coords, padded) {
		return true
	}
	for _, hole := range r.Holes {
		if LineIntersectsBounds(hole, padded) {
			return true
		}
	}
	return false
}

// bypassed reports whether geometric filtering is skipped for this call.
func bypassed(bounds *Bounds, zoom float64, o Options) bool {
	return bounds == nil || zoom < float64(o.MinZoom)
}

// head returns a copy of the first n records.
func head[T any](records []T, n int) []T {
	if n <= 0 {
		return []T{}
	}
	if n > len(records) {
		n = len(records)
	}
	out := make([]T, n)
	copy(out, records[:n])
	return out
}

// cullSlice is the shared culling skeleton for all geometry kinds.
func cullSlice[T any](kind Kind, records []T, bounds *Bounds, zoom float64, o Options, keep keepFunc[T]) []T {
	if bypassed(bounds, zoom, o) {
		Logger().Debug("cull bypassed",
			slog.String("kind", kind.String()),
			slog.Bool("bounds", bounds != nil),
			slog.Float64("zoom", zoom),
			slog.Int("min_zoom", o.MinZoom),
			slog.Int("records", len(records)),
		)
		return head(records, o.MaxFeatures)
	}

	padded := ExpandBounds(*bounds, o.Buffer)

	if o.MaxFeatures <= 0 {
		return []T{}
	}

	result := make([]T, 0, min(len(records), o.MaxFeatures))
	for _, r := range records {
		if !keep(r, padded, o) {
			continue
		}
		result = append(result, r)
		if len(result) == o.MaxFeatures {
			break
		}
	}

	Logger().Debug("cull complete",
		slog.String("kind", kind.String()),
		slog.Int("records", len(records)),
		slog.Int("kept", len(result)),
	)
	return result
}
