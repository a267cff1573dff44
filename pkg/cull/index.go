package cull

import (
	"errors"
	"log/slog"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
)

// Index provides R-tree backed culling over a fixed set of records.
//
// Building an index once per dataset turns each viewport query from a scan of
// every record into an R-tree search plus exact tests on the candidates.
// Index.Cull returns exactly what CullPoints, CullLines or CullPolygons would
// return for the same records, bounds, zoom and options.
//
// The index is read-only after construction and safe for concurrent queries.
//
// Example:
//
//	idx := cull.NewLineIndex(tracks)
//	visible := idx.Cull(bounds, zoom, cull.WithMaxFeatures(200))
type Index[T any] struct {
	kind     Kind
	records  []T
	rtree    *rtreego.Rtree
	overflow []int // positions without a finite bounding box, scanned on every query
	keep     keepFunc[T]
	bands    bool // query by latitude and longitude bands instead of the box
}

// indexEntry wraps a record position for R-tree storage.
type indexEntry struct {
	pos  int
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial interface.
func (e *indexEntry) Bounds() rtreego.Rect {
	return e.rect
}

// Every rectangle edge is pushed out by rectEpsilon plus rectRelEpsilon of
// its magnitude, so that zero-area records have positive size and records
// touching an edge still intersect at any coordinate scale. R-tree
// intersection excludes shared edges.
const (
	rectEpsilon    = 1e-9
	rectRelEpsilon = 1e-12
)

var errNonFiniteRect = errors.New("rectangle is not finite")

func padLow(v float64) float64 {
	return v - rectEpsilon - math.Abs(v)*rectRelEpsilon
}

func padHigh(v float64) float64 {
	return v + rectEpsilon + math.Abs(v)*rectRelEpsilon
}

// NewPointIndex builds an index over point records.
func NewPointIndex(records []PointRecord) *Index[PointRecord] {
	return buildIndex(KindPoint, records, keepPoint, false, func(r PointRecord) (Bounds, indexClass) {
		if r.Coords == nil {
			return Bounds{}, classSkip
		}
		return boundsOf([]GeoPoint{*r.Coords})
	})
}

// NewLineIndex builds an index over line records.
func NewLineIndex(records []LineRecord) *Index[LineRecord] {
	return buildIndex(KindLine, records, keepLine, true, func(r LineRecord) (Bounds, indexClass) {
		if len(r.Coords) == 0 {
			return Bounds{}, classSkip
		}
		return boundsOf(r.Coords)
	})
}

// NewPolygonIndex builds an index over polygon records.
//
// Each record is indexed by the combined box of its exterior ring and holes.
func NewPolygonIndex(records []PolygonRecord) *Index[PolygonRecord] {
	return buildIndex(KindPolygon, records, keepPolygon, true, func(r PolygonRecord) (Bounds, indexClass) {
		if r.Coords == nil {
			return Bounds{}, classSkip
		}
		var all []GeoPoint
		for _, ring := range r.Rings() {
			all = append(all, ring...)
		}
		if len(all) == 0 {
			return Bounds{}, classSkip
		}
		return boundsOf(all)
	})
}

// indexClass says where a record goes at build time.
type indexClass int

const (
	classTree     indexClass = iota // finite box, stored in the R-tree
	classOverflow                   // non-finite coordinates, always a candidate
	classSkip                       // no geometry, can never be kept
)

// boundsOf returns the box of coords and whether it can be stored in the tree.
func boundsOf(coords []GeoPoint) (Bounds, indexClass) {
	for _, p := range coords {
		if !finite(p.Latitude) || !finite(p.Longitude) {
			return Bounds{}, classOverflow
		}
	}
	b, _ := ringBounds(coords)
	return b, classTree
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func buildIndex[T any](kind Kind, records []T, keep keepFunc[T], bands bool, classify func(T) (Bounds, indexClass)) *Index[T] {
	idx := &Index[T]{
		kind:    kind,
		records: records,
		keep:    keep,
		bands:   bands,
	}

	// Create R-tree (2D, min=25 children, max=50 children)
	entries := make([]rtreego.Spatial, 0, len(records))
	for i, r := range records {
		b, class := classify(r)
		switch class {
		case classSkip:
			continue
		case classOverflow:
			idx.overflow = append(idx.overflow, i)
			continue
		}

		rect, err := paddedRect(b)
		if err != nil {
			idx.overflow = append(idx.overflow, i)
			continue
		}
		entries = append(entries, &indexEntry{pos: i, rect: rect})
	}
	idx.rtree = rtreego.NewTree(2, 25, 50, entries...)

	Logger().Debug("index built",
		slog.String("kind", kind.String()),
		slog.Int("records", len(records)),
		slog.Int("indexed", idx.rtree.Size()),
		slog.Int("overflow", len(idx.overflow)),
	)
	return idx
}

// paddedRect converts bounds to a padded R-tree rectangle. Bounds whose
// padded edges or spans overflow float64 are rejected.
func paddedRect(b Bounds) (rtreego.Rect, error) {
	point := rtreego.Point{padLow(b.SouthWest.Longitude), padLow(b.SouthWest.Latitude)}
	lengths := []float64{
		padHigh(b.NorthEast.Longitude) - point[0],
		padHigh(b.NorthEast.Latitude) - point[1],
	}
	if !finite(point[0]) || !finite(point[1]) || !finite(lengths[0]) || !finite(lengths[1]) {
		return rtreego.Rect{}, errNonFiniteRect
	}
	return rtreego.NewRect(point, lengths)
}

// bandRects returns a rectangle spanning every longitude across the
// latitudes of b, and one spanning every latitude across its longitudes.
// Together they hold every record the straddle rule can accept.
func bandRects(b Bounds) ([]rtreego.Rect, error) {
	south, north := padLow(b.SouthWest.Latitude), padHigh(b.NorthEast.Latitude)
	west, east := padLow(b.SouthWest.Longitude), padHigh(b.NorthEast.Longitude)
	if !finite(north-south) || !finite(east-west) {
		return nil, errNonFiniteRect
	}

	latBand, err := rtreego.NewRect(
		rtreego.Point{-math.MaxFloat64, south},
		[]float64{math.Inf(1), north - south},
	)
	if err != nil {
		return nil, err
	}
	lngBand, err := rtreego.NewRect(
		rtreego.Point{west, -math.MaxFloat64},
		[]float64{east - west, math.Inf(1)},
	)
	if err != nil {
		return nil, err
	}
	return []rtreego.Rect{latBand, lngBand}, nil
}

// Len returns the number of records the index was built from.
func (idx *Index[T]) Len() int {
	return len(idx.records)
}

// Kind returns the geometry kind of the indexed records.
func (idx *Index[T]) Kind() Kind {
	return idx.kind
}

// Records returns the records the index was built from.
func (idx *Index[T]) Records() []T {
	return idx.records
}

// Cull returns the records to render for a viewport.
//
// Bypass, padding, capping and ordering are identical to the package-level
// culling function for the index's kind.
func (idx *Index[T]) Cull(bounds *Bounds, zoom float64, opts ...Option) []T {
	o := resolveOptions(opts)
	if bypassed(bounds, zoom, o) || !wellFormed(ExpandBounds(*bounds, o.Buffer)) {
		// Inverted or non-finite bounds can't be turned into R-tree queries
		return cullSlice(idx.kind, idx.records, bounds, zoom, o, idx.keep)
	}

	padded := ExpandBounds(*bounds, o.Buffer)
	if o.MaxFeatures <= 0 {
		return []T{}
	}

	candidates, err := idx.candidates(padded)
	if err != nil {
		return cullSlice(idx.kind, idx.records, bounds, zoom, o, idx.keep)
	}

	result := make([]T, 0, min(len(candidates), o.MaxFeatures))
	for _, pos := range candidates {
		r := idx.records[pos]
		if !idx.keep(r, padded, o) {
			continue
		}
		result = append(result, r)
		if len(result) == o.MaxFeatures {
			break
		}
	}

	Logger().Debug("indexed cull complete",
		slog.String("kind", idx.kind.String()),
		slog.Int("records", len(idx.records)),
		slog.Int("candidates", len(candidates)),
		slog.Int("kept", len(result)),
	)
	return result
}

// candidates returns the sorted positions of records that may match padded.
func (idx *Index[T]) candidates(padded Bounds) ([]int, error) {
	var queries []rtreego.Rect
	if idx.bands {
		rects, err := bandRects(padded)
		if err != nil {
			return nil, err
		}
		queries = rects
	} else {
		rect, err := paddedRect(padded)
		if err != nil {
			return nil, err
		}
		queries = []rtreego.Rect{rect}
	}

	seen := make(map[int]struct{})
	positions := make([]int, 0, len(idx.overflow))
	for _, q := range queries {
		for _, spatial := range idx.rtree.SearchIntersect(q) {
			entry := spatial.(*indexEntry)
			if _, ok := seen[entry.pos]; ok {
				continue
			}
			seen[entry.pos] = struct{}{}
			positions = append(positions, entry.pos)
		}
	}
	positions = append(positions, idx.overflow...)

	// Restore input order
	sort.Ints(positions)
	return positions, nil
}

// wellFormed reports whether b is finite and not inverted.
func wellFormed(b Bounds) bool {
	return finite(b.NorthEast.Latitude) && finite(b.NorthEast.Longitude) &&
		finite(b.SouthWest.Latitude) && finite(b.SouthWest.Longitude) &&
		b.SouthWest.Latitude <= b.NorthEast.Latitude &&
		b.SouthWest.Longitude <= b.NorthEast.Longitude
}
