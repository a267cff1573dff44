// Package geojson converts GeoJSON feature collections to and from cull
// records.
package geojson

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/beetlebugorg/viewcull/pkg/cull"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Layers holds decoded records grouped by geometry kind, in input order.
type Layers struct {
	Points   []cull.PointRecord
	Lines    []cull.LineRecord
	Polygons []cull.PolygonRecord
}

// Len returns the total number of records.
func (l *Layers) Len() int {
	return len(l.Points) + len(l.Lines) + len(l.Polygons)
}

// DecodeOptions controls GeoJSON decoding.
type DecodeOptions struct {
	// SkipUnsupported drops features with geometry types that have no record
	// type (GeometryCollection) instead of failing.
	// Default: false.
	SkipUnsupported bool

	// ValidateCoordinates rejects features with a latitude outside ±90 or a
	// longitude outside ±180.
	// Default: false.
	ValidateCoordinates bool
}

// DefaultDecodeOptions returns decode options with default values.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		SkipUnsupported:     false,
		ValidateCoordinates: false,
	}
}

// Decode reads a FeatureCollection with default options.
func Decode(r io.Reader) (*Layers, error) {
	return DecodeWithOptions(r, DefaultDecodeOptions())
}

// DecodeWithOptions reads a FeatureCollection and splits its features into
// point, line and polygon records.
//
// Multi geometries produce one record per part, with IDs suffixed "/0",
// "/1", and so on. Features without an id get a random UUID. A feature with a
// null geometry becomes an unlocated point record.
func DecodeWithOptions(r io.Reader, opts DecodeOptions) (*Layers, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &ErrInvalidCollection{Reason: "decode", Err: err}
	}

	layers := &Layers{}
	skipped := 0
	for i, f := range fc.Features {
		if f == nil {
			return nil, &ErrInvalidCollection{Reason: fmt.Sprintf("feature %d is null", i)}
		}
		points, lines, polygons := len(layers.Points), len(layers.Lines), len(layers.Polygons)
		if err := layers.add(f); err != nil {
			if opts.SkipUnsupported {
				slog.Debug("skipping feature", slog.String("error", err.Error()))
				skipped++
				continue
			}
			return nil, err
		}
		if opts.ValidateCoordinates {
			if err := layers.validate(points, lines, polygons); err != nil {
				return nil, err
			}
		}
	}

	slog.Debug("geojson decoded",
		slog.Int("features", len(fc.Features)),
		slog.Int("points", len(layers.Points)),
		slog.Int("lines", len(layers.Lines)),
		slog.Int("polygons", len(layers.Polygons)),
		slog.Int("skipped", skipped),
	)
	return layers, nil
}

// add converts one feature into records.
func (l *Layers) add(f *geojson.Feature) error {
	id := featureID(f.ID)
	props := map[string]any(f.Properties)

	switch g := f.Geometry.(type) {
	case nil:
		l.Points = append(l.Points, cull.PointRecord{ID: id, Properties: props})
	case orb.Point:
		l.Points = append(l.Points, pointRecord(id, g, props))
	case orb.MultiPoint:
		for i, p := range g {
			l.Points = append(l.Points, pointRecord(partID(id, i), p, f.Properties.Clone()))
		}
	case orb.LineString:
		l.Lines = append(l.Lines, cull.LineRecord{ID: id, Coords: toGeoPoints(g), Properties: props})
	case orb.MultiLineString:
		for i, ls := range g {
			l.Lines = append(l.Lines, cull.LineRecord{
				ID:         partID(id, i),
				Coords:     toGeoPoints(ls),
				Properties: f.Properties.Clone(),
			})
		}
	case orb.Polygon:
		l.Polygons = append(l.Polygons, polygonRecord(id, g, props))
	case orb.MultiPolygon:
		for i, p := range g {
			l.Polygons = append(l.Polygons, polygonRecord(partID(id, i), p, f.Properties.Clone()))
		}
	default:
		return &ErrUnsupportedGeometry{FeatureID: id, Type: g.GeoJSONType()}
	}
	return nil
}

func featureID(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return uuid.NewString()
	case string:
		if v == "" {
			return uuid.NewString()
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func partID(id string, i int) string {
	return id + "/" + strconv.Itoa(i)
}

func pointRecord(id string, p orb.Point, props map[string]any) cull.PointRecord {
	coords := toGeoPoint(p)
	return cull.PointRecord{ID: id, Coords: &coords, Properties: props}
}

func polygonRecord(id string, p orb.Polygon, props map[string]any) cull.PolygonRecord {
	rec := cull.PolygonRecord{ID: id, Properties: props}
	if len(p) == 0 {
		rec.Coords = []cull.GeoPoint{}
		return rec
	}

	rec.Coords = toGeoPoints(p[0])
	if len(p) > 1 {
		rec.Holes = make(map[string][]cull.GeoPoint, len(p)-1)
		for i, hole := range p[1:] {
			rec.Holes[HoleName(i+1)] = toGeoPoints(hole)
		}
	}
	return rec
}

// HoleName returns the name given to the n-th hole of a polygon, counting
// from 1. Names sort in hole order.
func HoleName(n int) string {
	return fmt.Sprintf("hole-%03d", n)
}

// toGeoPoint converts GeoJSON [lon, lat] order to a GeoPoint.
func toGeoPoint(p orb.Point) cull.GeoPoint {
	return cull.GeoPoint{Latitude: p.Lat(), Longitude: p.Lon()}
}

func toGeoPoints(points []orb.Point) []cull.GeoPoint {
	out := make([]cull.GeoPoint, len(points))
	for i, p := range points {
		out[i] = toGeoPoint(p)
	}
	return out
}
