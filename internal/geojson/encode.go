package geojson

import (
	"fmt"
	"io"

	"github.com/beetlebugorg/viewcull/pkg/cull"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Encode writes records as a single FeatureCollection: points first, then
// lines, then polygons.
//
// Unlocated points and polygons without an exterior ring are written with a
// null geometry.
func Encode(w io.Writer, points []cull.PointRecord, lines []cull.LineRecord, polygons []cull.PolygonRecord) error {
	fc := geojson.NewFeatureCollection()

	for _, p := range points {
		var g orb.Geometry
		if p.Coords != nil {
			g = toPoint(*p.Coords)
		}
		fc.Append(newFeature(p.ID, g, p.Properties))
	}
	for _, l := range lines {
		var g orb.Geometry
		if l.Coords != nil {
			g = orb.LineString(toPoints(l.Coords))
		}
		fc.Append(newFeature(l.ID, g, l.Properties))
	}
	for _, p := range polygons {
		var g orb.Geometry
		if p.Coords != nil {
			rings := p.Rings()
			polygon := make(orb.Polygon, len(rings))
			for i, ring := range rings {
				polygon[i] = orb.Ring(toPoints(ring))
			}
			g = polygon
		}
		fc.Append(newFeature(p.ID, g, p.Properties))
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

func newFeature(id string, g orb.Geometry, props map[string]any) *geojson.Feature {
	f := geojson.NewFeature(g)
	if id != "" {
		f.ID = id
	}
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

// toPoint converts a GeoPoint to GeoJSON [lon, lat] order.
func toPoint(p cull.GeoPoint) orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

func toPoints(coords []cull.GeoPoint) []orb.Point {
	out := make([]orb.Point, len(coords))
	for i, p := range coords {
		out[i] = toPoint(p)
	}
	return out
}
