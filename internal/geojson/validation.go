package geojson

import (
	"math"

	"github.com/beetlebugorg/viewcull/pkg/cull"
)

// ValidateCoordinate validates a single coordinate pair.
// Latitude must be within ±90 and longitude within ±180.
func ValidateCoordinate(p cull.GeoPoint) error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90.0 || p.Latitude > 90.0 {
		return &ErrInvalidCoordinate{Lat: p.Latitude, Lon: p.Longitude}
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180.0 || p.Longitude > 180.0 {
		return &ErrInvalidCoordinate{Lat: p.Latitude, Lon: p.Longitude}
	}
	return nil
}

// validateCoords checks every coordinate of a record, exterior and holes
// alike. Index counts across all rings.
func validateCoords(id string, rings ...[]cull.GeoPoint) error {
	i := 0
	for _, ring := range rings {
		for _, p := range ring {
			if err := ValidateCoordinate(p); err != nil {
				return &ErrInvalidGeometry{FeatureID: id, Index: i, Err: err}
			}
			i++
		}
	}
	return nil
}

// validate checks the records added since the given layer sizes.
func (l *Layers) validate(points, lines, polygons int) error {
	for _, r := range l.Points[points:] {
		if r.Coords == nil {
			continue
		}
		if err := validateCoords(r.ID, []cull.GeoPoint{*r.Coords}); err != nil {
			return err
		}
	}
	for _, r := range l.Lines[lines:] {
		if err := validateCoords(r.ID, r.Coords); err != nil {
			return err
		}
	}
	for _, r := range l.Polygons[polygons:] {
		if err := validateCoords(r.ID, r.Rings()...); err != nil {
			return err
		}
	}
	return nil
}
