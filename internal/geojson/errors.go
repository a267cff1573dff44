package geojson

import (
	"fmt"
)

// ErrInvalidCollection indicates input that is not a GeoJSON FeatureCollection
type ErrInvalidCollection struct {
	Reason string
	Err    error
}

func (e *ErrInvalidCollection) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid feature collection: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid feature collection: %s", e.Reason)
}

func (e *ErrInvalidCollection) Unwrap() error {
	return e.Err
}

// ErrUnsupportedGeometry indicates a feature whose geometry has no record type
type ErrUnsupportedGeometry struct {
	FeatureID string
	Type      string
}

func (e *ErrUnsupportedGeometry) Error() string {
	return fmt.Sprintf("feature %s: unsupported geometry type %s", e.FeatureID, e.Type)
}

// ErrInvalidCoordinate indicates coordinate out of valid bounds
type ErrInvalidCoordinate struct {
	Lat, Lon float64
}

func (e *ErrInvalidCoordinate) Error() string {
	return fmt.Sprintf("invalid coordinate: lat=%f lon=%f (lat must be ±90, lon must be ±180)",
		e.Lat, e.Lon)
}

// ErrInvalidGeometry indicates a feature with an invalid coordinate
type ErrInvalidGeometry struct {
	FeatureID string
	Index     int
	Err       error
}

func (e *ErrInvalidGeometry) Error() string {
	return fmt.Sprintf("feature %s: coordinate %d: %v", e.FeatureID, e.Index, e.Err)
}

func (e *ErrInvalidGeometry) Unwrap() error {
	return e.Err
}
