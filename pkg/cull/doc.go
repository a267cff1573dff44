// Package cull selects the map features worth rendering for a viewport.
//
// It is designed for map rendering applications that hold thousands of
// points, tracks and areas but only draw what is on screen. Records outside
// the viewport (plus a small buffer) are dropped and the rest are capped to a
// fixed budget before they reach the renderer.
//
// # Basic Usage
//
//	region := &cull.Region{
//	    Latitude: 42.35, Longitude: -71.05,
//	    LatitudeDelta: 0.2, LongitudeDelta: 0.3,
//	}
//	bounds := cull.ComputeBounds(region)
//
//	visiblePoints := cull.CullPoints(fixes, bounds, zoom)
//	visibleTracks := cull.CullLines(tracks, bounds, zoom)
//	visibleAreas := cull.CullPolygons(areas, bounds, zoom)
//
// # Culling Rules
//
// Every cull follows the same steps:
//
//	// 1. Bypass: nil bounds or zoom < MinZoom returns the first MaxFeatures records
//	// 2. Pad the bounds by Buffer percent of their span on each side
//	// 3. Keep records that match the padded bounds, in input order
//	// 4. Stop once MaxFeatures records are kept
//
// Points match when they lie inside the padded bounds. Lines match when a
// vertex is inside or a segment straddles the bounds on one axis. Polygons
// use the line rule on every ring. These tests are cheap approximations and
// may keep a few records that are not actually visible.
//
// # Options
//
//	visible := cull.CullPoints(fixes, bounds, zoom,
//	    cull.WithBuffer(20),      // default 10
//	    cull.WithMaxFeatures(200), // default 1000
//	    cull.WithMinZoom(8),      // default 0
//	)
//
// # Spatial Index
//
// For large datasets queried many times, build an index once:
//
//	idx := cull.NewLineIndex(tracks)
//	visible := idx.Cull(bounds, zoom)
//
// Index.Cull returns the same records as the matching Cull function.
//
// # Frames
//
// CullFrame culls several layers for one viewport, optionally in parallel
// and through result caches:
//
//	caches := cull.NewFrameCaches(32)
//	result := cull.CullFrame(frame, cull.FrameOptions{Parallel: true, Caches: caches})
//
// A Viewport decides when a moving map has drifted far enough to cull again.
//
// # Coordinates
//
// Coordinates are WGS-84 degrees. Longitude wraparound at the antimeridian is
// not handled. By default a latitude or longitude of exactly 0 counts as
// missing; see ComputeBoundsStrict and WithStrictCoordinates.
//
// # Logging
//
// The package is silent by default. Call SetLogger to receive debug and info
// records through log/slog.
package cull
