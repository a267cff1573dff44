package cull

// Options controls culling behavior.
type Options struct {
	// Buffer pads the viewport on each side by this percentage of its span
	// before testing records, so features just off-screen are already loaded.
	// Default: 10.
	Buffer float64

	// MaxFeatures caps the number of records returned.
	// Values of 0 or less return no records.
	// Default: 1000.
	MaxFeatures int

	// MinZoom disables geometric filtering below this zoom level. Below
	// MinZoom the first MaxFeatures records are returned unfiltered.
	// Default: 0.
	MinZoom int

	// StrictCoordinates changes how point records decide whether they are
	// located. When false (default), a latitude or longitude of exactly 0
	// counts as missing, so points on the equator or prime meridian are
	// dropped. When true, only a nil or NaN coordinate is missing.
	StrictCoordinates bool
}

// DefaultOptions returns culling options with default values.
func DefaultOptions() Options {
	return Options{
		Buffer:            10,
		MaxFeatures:       1000,
		MinZoom:           0,
		StrictCoordinates: false,
	}
}

// Option overrides one culling option. Options are applied in order on top
// of DefaultOptions.
//
// Example:
//
//	visible := cull.CullPoints(records, bounds, zoom,
//	    cull.WithBuffer(20),
//	    cull.WithMaxFeatures(500),
//	)
type Option func(*Options)

// WithBuffer sets the viewport padding percentage.
func WithBuffer(percent float64) Option {
	return func(o *Options) {
		o.Buffer = percent
	}
}

// WithMaxFeatures sets the maximum number of records returned.
func WithMaxFeatures(n int) Option {
	return func(o *Options) {
		o.MaxFeatures = n
	}
}

// WithMinZoom sets the zoom level below which culling is bypassed.
func WithMinZoom(zoom int) Option {
	return func(o *Options) {
		o.MinZoom = zoom
	}
}

// WithStrictCoordinates treats 0 as a valid point coordinate.
func WithStrictCoordinates(strict bool) Option {
	return func(o *Options) {
		o.StrictCoordinates = strict
	}
}

// WithOptions replaces all options at once.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		*o = opts
	}
}

// resolveOptions merges opts over the defaults.
func resolveOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
