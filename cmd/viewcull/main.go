// Command viewcull reads GeoJSON features and writes the ones visible in a
// map viewport.
//
// Usage:
//
//	viewcull -in features.geojson -lat 42.35 -lng -71.05 -lat-delta 0.2 -lng-delta 0.3 -zoom 12
//	viewcull -in features.geojson -regions pans.jsonl
//
// With -regions, each line of the file is a JSON region
// ({"latitude":..,"longitude":..,"latitudeDelta":..,"longitudeDelta":..,"zoom":..})
// and a FeatureCollection line is written for every region that moved far
// enough from the last culled one.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/beetlebugorg/viewcull/internal/config"
	"github.com/beetlebugorg/viewcull/internal/geojson"
	"github.com/beetlebugorg/viewcull/internal/logging"
	"github.com/beetlebugorg/viewcull/internal/metrics"
	"github.com/beetlebugorg/viewcull/pkg/cull"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// flags holds parsed command line values.
type flags struct {
	config      string
	in          string
	regions     string
	lat         float64
	lng         float64
	latDelta    float64
	lngDelta    float64
	zoom        float64
	buffer      float64
	maxFeatures int
	minZoom     int
	strict      bool
	validate    bool
	metrics     bool
	set         map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{set: make(map[string]bool)}

	fs := flag.NewFlagSet("viewcull", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.config, "config", "", "Path to YAML config file")
	fs.StringVar(&f.in, "in", "-", "GeoJSON FeatureCollection to read ('-' for stdin)")
	fs.StringVar(&f.regions, "regions", "", "File of JSON regions, one per line")
	fs.Float64Var(&f.lat, "lat", 0, "Viewport center latitude")
	fs.Float64Var(&f.lng, "lng", 0, "Viewport center longitude")
	fs.Float64Var(&f.latDelta, "lat-delta", 0, "Viewport height in degrees")
	fs.Float64Var(&f.lngDelta, "lng-delta", 0, "Viewport width in degrees")
	fs.Float64Var(&f.zoom, "zoom", 0, "Map zoom level")
	fs.Float64Var(&f.buffer, "buffer", 0, "Viewport padding percentage (overrides config)")
	fs.IntVar(&f.maxFeatures, "max-features", 0, "Maximum features per layer (overrides config)")
	fs.IntVar(&f.minZoom, "min-zoom", 0, "Zoom below which culling is bypassed (overrides config)")
	fs.BoolVar(&f.strict, "strict", false, "Treat 0 as a valid latitude or longitude")
	fs.BoolVar(&f.validate, "validate", false, "Reject features with out of range coordinates")
	fs.BoolVar(&f.metrics, "metrics", false, "Write Prometheus metrics to stderr when done")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return f, nil
}

// apply overrides config values with explicitly set flags.
func (f *flags) apply(cfg *config.Config) {
	if f.set["buffer"] {
		cfg.Cull.Buffer = f.buffer
	}
	if f.set["max-features"] {
		cfg.Cull.MaxFeatures = f.maxFeatures
	}
	if f.set["min-zoom"] {
		cfg.Cull.MinZoom = f.minZoom
	}
	if f.set["strict"] {
		cfg.Cull.StrictCoordinates = f.strict
	}
	if f.set["validate"] {
		cfg.Input.ValidateCoordinates = f.validate
	}
	if f.set["metrics"] {
		cfg.Metrics.Enabled = f.metrics
	}
}

func (f *flags) region() *cull.Region {
	zoom := f.zoom
	return &cull.Region{
		Latitude:       f.lat,
		Longitude:      f.lng,
		LatitudeDelta:  f.latDelta,
		LongitudeDelta: f.lngDelta,
		Zoom:           &zoom,
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		fmt.Fprintf(stderr, "viewcull: %v\n", err)
		return 1
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "viewcull: %v\n", err)
		return 1
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format, stderr)
	cull.SetLogger(logger)
	defer cull.SetLogger(nil)

	layers, err := readLayers(f.in, stdin, geojson.DecodeOptions{
		SkipUnsupported:     cfg.Input.SkipUnsupported,
		ValidateCoordinates: cfg.Input.ValidateCoordinates,
	})
	if err != nil {
		logger.Error("failed to read features", slog.String("in", f.in), slog.String("error", err.Error()))
		return 1
	}

	app := newApp(cfg, layers, stdout, logger)

	if f.regions != "" {
		err = app.followRegions(f.regions)
	} else {
		err = app.cullRegion(f.region())
	}
	if err != nil {
		logger.Error("cull failed", slog.String("error", err.Error()))
		return 1
	}

	if app.metrics != nil {
		if err := app.metrics.WriteText(stderr); err != nil {
			logger.Error("failed to write metrics", slog.String("error", err.Error()))
			return 1
		}
	}
	return 0
}

func readLayers(path string, stdin io.Reader, opts geojson.DecodeOptions) (*geojson.Layers, error) {
	if path == "-" {
		return geojson.DecodeWithOptions(stdin, opts)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return geojson.DecodeWithOptions(file, opts)
}

// app culls decoded layers for one or more regions.
type app struct {
	cfg       *config.Config
	out       io.Writer
	logger    *slog.Logger
	metrics   *metrics.Metrics
	frameOpts cull.FrameOptions

	layers   *geojson.Layers
	points   *cull.Index[cull.PointRecord]
	lines    *cull.Index[cull.LineRecord]
	polygons *cull.Index[cull.PolygonRecord]
}

func newApp(cfg *config.Config, layers *geojson.Layers, out io.Writer, logger *slog.Logger) *app {
	a := &app{
		cfg:       cfg,
		out:       out,
		logger:    logger,
		frameOpts: cfg.FrameOptions(),
		layers:    layers,
	}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
	}
	if cfg.Index.Enabled {
		a.points = cull.NewPointIndex(layers.Points)
		a.lines = cull.NewLineIndex(layers.Lines)
		a.polygons = cull.NewPolygonIndex(layers.Polygons)
	}
	return a
}

func (a *app) bounds(region *cull.Region) *cull.Bounds {
	if a.cfg.Cull.StrictCoordinates {
		return cull.ComputeBoundsStrict(region)
	}
	return cull.ComputeBounds(region)
}

func (a *app) frame(bounds *cull.Bounds, zoom float64) cull.Frame {
	opts := a.cfg.CullOptions()
	return cull.Frame{
		Bounds:   bounds,
		Zoom:     zoom,
		Points:   []cull.PointLayer{{Name: "points", Records: a.layers.Points, Index: a.points, Options: opts}},
		Lines:    []cull.LineLayer{{Name: "lines", Records: a.layers.Lines, Index: a.lines, Options: opts}},
		Polygons: []cull.PolygonLayer{{Name: "polygons", Records: a.layers.Polygons, Index: a.polygons, Options: opts}},
	}
}

// cullAndWrite culls one frame and writes it as a FeatureCollection line.
func (a *app) cullAndWrite(bounds *cull.Bounds, zoom float64) error {
	result := cull.CullFrame(a.frame(bounds, zoom), a.frameOpts)
	if a.metrics != nil {
		a.metrics.Observe(result)
	}

	for _, s := range result.Stats {
		a.logger.Info("layer culled",
			slog.String("layer", s.Name),
			slog.Int("input", s.Input),
			slog.Int("kept", s.Kept),
			slog.Bool("cached", s.Cached),
			slog.Duration("duration", s.Duration),
		)
	}

	if err := geojson.Encode(a.out, result.Points[0], result.Lines[0], result.Polygons[0]); err != nil {
		return err
	}
	_, err := io.WriteString(a.out, "\n")
	return err
}

func (a *app) cullRegion(region *cull.Region) error {
	var zoom float64
	if region.Zoom != nil {
		zoom = *region.Zoom
	}
	return a.cullAndWrite(a.bounds(region), zoom)
}

// regionLine is one line of a -regions file.
type regionLine struct {
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	LatitudeDelta  float64  `json:"latitudeDelta"`
	LongitudeDelta float64  `json:"longitudeDelta"`
	Zoom           *float64 `json:"zoom"`
}

func (a *app) followRegions(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var vp *cull.Viewport
	if a.cfg.Cull.StrictCoordinates {
		vp = cull.NewStrictViewport(a.cfg.Viewport.Threshold)
	} else {
		vp = cull.NewViewport(a.cfg.Viewport.Threshold)
	}

	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var rl regionLine
		if err := json.Unmarshal(scanner.Bytes(), &rl); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}

		bounds, changed := vp.Update(&cull.Region{
			Latitude:       rl.Latitude,
			Longitude:      rl.Longitude,
			LatitudeDelta:  rl.LatitudeDelta,
			LongitudeDelta: rl.LongitudeDelta,
			Zoom:           rl.Zoom,
		})
		if !changed {
			a.logger.Debug("viewport unchanged", slog.Int("line", line))
			continue
		}
		if err := a.cullAndWrite(bounds, vp.Zoom()); err != nil {
			return err
		}
	}
	return scanner.Err()
}
