package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beetlebugorg/viewcull/pkg/cull"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Cull     CullConfig     `mapstructure:"cull"`
	Index    IndexConfig    `mapstructure:"index"`
	Frame    FrameConfig    `mapstructure:"frame"`
	Viewport ViewportConfig `mapstructure:"viewport"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type InputConfig struct {
	SkipUnsupported     bool `mapstructure:"skip_unsupported"`
	ValidateCoordinates bool `mapstructure:"validate_coordinates"`
}

type CullConfig struct {
	Buffer            float64 `mapstructure:"buffer"`
	MaxFeatures       int     `mapstructure:"max_features"`
	MinZoom           int     `mapstructure:"min_zoom"`
	StrictCoordinates bool    `mapstructure:"strict_coordinates"`
}

type IndexConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type FrameConfig struct {
	Parallel     bool `mapstructure:"parallel"`
	Workers      int  `mapstructure:"workers"`
	CacheEntries int  `mapstructure:"cache_entries"`
}

type ViewportConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Options converts the cull section into culling options.
func (c CullConfig) Options() cull.Options {
	return cull.Options{
		Buffer:            c.Buffer,
		MaxFeatures:       c.MaxFeatures,
		MinZoom:           c.MinZoom,
		StrictCoordinates: c.StrictCoordinates,
	}
}

// CullOptions returns the configured culling options as a single override.
func (c *Config) CullOptions() []cull.Option {
	return []cull.Option{cull.WithOptions(c.Cull.Options())}
}

// FrameOptions returns frame options for the configured worker pool.
// Caches are created when frame.cache_entries is positive.
func (c *Config) FrameOptions() cull.FrameOptions {
	opts := cull.FrameOptions{
		Parallel: c.Frame.Parallel,
		Workers:  c.Frame.Workers,
	}
	if c.Frame.CacheEntries > 0 {
		opts.Caches = cull.NewFrameCaches(c.Frame.CacheEntries)
	}
	return opts
}

// Load reads configuration from defaults, an optional YAML file and
// environment variables.
//
// If path is empty, "viewcull.yaml" is looked up in the working directory
// and ./configs, and a missing file is not an error. An explicit path must
// exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("input.skip_unsupported", false)
	v.SetDefault("input.validate_coordinates", false)
	defaults := cull.DefaultOptions()
	v.SetDefault("cull.buffer", defaults.Buffer)
	v.SetDefault("cull.max_features", defaults.MaxFeatures)
	v.SetDefault("cull.min_zoom", defaults.MinZoom)
	v.SetDefault("cull.strict_coordinates", defaults.StrictCoordinates)
	v.SetDefault("index.enabled", true)
	v.SetDefault("frame.parallel", true)
	v.SetDefault("frame.workers", 0)
	v.SetDefault("frame.cache_entries", 64)
	v.SetDefault("viewport.threshold", 0.1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.enabled", false)

	// Config file
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("viewcull")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: VIEWCULL_CULL_BUFFER → cull.buffer
	v.SetEnvPrefix("VIEWCULL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
)

// Validate checks that configuration values are sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Cull.Buffer < 0 {
		errs = append(errs, fmt.Sprintf("cull.buffer must be >= 0, got %v", c.Cull.Buffer))
	}
	if c.Cull.MaxFeatures < 0 {
		errs = append(errs, fmt.Sprintf("cull.max_features must be >= 0, got %d", c.Cull.MaxFeatures))
	}
	if c.Frame.Workers < 0 {
		errs = append(errs, fmt.Sprintf("frame.workers must be >= 0, got %d", c.Frame.Workers))
	}
	if c.Frame.CacheEntries < 0 {
		errs = append(errs, fmt.Sprintf("frame.cache_entries must be >= 0, got %d", c.Frame.CacheEntries))
	}
	if c.Viewport.Threshold < 0 {
		errs = append(errs, fmt.Sprintf("viewport.threshold must be >= 0, got %v", c.Viewport.Threshold))
	}
	if !oneOf(c.Log.Level, logLevels) {
		errs = append(errs, fmt.Sprintf("log.level must be one of %s, got %q", strings.Join(logLevels, ", "), c.Log.Level))
	}
	if !oneOf(c.Log.Format, logFormats) {
		errs = append(errs, fmt.Sprintf("log.format must be one of %s, got %q", strings.Join(logFormats, ", "), c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	v = strings.ToLower(v)
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
