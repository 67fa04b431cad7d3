package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/preciselake/preciselake/pkg/analyzer"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Output formats accepted by [output] format.
var Formats = []string{"text", "json", "markdown", "toon"}

// Config holds all configuration options for preciselake.
type Config struct {
	// Analysis selects detectors and how they run.
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Thresholds for the cost detector.
	Thresholds ThresholdConfig `koanf:"thresholds" toml:"thresholds"`

	// Graph summary settings.
	Graph GraphConfig `koanf:"graph" toml:"graph"`

	// Output settings.
	Output OutputConfig `koanf:"output" toml:"output"`

	// Telemetry log settings.
	Telemetry TelemetryConfig `koanf:"telemetry" toml:"telemetry"`

	// Exclude controls which files directory scans skip.
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`
}

// AnalysisConfig controls which detectors run.
type AnalysisConfig struct {
	Detectors []string `koanf:"detectors" toml:"detectors"`
	Parallel  bool     `koanf:"parallel" toml:"parallel"`
	Workers   int      `koanf:"workers" toml:"workers"` // 0 = one per CPU
}

// ThresholdConfig holds the size limits of the cost detector.
type ThresholdConfig struct {
	LoopNodes       int `koanf:"loop_nodes" toml:"loop_nodes"`
	LiteralElements int `koanf:"literal_elements" toml:"literal_elements"`
}

// GraphConfig controls the structural graph.
type GraphConfig struct {
	Enabled     bool `koanf:"enabled" toml:"enabled"`
	PaletteSize int  `koanf:"palette_size" toml:"palette_size"`
}

// OutputConfig controls report formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// TelemetryConfig controls the run log appended after each analysis.
type TelemetryConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	LogFile string `koanf:"log_file" toml:"log_file"`
}

// ExcludeConfig holds gitignore-style patterns skipped when a directory
// is expanded into its Python files. Explicit file arguments are never
// excluded.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"` // respect .gitignore files
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Detectors: append([]string(nil), analyzer.Order...),
			Parallel:  true,
			Workers:   0,
		},
		Thresholds: ThresholdConfig{
			LoopNodes:       2,
			LiteralElements: 100,
		},
		Graph: GraphConfig{
			Enabled:     true,
			PaletteSize: 20,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			LogFile: "memory_usage.txt",
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				".git/",
				"__pycache__/",
				".venv/",
				"venv/",
				".tox/",
				"node_modules/",
			},
			Gitignore: true,
		},
	}
}

// Load loads configuration from a file over the defaults and validates it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	// A listed detector set replaces the default one outright.
	if k.Exists("analysis.detectors") {
		cfg.Analysis.Detectors = k.Strings("analysis.detectors")
	}
	if k.Exists("exclude.patterns") {
		cfg.Exclude.Patterns = k.Strings("exclude.patterns")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// configNames are searched in order by LoadOrDefault.
var configNames = []string{
	"preciselake.toml",
	"preciselake.yaml",
	"preciselake.yml",
	"preciselake.json",
	".preciselake.toml",
	".preciselake.yaml",
	".preciselake.yml",
	".preciselake.json",
}

// Find returns the first config file present in dir, or "".
func Find(dir string) string {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadOrDefault tries to load config from the current directory or returns defaults.
func LoadOrDefault() *Config {
	if path := Find("."); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// LoadResult is a loaded config and the file it came from.
type LoadResult struct {
	Config *Config
	// Source is empty when defaults were used.
	Source string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
	dir  string
}

// WithPath loads an explicit file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithDir searches dir instead of the current directory.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// LoadConfig loads an explicit or discovered config file. Unlike
// LoadOrDefault it reports errors in a file that exists.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dir: "."}
	for _, opt := range opts {
		opt(&o)
	}
	path := o.path
	if path == "" {
		path = Find(o.dir)
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// Validate checks names and ranges.
func (c *Config) Validate() error {
	var errs []error
	if err := analyzer.ValidateNames(c.Analysis.Detectors); err != nil {
		errs = append(errs, err)
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis.workers must be >= 0, got %d", c.Analysis.Workers))
	}
	if c.Thresholds.LoopNodes < 0 {
		errs = append(errs, fmt.Errorf("thresholds.loop_nodes must be >= 0, got %d", c.Thresholds.LoopNodes))
	}
	if c.Thresholds.LiteralElements < 0 {
		errs = append(errs, fmt.Errorf("thresholds.literal_elements must be >= 0, got %d", c.Thresholds.LiteralElements))
	}
	if c.Graph.PaletteSize <= 0 {
		errs = append(errs, fmt.Errorf("graph.palette_size must be > 0, got %d", c.Graph.PaletteSize))
	}
	if !validFormat(c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format %q is not one of %s", c.Output.Format, strings.Join(Formats, ", ")))
	}
	if c.Telemetry.Enabled && c.Telemetry.LogFile == "" {
		errs = append(errs, errors.New("telemetry.log_file is required when telemetry is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func validFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Workers returns the worker count to hand the detector pool. Sequential
// runs use one worker.
func (c *Config) Workers() int {
	if !c.Analysis.Parallel {
		return 1
	}
	return c.Analysis.Workers
}
