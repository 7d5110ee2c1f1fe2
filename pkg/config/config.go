package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-optics-engine/pkg/marcher"
)

// ErrInvalidConfig is returned when a configuration fails validation
var ErrInvalidConfig = errors.New("invalid config")

// Config captures all runtime tunables of the engine and its hosts
type Config struct {
	Bounds    BoundsConfig    `yaml:"bounds"`
	March     MarchConfig     `yaml:"march"`
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
	Recording RecordingConfig `yaml:"recording"`
}

// BoundsConfig describes the simulation area
type BoundsConfig struct {
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Padding float64 `yaml:"padding"`
}

// MarchConfig tunes the ray marcher
type MarchConfig struct {
	StepTolerance    float64 `yaml:"step_tolerance"`
	MaxIterations    int     `yaml:"max_iterations"`
	EmptySceneLength float64 `yaml:"empty_scene_length"`
	NumWorkers       int     `yaml:"num_workers"` // 0 = use CPU count
	RecordSteps      bool    `yaml:"record_steps"`
}

// LoggingConfig selects log verbosity and format
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"` // "json" or "console"
}

// ServerConfig tunes the web host
type ServerConfig struct {
	Port     int     `yaml:"port"`
	StreamHz float64 `yaml:"stream_hz"` // Frame rate of the live websocket stream
}

// RecordingConfig controls where session recordings are written
type RecordingConfig struct {
	Dir string `yaml:"dir"` // Empty disables recording
}

// Default returns the configuration used when no file is given
func Default() *Config {
	m := marcher.DefaultConfig()
	return &Config{
		Bounds: BoundsConfig{
			Width:   m.Width,
			Height:  m.Height,
			Padding: m.OutOfBoundsPadding,
		},
		March: MarchConfig{
			StepTolerance:    m.StepTolerance,
			MaxIterations:    m.MaxIterations,
			EmptySceneLength: m.EmptySceneLength,
			NumWorkers:       m.NumWorkers,
			RecordSteps:      m.RecordSteps,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Server: ServerConfig{
			Port:     8080,
			StreamHz: 30,
		},
	}
}

// Load decodes YAML over the defaults and validates the result
func Load(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML configuration file. An empty path yields the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var problems []string

	if c.Bounds.Width <= 0 || c.Bounds.Height <= 0 {
		problems = append(problems, fmt.Sprintf("bounds must be positive, got %gx%g", c.Bounds.Width, c.Bounds.Height))
	}
	if c.Bounds.Padding < 0 {
		problems = append(problems, fmt.Sprintf("bounds.padding must be non-negative, got %g", c.Bounds.Padding))
	}
	if c.March.StepTolerance <= 0 {
		problems = append(problems, fmt.Sprintf("march.step_tolerance must be positive, got %g", c.March.StepTolerance))
	}
	if c.March.MaxIterations <= 0 {
		problems = append(problems, fmt.Sprintf("march.max_iterations must be positive, got %d", c.March.MaxIterations))
	}
	if c.March.EmptySceneLength < 0 {
		problems = append(problems, fmt.Sprintf("march.empty_scene_length must be non-negative, got %g", c.March.EmptySceneLength))
	}
	if c.March.NumWorkers < 0 {
		problems = append(problems, fmt.Sprintf("march.num_workers must be non-negative, got %d", c.March.NumWorkers))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level))
	}
	if c.Logging.Encoding != "json" && c.Logging.Encoding != "console" {
		problems = append(problems, fmt.Sprintf("logging.encoding must be json or console, got %q", c.Logging.Encoding))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port must be a valid TCP port, got %d", c.Server.Port))
	}
	if c.Server.StreamHz <= 0 {
		problems = append(problems, fmt.Sprintf("server.stream_hz must be positive, got %g", c.Server.StreamHz))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// MarcherConfig converts the bounds and march sections into engine parameters
func (c *Config) MarcherConfig() marcher.Config {
	return marcher.Config{
		Width:              c.Bounds.Width,
		Height:             c.Bounds.Height,
		OutOfBoundsPadding: c.Bounds.Padding,
		StepTolerance:      c.March.StepTolerance,
		MaxIterations:      c.March.MaxIterations,
		EmptySceneLength:   c.March.EmptySceneLength,
		NumWorkers:         c.March.NumWorkers,
		RecordSteps:        c.March.RecordSteps,
	}
}
