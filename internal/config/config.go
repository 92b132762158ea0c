package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ViewportConfig holds the projection parameters of the visibility
// computation.
type ViewportConfig struct {
	HorizontalFOVDeg float64 `yaml:"horizontal_fov_deg"` // monocular horizontal field of view (default 92)
	VerticalFOVDeg   float64 `yaml:"vertical_fov_deg"`   // monocular vertical field of view (default 92)
	SampleResolution int     `yaml:"sample_resolution"`  // N for an (N+1)x(N+1) sample grid (default 8)
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
}

// WebConfig configures the optional web server.
type WebConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}

// Config aggregates all application configuration.
type Config struct {
	Layout   string         `yaml:"layout"` // path to the tile layout file
	Trace    string         `yaml:"trace"`  // path to a head-movement trace (optional)
	Viewport ViewportConfig `yaml:"viewport"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Web      WebConfig      `yaml:"web"`
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// Defaults
	if cfg.Viewport.HorizontalFOVDeg == 0 {
		cfg.Viewport.HorizontalFOVDeg = 92
	}
	if cfg.Viewport.VerticalFOVDeg == 0 {
		cfg.Viewport.VerticalFOVDeg = 92
	}
	if cfg.Viewport.SampleResolution == 0 {
		cfg.Viewport.SampleResolution = 8
	}

	// Basic validation
	if cfg.Layout == "" {
		return nil, fmt.Errorf("layout is required")
	}
	if cfg.Viewport.HorizontalFOVDeg <= 0 || cfg.Viewport.HorizontalFOVDeg >= 180 {
		return nil, fmt.Errorf("horizontal_fov_deg must be in (0, 180), got %.2f", cfg.Viewport.HorizontalFOVDeg)
	}
	if cfg.Viewport.VerticalFOVDeg <= 0 || cfg.Viewport.VerticalFOVDeg >= 180 {
		return nil, fmt.Errorf("vertical_fov_deg must be in (0, 180), got %.2f", cfg.Viewport.VerticalFOVDeg)
	}
	if cfg.Viewport.SampleResolution < 1 {
		return nil, fmt.Errorf("sample_resolution must be >= 1, got %d", cfg.Viewport.SampleResolution)
	}
	if cfg.Defaults.DebugLevel < 0 || cfg.Defaults.DebugLevel > 4 {
		return nil, fmt.Errorf("debug_level must be between 0 and 4, got %d", cfg.Defaults.DebugLevel)
	}
	if cfg.Web.Port < 0 || cfg.Web.Port > 65535 {
		return nil, fmt.Errorf("web port must be between 0 and 65535, got %d", cfg.Web.Port)
	}

	return &cfg, nil
}

// ValidateConfigPath checks that path points at a YAML file inside a
// configs/ directory and does not traverse outside it.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config file must have a .yaml extension: %s", path)
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path must not traverse directories: %s", path)
		}
	}
	if filepath.Base(filepath.Dir(path)) != "configs" {
		return fmt.Errorf("config file must live in a configs/ directory: %s", path)
	}
	return nil
}
