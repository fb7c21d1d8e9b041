// Package config loads the slice viewer configuration from YAML and provides
// default values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Orientation describes one slice axis and the bounds of its stack.
type Orientation struct {
	// Name is the axis label: axial, coronal or sagittal.
	Name string `yaml:"name"`

	// FirstSlice and LastSlice bound the rendered slice numbers.
	FirstSlice int `yaml:"firstSlice"`
	LastSlice  int `yaml:"lastSlice"`

	// Skip is the interval between rendered slices.
	Skip int `yaml:"skip"`
}

// SliceCount is how many slides the stack holds given the bounds and skip.
func (o Orientation) SliceCount() int {
	if o.Skip <= 0 || o.LastSlice < o.FirstSlice {
		return 0
	}
	return (o.LastSlice-o.FirstSlice)/o.Skip + 1
}

// SliceNumbers lists the rendered slice numbers in order; these become the
// selector options on the viewer page.
func (o Orientation) SliceNumbers() []int {
	numbers := make([]int, 0, o.SliceCount())
	for n := o.FirstSlice; n <= o.LastSlice; n += o.Skip {
		numbers = append(numbers, n)
	}
	return numbers
}

// Config represents the viewer configuration loaded from YAML.
type Config struct {
	Viewer struct {
		// ImageTypes are the rendered volumes shown side by side,
		// e.g. brainmask and aseg overlays.
		ImageTypes []string `yaml:"imageTypes"`

		// Orientations lists the slice axes and their stack bounds.
		Orientations []Orientation `yaml:"orientations"`

		// DefaultDelayMS is the auto-advance interval new viewers start with.
		DefaultDelayMS int `yaml:"defaultDelayMs"`

		// SlicePathTemplate locates slice images under static/, with
		// %s=imageType, %s=orientation, %d=slice number.
		SlicePathTemplate string `yaml:"slicePathTemplate"`
	} `yaml:"viewer"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Viewer.ImageTypes = []string{"brainmask", "aseg"}
	cfg.Viewer.Orientations = []Orientation{
		{Name: "axial", FirstSlice: 20, LastSlice: 220, Skip: 10},
		{Name: "coronal", FirstSlice: 20, LastSlice: 220, Skip: 10},
		{Name: "sagittal", FirstSlice: 20, LastSlice: 220, Skip: 10},
	}
	cfg.Viewer.DefaultDelayMS = 500
	cfg.Viewer.SlicePathTemplate = "/static/slices/%s/%s/%03d.png"
	return cfg
}

// Load reads the configuration from path, overlaying the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the viewer cannot run with.
func (c *Config) Validate() error {
	if len(c.Viewer.ImageTypes) == 0 {
		return fmt.Errorf("config must list at least one image type")
	}
	if len(c.Viewer.Orientations) == 0 {
		return fmt.Errorf("config must list at least one orientation")
	}
	for _, o := range c.Viewer.Orientations {
		if o.Name == "" {
			return fmt.Errorf("orientation name must not be empty")
		}
		if o.SliceCount() <= 0 {
			return fmt.Errorf("orientation %s has no slices (first %d, last %d, skip %d)",
				o.Name, o.FirstSlice, o.LastSlice, o.Skip)
		}
	}
	if c.Viewer.DefaultDelayMS < 100 {
		return fmt.Errorf("defaultDelayMs must be at least 100, got %d", c.Viewer.DefaultDelayMS)
	}
	return nil
}
