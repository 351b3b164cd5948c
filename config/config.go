// Package config holds the host configuration. Everything has a working
// default; a yaml file only overrides what it names.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the host configuration.
type Config struct {
	// Title is the window/program title.
	Title string `yaml:"title,omitempty"`
	// FrameInterval paces dispatched frames (the tick the orchestrator
	// waits on while a frame is pending).
	FrameInterval time.Duration `yaml:"frame_interval,omitempty"`
	// CallTimeout is the bounded-execution guard per guest call.
	CallTimeout time.Duration `yaml:"call_timeout,omitempty"`
	// GuestMemoryPages caps guest linear memory in 64KiB pages.
	GuestMemoryPages uint32 `yaml:"guest_memory_pages,omitempty"`
	// CellWidth/CellHeight give the logical units per terminal cell.
	CellWidth  float32 `yaml:"cell_width,omitempty"`
	CellHeight float32 `yaml:"cell_height,omitempty"`
	// FontPath optionally names a TTF face for raster text output.
	FontPath string `yaml:"font_path,omitempty"`
	// LogFile receives host logs in TUI mode, where stderr is the screen.
	LogFile string `yaml:"log_file,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Title:            "Frontier Canvas Host",
		FrameInterval:    16 * time.Millisecond,
		CallTimeout:      2 * time.Second,
		GuestMemoryPages: 1024, // 64MiB
		CellWidth:        8,
		CellHeight:       16,
		LogFile:          "canvas-host.log",
	}
}

// fileConfig mirrors Config with durations as strings, the way they read
// in yaml ("16ms", "2s"). Numeric fields are pointers so an absent key is
// distinguishable from an explicit zero.
type fileConfig struct {
	Title            string   `yaml:"title"`
	FrameInterval    string   `yaml:"frame_interval"`
	CallTimeout      string   `yaml:"call_timeout"`
	GuestMemoryPages *uint32  `yaml:"guest_memory_pages"`
	CellWidth        *float32 `yaml:"cell_width"`
	CellHeight       *float32 `yaml:"cell_height"`
	FontPath         string   `yaml:"font_path"`
	LogFile          string   `yaml:"log_file"`
}

// Load reads a yaml config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := file.apply(&cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (f fileConfig) apply(cfg *Config) error {
	if f.Title != "" {
		cfg.Title = f.Title
	}
	if f.FrameInterval != "" {
		d, err := time.ParseDuration(f.FrameInterval)
		if err != nil {
			return fmt.Errorf("frame_interval: %w", err)
		}
		cfg.FrameInterval = d
	}
	if f.CallTimeout != "" {
		d, err := time.ParseDuration(f.CallTimeout)
		if err != nil {
			return fmt.Errorf("call_timeout: %w", err)
		}
		cfg.CallTimeout = d
	}
	if f.GuestMemoryPages != nil {
		cfg.GuestMemoryPages = *f.GuestMemoryPages
	}
	if f.CellWidth != nil {
		cfg.CellWidth = *f.CellWidth
	}
	if f.CellHeight != nil {
		cfg.CellHeight = *f.CellHeight
	}
	if f.FontPath != "" {
		cfg.FontPath = f.FontPath
	}
	if f.LogFile != "" {
		cfg.LogFile = f.LogFile
	}
	return nil
}

func (c Config) validate() error {
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame_interval must be positive, got %s", c.FrameInterval)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be positive, got %s", c.CallTimeout)
	}
	if c.CellWidth <= 0 || c.CellHeight <= 0 {
		return fmt.Errorf("cell geometry must be positive, got %gx%g", c.CellWidth, c.CellHeight)
	}
	return nil
}
