// Package config handles viewer configuration loading and management.
package config

import (
	"time"

	"github.com/philipparndt/stlwebviewer/pkg/orbit"
	"github.com/philipparndt/stlwebviewer/pkg/viewer"
	"github.com/philipparndt/stlwebviewer/pkg/watcher"
)

// Config holds all viewer settings.
type Config struct {
	Viewer   ViewerConfig  `yaml:"viewer" toml:"viewer"`
	Controls orbit.Options `yaml:"controls" toml:"controls"`
	Server   ServerConfig  `yaml:"server" toml:"server"`
	Logging  LoggingConfig `yaml:"logging" toml:"logging"`
}

// ViewerConfig holds per session settings.
type ViewerConfig struct {
	Camera          viewer.CameraConfig `yaml:"camera" toml:"camera"`
	ShowBoundingBox bool                `yaml:"show_bounding_box" toml:"show_bounding_box"`
	ReloadDebounce  time.Duration       `yaml:"reload_debounce" toml:"reload_debounce"`
	OpenSCAD        string              `yaml:"openscad" toml:"openscad"` // Path to the openscad binary
	FetchTimeout    time.Duration       `yaml:"fetch_timeout" toml:"fetch_timeout"`
	MaxModelSize    int64               `yaml:"max_model_size" toml:"max_model_size"` // Bytes
}

// ServerConfig holds the widget backend settings.
type ServerConfig struct {
	Listen         string   `yaml:"listen" toml:"listen"`
	ModelsDir      string   `yaml:"models_dir" toml:"models_dir"` // Root of all served models
	FrameRate      int      `yaml:"frame_rate" toml:"frame_rate"`
	LiveReload     bool     `yaml:"live_reload" toml:"live_reload"`
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with the embedding page defaults.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			Camera:         viewer.DefaultCamera(),
			ReloadDebounce: watcher.DefaultDebounce,
			OpenSCAD:       "",
			FetchTimeout:   30 * time.Second,
			MaxModelSize:   viewer.DefaultMaxSize,
		},
		Controls: viewer.DefaultControls(),
		Server: ServerConfig{
			Listen:     ":8080",
			ModelsDir:  ".",
			FrameRate:  60,
			LiveReload: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Session returns the settings new viewer sessions start with.
func (c *Config) Session() viewer.Config {
	return viewer.Config{
		Camera:          c.Viewer.Camera,
		Controls:        c.Controls,
		ShowBoundingBox: c.Viewer.ShowBoundingBox,
	}
}

// FrameInterval returns the time between two rig updates.
func (c *Config) FrameInterval() time.Duration {
	if c.Server.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.Server.FrameRate)
}
