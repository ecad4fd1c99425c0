package orbit

import (
	"math"
	"time"
)

// MouseButton is a DOM mouse button index
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseMiddle
	MouseRight
)

// MouseButtons assigns a button to each drag gesture
type MouseButtons struct {
	Orbit MouseButton `yaml:"orbit" toml:"orbit"`
	Zoom  MouseButton `yaml:"zoom" toml:"zoom"`
	Pan   MouseButton `yaml:"pan" toml:"pan"`
}

// Key is a DOM key code
type Key int

// Arrow keys
const (
	KeyLeft  Key = 37
	KeyUp    Key = 38
	KeyRight Key = 39
	KeyDown  Key = 40
)

// Options configures a Rig. Angles are in radians.
type Options struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Perspective cameras only
	MinDistance float64 `yaml:"min_distance" toml:"min_distance"`
	MaxDistance float64 `yaml:"max_distance" toml:"max_distance"`

	// Orthographic cameras only
	MinZoom float64 `yaml:"min_zoom" toml:"min_zoom"`
	MaxZoom float64 `yaml:"max_zoom" toml:"max_zoom"`

	MinPolarAngle   float64 `yaml:"min_polar_angle" toml:"min_polar_angle"`
	MaxPolarAngle   float64 `yaml:"max_polar_angle" toml:"max_polar_angle"`
	MinAzimuthAngle float64 `yaml:"min_azimuth_angle" toml:"min_azimuth_angle"`
	MaxAzimuthAngle float64 `yaml:"max_azimuth_angle" toml:"max_azimuth_angle"`

	EnableDamping bool    `yaml:"enable_damping" toml:"enable_damping"`
	DampingFactor float64 `yaml:"damping_factor" toml:"damping_factor"`

	EnableZoom bool    `yaml:"enable_zoom" toml:"enable_zoom"`
	ZoomSpeed  float64 `yaml:"zoom_speed" toml:"zoom_speed"`

	EnableRotate bool    `yaml:"enable_rotate" toml:"enable_rotate"`
	RotateSpeed  float64 `yaml:"rotate_speed" toml:"rotate_speed"`

	EnablePan   bool    `yaml:"enable_pan" toml:"enable_pan"`
	KeyPanSpeed float64 `yaml:"key_pan_speed" toml:"key_pan_speed"`

	AutoRotate      bool          `yaml:"auto_rotate" toml:"auto_rotate"`
	AutoRotateSpeed float64       `yaml:"auto_rotate_speed" toml:"auto_rotate_speed"`
	AutoRotateDelay time.Duration `yaml:"auto_rotate_delay" toml:"auto_rotate_delay"`

	EnableKeys   bool         `yaml:"enable_keys" toml:"enable_keys"`
	MouseButtons MouseButtons `yaml:"mouse_buttons" toml:"mouse_buttons"`
}

// DefaultOptions returns an unbounded rig without damping or auto-rotation.
// AutoRotateSpeed 2 is one turn every 30 seconds at 60 frames per second.
func DefaultOptions() Options {
	return Options{
		Enabled:         true,
		MinDistance:     0,
		MaxDistance:     math.Inf(1),
		MinZoom:         0,
		MaxZoom:         math.Inf(1),
		MinPolarAngle:   0,
		MaxPolarAngle:   math.Pi,
		MinAzimuthAngle: math.Inf(-1),
		MaxAzimuthAngle: math.Inf(1),
		DampingFactor:   0.25,
		EnableZoom:      true,
		ZoomSpeed:       1,
		EnableRotate:    true,
		RotateSpeed:     1,
		EnablePan:       true,
		KeyPanSpeed:     7,
		AutoRotateSpeed: 2,
		EnableKeys:      true,
		MouseButtons: MouseButtons{
			Orbit: MouseLeft,
			Zoom:  MouseMiddle,
			Pan:   MouseRight,
		},
	}
}
