package viewer

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/philipparndt/stlwebviewer/pkg/geometry"
	"github.com/philipparndt/stlwebviewer/pkg/orbit"
)

// CameraConfig describes the perspective camera of a session
type CameraConfig struct {
	FOV  float64 `yaml:"fov" toml:"fov"`
	Near float64 `yaml:"near" toml:"near"`
	Far  float64 `yaml:"far" toml:"far"`
}

// DefaultCamera returns a 40° camera with a far plane for large parts
func DefaultCamera() CameraConfig {
	return CameraConfig{
		FOV:  40,
		Near: 1,
		Far:  15000,
	}
}

// DefaultControls returns slow, damped orbiting that starts turning on its
// own after five idle seconds
func DefaultControls() orbit.Options {
	options := orbit.DefaultOptions()
	options.EnableDamping = true
	options.DampingFactor = 0.125
	options.EnableKeys = false
	options.RotateSpeed = 0.15
	options.EnableZoom = true
	options.AutoRotate = true
	options.AutoRotateSpeed = 0.25
	options.AutoRotateDelay = 5 * time.Second
	return options
}

// initialPosition is where the camera waits until a model is loaded
var initialPosition = mgl64.Vec3{50, 50, 50}

// NewCamera creates the session camera
func NewCamera(cfg CameraConfig) *orbit.PerspectiveCamera {
	camera := orbit.NewPerspectiveCamera(cfg.FOV, cfg.Near, cfg.Far)
	camera.Position = initialPosition
	return camera
}

// FitCamera aims the rig at the center of sphere and backs the camera off
// diagonally so the whole model is in view
func FitCamera(rig *orbit.Rig, sphere geometry.BoundingSphere) {
	r := sphere.Radius
	if r <= 0 {
		r = 1
	}

	center := toVec(sphere.Center)
	rig.SetTarget(center)
	rig.MaxDistance = r * 10

	camera := rig.Camera().Base()
	camera.Position = center.Add(mgl64.Vec3{r * 1.5, r * 1.5, r * 1.5})
	camera.LookAt(center)
	rig.SaveState()
}

func toVec(v geometry.Vector3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
