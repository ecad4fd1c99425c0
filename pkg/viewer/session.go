package viewer

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/philipparndt/stlwebviewer/pkg/analysis"
	"github.com/philipparndt/stlwebviewer/pkg/geometry"
	"github.com/philipparndt/stlwebviewer/pkg/orbit"
	"github.com/philipparndt/stlwebviewer/pkg/stl"
)

// Callbacks receive the outcome of a load. Any of them may be nil.
type Callbacks struct {
	OnProgress func(Progress)
	OnLoad     func(*stl.Mesh, analysis.Metrics)
	OnError    func(error)
}

// Pose is the camera state a client needs to draw a frame
type Pose struct {
	Position   [3]float64 `json:"position"`
	Target     [3]float64 `json:"target"`
	Quaternion [4]float64 `json:"quaternion"`
	Zoom       float64    `json:"zoom"`
	FOV        float64    `json:"fov"`
}

// Session is one embedded viewer: a camera, its rig and the loaded model.
// A Session is not safe for concurrent use.
type Session struct {
	ID     int
	Source string

	showBoundingBox bool

	camera    *orbit.PerspectiveCamera
	rig       *orbit.Rig
	loader    *Loader
	callbacks Callbacks
	logger    *zap.Logger
	onClose   func()

	mesh   *stl.Mesh
	report *analysis.MeasurementResult
}

func newSession(id int, source string, cfg Config, loader *Loader, callbacks Callbacks, logger *zap.Logger) *Session {
	logger = logger.With(zap.Int("session", id))
	camera := NewCamera(cfg.Camera)
	rig := orbit.NewRig(camera, mgl64.Vec3{}, cfg.Controls, orbit.WithLogger(logger))

	return &Session{
		ID:              id,
		Source:          source,
		showBoundingBox: cfg.ShowBoundingBox,
		camera:          camera,
		rig:             rig,
		loader:          loader,
		callbacks:       callbacks,
		logger:          logger,
	}
}

// Load fetches, decodes and measures the model, then fits the camera to it.
// Errors are passed to OnError and returned.
func (s *Session) Load(ctx context.Context) error {
	return s.load(ctx, true)
}

// Reload replaces the model but keeps the current camera pose
func (s *Session) Reload(ctx context.Context) error {
	return s.load(ctx, s.mesh == nil)
}

func (s *Session) load(ctx context.Context, fit bool) error {
	s.logger.Info("Loading model", zap.String("source", s.Source))

	data, err := s.loader.Load(ctx, s.Source, s.callbacks.OnProgress)
	if err != nil {
		return s.fail(err)
	}

	mesh, err := stl.Decode(data)
	if err != nil {
		return s.fail(fmt.Errorf("failed to decode %s: %w", s.Source, err))
	}

	report := analysis.AnalyzeModel(mesh, int64(len(data)))
	s.mesh = mesh
	s.report = report

	if fit {
		FitCamera(s.rig, report.BoundingSphere)
	}

	s.logger.Info("Model loaded",
		zap.String("format", mesh.Format.String()),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Float64("volume", report.Volume))

	if s.callbacks.OnLoad != nil {
		s.callbacks.OnLoad(mesh, report.Metrics)
	}
	return nil
}

func (s *Session) fail(err error) error {
	s.logger.Error("Failed to load model", zap.String("source", s.Source), zap.Error(err))
	if s.callbacks.OnError != nil {
		s.callbacks.OnError(err)
	}
	return err
}

// Frame advances the rig by one frame and reports whether the pose changed
func (s *Session) Frame() bool {
	return s.rig.Update()
}

// SetViewport sets the canvas size in pixels
func (s *Session) SetViewport(width, height float64) {
	s.rig.SetViewport(width, height)
	if width > 0 && height > 0 {
		s.camera.Aspect = width / height
	}
}

// Rig returns the camera rig for input dispatch
func (s *Session) Rig() *orbit.Rig {
	return s.rig
}

// Camera returns the session camera
func (s *Session) Camera() *orbit.PerspectiveCamera {
	return s.camera
}

// Mesh returns the loaded model or nil
func (s *Session) Mesh() *stl.Mesh {
	return s.mesh
}

// Report returns all measurements of the loaded model or nil
func (s *Session) Report() *analysis.MeasurementResult {
	return s.report
}

// Metrics returns the measurements of the loaded model
func (s *Session) Metrics() (analysis.Metrics, bool) {
	if s.report == nil {
		return analysis.Metrics{}, false
	}
	return s.report.Metrics, true
}

// BoundingBox returns the box to outline around the model, if enabled
func (s *Session) BoundingBox() (geometry.BoundingBox, bool) {
	if !s.showBoundingBox || s.report == nil {
		return geometry.BoundingBox{}, false
	}
	return s.report.BoundingBox, true
}

// Pose returns the current camera pose
func (s *Session) Pose() Pose {
	position := s.camera.Position
	target := s.rig.Target()
	q := s.camera.Orientation

	return Pose{
		Position:   [3]float64{position.X(), position.Y(), position.Z()},
		Target:     [3]float64{target.X(), target.Y(), target.Z()},
		Quaternion: [4]float64{q.V[0], q.V[1], q.V[2], q.W},
		Zoom:       s.rig.Zoom(),
		FOV:        s.camera.FOV,
	}
}

// Close releases the session from its host
func (s *Session) Close() {
	if s.onClose != nil {
		s.onClose()
		s.onClose = nil
	}
}
