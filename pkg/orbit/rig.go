package orbit

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// ErrUnsupportedCamera is logged when a camera kind cannot pan or zoom
var ErrUnsupportedCamera = errors.New("unsupported camera kind")

// State is the active gesture
type State int

const (
	StateNone State = iota - 1
	StateRotate
	StateDolly
	StatePan
	StateTouchRotate
	StateTouchDolly
	StateTouchPan
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateRotate:
		return "rotate"
	case StateDolly:
		return "dolly"
	case StatePan:
		return "pan"
	case StateTouchRotate:
		return "touch-rotate"
	case StateTouchDolly:
		return "touch-dolly"
	case StateTouchPan:
		return "touch-pan"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event is sent to listeners
type Event int

const (
	EventChange Event = iota
	EventStart
	EventEnd
)

// Listener receives rig events
type Listener func(Event)

// Rig orbits a camera around a target. Input methods only queue deltas;
// Update integrates them and must be called once per frame. A Rig is not
// safe for concurrent use.
type Rig struct {
	Options

	camera Camera
	target mgl64.Vec3

	state          State
	spherical      Spherical
	sphericalDelta Spherical
	scale          float64
	panOffset      mgl64.Vec3
	zoomChanged    bool

	// auto-rotate bookkeeping
	wheelZoomed    bool
	suspendedUntil time.Time

	// gesture anchors
	rotateStart mgl64.Vec2
	panStart    mgl64.Vec2
	dollyStart  mgl64.Vec2

	viewportWidth  float64
	viewportHeight float64

	// saved for Reset
	target0   mgl64.Vec3
	position0 mgl64.Vec3
	zoom0     float64

	// change detection
	lastPosition    mgl64.Vec3
	lastOrientation mgl64.Quat

	listeners []Listener
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes a Rig
type Option func(*Rig)

// WithLogger sets the logger used for warnings
func WithLogger(logger *zap.Logger) Option {
	return func(r *Rig) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces time.Now for the auto-rotate delay
func WithClock(now func() time.Time) Option {
	return func(r *Rig) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRig creates a rig for camera looking at target and saves the pose for
// Reset
func NewRig(camera Camera, target mgl64.Vec3, options Options, opts ...Option) *Rig {
	r := &Rig{
		Options:         options,
		camera:          camera,
		target:          target,
		state:           StateNone,
		scale:           1,
		viewportWidth:   1,
		viewportHeight:  1,
		lastOrientation: mgl64.QuatIdent(),
		logger:          zap.NewNop(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.SaveState()
	r.spherical = SphericalFromVector(r.upFrame().Rotate(camera.Base().Position.Sub(target)))
	return r
}

// Camera returns the steered camera
func (r *Rig) Camera() Camera {
	return r.camera
}

// Target returns the point the camera orbits
func (r *Rig) Target() mgl64.Vec3 {
	return r.target
}

// SetTarget moves the orbit center without moving the camera
func (r *Rig) SetTarget(target mgl64.Vec3) {
	r.target = target
}

// State returns the active gesture
func (r *Rig) State() State {
	return r.state
}

// Spherical returns the camera offset from the last Update
func (r *Rig) Spherical() Spherical {
	return r.spherical
}

// SphericalDelta returns the rotation still to be applied
func (r *Rig) SphericalDelta() Spherical {
	return r.sphericalDelta
}

// PolarAngle returns the current polar angle
func (r *Rig) PolarAngle() float64 {
	return r.spherical.Phi
}

// AzimuthalAngle returns the current azimuth
func (r *Rig) AzimuthalAngle() float64 {
	return r.spherical.Theta
}

// Zoom returns the zoom of an orthographic camera and 1 otherwise
func (r *Rig) Zoom() float64 {
	if ortho, ok := r.camera.(*OrthographicCamera); ok {
		return ortho.Zoom
	}
	return 1
}

// AddListener registers fn for change, start and end events
func (r *Rig) AddListener(fn Listener) {
	r.listeners = append(r.listeners, fn)
}

func (r *Rig) dispatch(event Event) {
	for _, fn := range r.listeners {
		fn(event)
	}
}

// SaveState records the current target, position and zoom for Reset
func (r *Rig) SaveState() {
	r.target0 = r.target
	r.position0 = r.camera.Base().Position
	r.zoom0 = r.Zoom()
}

// Reset restores the saved pose
func (r *Rig) Reset() {
	r.target = r.target0
	r.camera.Base().Position = r.position0
	if ortho, ok := r.camera.(*OrthographicCamera); ok {
		ortho.Zoom = r.zoom0
	}

	r.dispatch(EventChange)
	r.Update()
	r.state = StateNone
}

// upFrame rotates the camera's up axis onto +Y
func (r *Rig) upFrame() mgl64.Quat {
	yUp := mgl64.Vec3{0, 1, 0}
	up := r.camera.Base().Up.Normalize()
	if up.ApproxEqual(yUp) {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatBetweenVectors(up, yUp)
}

// autoRotationAngle is the per frame azimuth step
func (r *Rig) autoRotationAngle() float64 {
	return 2 * math.Pi / 60 / 60 * r.AutoRotateSpeed
}

func (r *Rig) zoomScale() float64 {
	return math.Pow(0.95, r.ZoomSpeed)
}

func (r *Rig) rotateLeft(angle float64) {
	r.sphericalDelta.Theta -= angle
}

func (r *Rig) rotateUp(angle float64) {
	r.sphericalDelta.Phi -= angle
}

// Update integrates pending input into the camera pose and reports whether
// the camera moved
func (r *Rig) Update() bool {
	object := r.camera.Base()
	quat := r.upFrame()
	quatInverse := quat.Inverse()

	offset := quat.Rotate(object.Position.Sub(r.target))
	r.spherical = SphericalFromVector(offset)

	now := r.now()
	interacting := r.state != StateNone || r.wheelZoomed
	if r.AutoRotate && !interacting && !now.Before(r.suspendedUntil) {
		r.rotateLeft(r.autoRotationAngle())
	} else if r.AutoRotate && interacting && r.AutoRotateDelay > 0 {
		r.suspendedUntil = now.Add(r.AutoRotateDelay)
	}
	// a wheel zoom only counts as interaction for the frame that follows it
	r.wheelZoomed = false

	r.spherical.Theta += r.sphericalDelta.Theta
	r.spherical.Phi += r.sphericalDelta.Phi

	r.spherical.Theta = math.Max(r.MinAzimuthAngle, math.Min(r.MaxAzimuthAngle, r.spherical.Theta))
	r.spherical.Phi = math.Max(r.MinPolarAngle, math.Min(r.MaxPolarAngle, r.spherical.Phi))
	r.spherical = r.spherical.MakeSafe()

	r.spherical.Radius *= r.scale
	r.spherical.Radius = math.Max(r.MinDistance, math.Min(r.MaxDistance, r.spherical.Radius))

	r.target = r.target.Add(r.panOffset)

	offset = quatInverse.Rotate(r.spherical.Vector())
	object.Position = r.target.Add(offset)
	object.LookAt(r.target)

	if r.EnableDamping {
		r.sphericalDelta.Theta *= 1 - r.DampingFactor
		r.sphericalDelta.Phi *= 1 - r.DampingFactor
	} else {
		r.sphericalDelta = Spherical{}
	}

	r.scale = 1
	r.panOffset = mgl64.Vec3{}

	moved := object.Position.Sub(r.lastPosition)
	if r.zoomChanged ||
		moved.Dot(moved) > Epsilon ||
		8*(1-r.lastOrientation.Dot(object.Orientation)) > Epsilon {
		r.dispatch(EventChange)

		r.lastPosition = object.Position
		r.lastOrientation = object.Orientation
		r.zoomChanged = false
		return true
	}

	return false
}
