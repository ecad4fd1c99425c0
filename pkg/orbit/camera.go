package orbit

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Object is the placement shared by every camera kind
type Object struct {
	Position    mgl64.Vec3
	Up          mgl64.Vec3
	Orientation mgl64.Quat
}

// NewObject returns an object at position with +Y as up axis
func NewObject(position mgl64.Vec3) Object {
	return Object{
		Position:    position,
		Up:          mgl64.Vec3{0, 1, 0},
		Orientation: mgl64.QuatIdent(),
	}
}

// LookAt orients the object so its local -Z axis points at target
func (o *Object) LookAt(target mgl64.Vec3) {
	up := o.Up
	z := o.Position.Sub(target)
	if z.Dot(z) == 0 {
		z = mgl64.Vec3{0, 0, 1}
	}
	z = z.Normalize()

	x := up.Cross(z)
	if x.Dot(x) == 0 {
		// up and view direction are parallel
		if math.Abs(up.Z()) == 1 {
			z[0] += 0.0001
		} else {
			z[2] += 0.0001
		}
		z = z.Normalize()
		x = up.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)

	rotation := mgl64.Mat4FromCols(x.Vec4(0), y.Vec4(0), z.Vec4(0), mgl64.Vec4{0, 0, 0, 1})
	o.Orientation = mgl64.Mat4ToQuat(rotation).Normalize()
}

// XAxis returns the local X axis in world space
func (o *Object) XAxis() mgl64.Vec3 {
	return o.Orientation.Rotate(mgl64.Vec3{1, 0, 0})
}

// YAxis returns the local Y axis in world space
func (o *Object) YAxis() mgl64.Vec3 {
	return o.Orientation.Rotate(mgl64.Vec3{0, 1, 0})
}

// Camera is anything the rig can steer. The rig understands
// *PerspectiveCamera and *OrthographicCamera; other kinds can be orbited but
// not panned or zoomed.
type Camera interface {
	Base() *Object
}

// PerspectiveCamera dollies by moving closer to the target
type PerspectiveCamera struct {
	Object
	// FOV is the vertical field of view in degrees
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64
}

// NewPerspectiveCamera creates a perspective camera at the origin
func NewPerspectiveCamera(fov, near, far float64) *PerspectiveCamera {
	return &PerspectiveCamera{
		Object: NewObject(mgl64.Vec3{}),
		FOV:    fov,
		Aspect: 1,
		Near:   near,
		Far:    far,
	}
}

func (c *PerspectiveCamera) Base() *Object {
	return &c.Object
}

// OrthographicCamera zooms by scaling its frustum
type OrthographicCamera struct {
	Object
	Left, Right, Top, Bottom float64
	Near, Far                float64
	Zoom                     float64
}

// NewOrthographicCamera creates an orthographic camera at the origin
func NewOrthographicCamera(left, right, top, bottom, near, far float64) *OrthographicCamera {
	return &OrthographicCamera{
		Object: NewObject(mgl64.Vec3{}),
		Left:   left,
		Right:  right,
		Top:    top,
		Bottom: bottom,
		Near:   near,
		Far:    far,
		Zoom:   1,
	}
}

func (c *OrthographicCamera) Base() *Object {
	return &c.Object
}
