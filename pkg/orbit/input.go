package orbit

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Point is a pointer or touch position in viewport pixels
type Point struct {
	X, Y float64
}

func (p Point) vec() mgl64.Vec2 {
	return mgl64.Vec2{p.X, p.Y}
}

// SetViewport sets the size of the input surface in pixels
func (r *Rig) SetViewport(width, height float64) {
	if width > 0 {
		r.viewportWidth = width
	}
	if height > 0 {
		r.viewportHeight = height
	}
}

// PointerDown starts the gesture mapped to button
func (r *Rig) PointerDown(button MouseButton, at Point) {
	if !r.Enabled {
		return
	}

	switch button {
	case r.MouseButtons.Orbit:
		if !r.EnableRotate {
			return
		}
		r.rotateStart = at.vec()
		r.state = StateRotate
	case r.MouseButtons.Zoom:
		if !r.EnableZoom {
			return
		}
		r.dollyStart = at.vec()
		r.state = StateDolly
	case r.MouseButtons.Pan:
		if !r.EnablePan {
			return
		}
		r.panStart = at.vec()
		r.state = StatePan
	}

	if r.state != StateNone {
		r.dispatch(EventStart)
	}
}

// PointerMove advances the active mouse gesture
func (r *Rig) PointerMove(at Point) {
	if !r.Enabled {
		return
	}

	switch r.state {
	case StateRotate:
		if r.EnableRotate {
			r.moveRotate(at.vec())
		}
	case StateDolly:
		if r.EnableZoom {
			r.moveDolly(at.vec())
		}
	case StatePan:
		if r.EnablePan {
			r.movePan(at.vec())
		}
	}
}

// PointerUp ends the gesture. It also handles the pointer leaving the surface.
func (r *Rig) PointerUp() {
	if !r.Enabled {
		return
	}
	r.dispatch(EventEnd)
	r.state = StateNone
}

// Wheel dollies by one zoom step in the direction of deltaY. It is rejected
// while a gesture other than rotate is active.
func (r *Rig) Wheel(deltaY float64) bool {
	if !r.Enabled || !r.EnableZoom || (r.state != StateNone && r.state != StateRotate) {
		return false
	}

	if deltaY < 0 {
		r.dollyOut(r.zoomScale())
	} else if deltaY > 0 {
		r.dollyIn(r.zoomScale())
	}

	r.dispatch(EventStart)
	r.dispatch(EventEnd)
	r.wheelZoomed = true
	return true
}

// KeyDown pans with the arrow keys
func (r *Rig) KeyDown(key Key) {
	if !r.Enabled || !r.EnableKeys || !r.EnablePan {
		return
	}

	switch key {
	case KeyUp:
		r.pan(0, r.KeyPanSpeed)
	case KeyDown:
		r.pan(0, -r.KeyPanSpeed)
	case KeyLeft:
		r.pan(r.KeyPanSpeed, 0)
	case KeyRight:
		r.pan(-r.KeyPanSpeed, 0)
	}
}

// TouchStart picks the gesture from the number of fingers: one rotates, two
// dolly and three pan
func (r *Rig) TouchStart(touches []Point) {
	if !r.Enabled {
		return
	}

	switch len(touches) {
	case 1:
		if !r.EnableRotate {
			return
		}
		r.rotateStart = touches[0].vec()
		r.state = StateTouchRotate
	case 2:
		if !r.EnableZoom {
			return
		}
		r.dollyStart = mgl64.Vec2{0, fingerDistance(touches)}
		r.state = StateTouchDolly
	case 3:
		if !r.EnablePan {
			return
		}
		r.panStart = touches[0].vec()
		r.state = StateTouchPan
	default:
		r.state = StateNone
	}

	if r.state != StateNone {
		r.dispatch(EventStart)
	}
}

// TouchMove advances the touch gesture. Moves with a finger count that does
// not match the active gesture are ignored.
func (r *Rig) TouchMove(touches []Point) {
	if !r.Enabled {
		return
	}

	switch len(touches) {
	case 1:
		if !r.EnableRotate || r.state != StateTouchRotate {
			return
		}
		r.moveRotate(touches[0].vec())
	case 2:
		if !r.EnableZoom || r.state != StateTouchDolly {
			return
		}
		distance := fingerDistance(touches)
		delta := distance - r.dollyStart.Y()
		if delta > 0 {
			r.dollyOut(r.zoomScale())
		} else if delta < 0 {
			r.dollyIn(r.zoomScale())
		}
		r.dollyStart = mgl64.Vec2{0, distance}
	case 3:
		if !r.EnablePan || r.state != StateTouchPan {
			return
		}
		r.movePan(touches[0].vec())
	default:
		r.state = StateNone
	}
}

// TouchEnd ends the touch gesture
func (r *Rig) TouchEnd() {
	if !r.Enabled {
		return
	}
	r.dispatch(EventEnd)
	r.state = StateNone
}

func fingerDistance(touches []Point) float64 {
	dx := touches[0].X - touches[1].X
	dy := touches[0].Y - touches[1].Y
	return math.Sqrt(dx*dx + dy*dy)
}

// moveRotate maps a full viewport width of drag to a full turn of azimuth
func (r *Rig) moveRotate(end mgl64.Vec2) {
	delta := end.Sub(r.rotateStart)
	r.rotateLeft(2 * math.Pi * delta.X() / r.viewportWidth * r.RotateSpeed)
	r.rotateUp(2 * math.Pi * delta.Y() / r.viewportHeight * r.RotateSpeed)
	r.rotateStart = end
}

func (r *Rig) moveDolly(end mgl64.Vec2) {
	delta := end.Sub(r.dollyStart)
	if delta.Y() > 0 {
		r.dollyIn(r.zoomScale())
	} else if delta.Y() < 0 {
		r.dollyOut(r.zoomScale())
	}
	r.dollyStart = end
}

func (r *Rig) movePan(end mgl64.Vec2) {
	delta := end.Sub(r.panStart)
	r.pan(delta.X(), delta.Y())
	r.panStart = end
}

// pan moves the target by a pixel delta; right and down are positive
func (r *Rig) pan(deltaX, deltaY float64) {
	object := r.camera.Base()

	switch cam := r.camera.(type) {
	case *PerspectiveCamera:
		// half of the fov spans center to top of the viewport
		targetDistance := object.Position.Sub(r.target).Len()
		targetDistance *= math.Tan(mgl64.DegToRad(cam.FOV / 2))

		r.panLeft(2*deltaX*targetDistance/r.viewportHeight, object)
		r.panUp(2*deltaY*targetDistance/r.viewportHeight, object)
	case *OrthographicCamera:
		r.panLeft(deltaX*(cam.Right-cam.Left)/cam.Zoom/r.viewportWidth, object)
		r.panUp(deltaY*(cam.Top-cam.Bottom)/cam.Zoom/r.viewportHeight, object)
	default:
		r.unsupported("pan")
		r.EnablePan = false
	}
}

func (r *Rig) panLeft(distance float64, object *Object) {
	r.panOffset = r.panOffset.Add(object.XAxis().Mul(-distance))
}

func (r *Rig) panUp(distance float64, object *Object) {
	r.panOffset = r.panOffset.Add(object.YAxis().Mul(distance))
}

func (r *Rig) dollyIn(dollyScale float64) {
	switch cam := r.camera.(type) {
	case *PerspectiveCamera:
		r.scale /= dollyScale
	case *OrthographicCamera:
		cam.Zoom = math.Max(r.MinZoom, math.Min(r.MaxZoom, cam.Zoom*dollyScale))
		r.zoomChanged = true
	default:
		r.unsupported("zoom")
		r.EnableZoom = false
	}
}

func (r *Rig) dollyOut(dollyScale float64) {
	switch cam := r.camera.(type) {
	case *PerspectiveCamera:
		r.scale *= dollyScale
	case *OrthographicCamera:
		cam.Zoom = math.Max(r.MinZoom, math.Min(r.MaxZoom, cam.Zoom/dollyScale))
		r.zoomChanged = true
	default:
		r.unsupported("zoom")
		r.EnableZoom = false
	}
}

func (r *Rig) unsupported(feature string) {
	r.logger.Warn("Unknown camera type, feature disabled",
		zap.String("camera", fmt.Sprintf("%T", r.camera)),
		zap.String("feature", feature),
		zap.Error(ErrUnsupportedCamera))
}
