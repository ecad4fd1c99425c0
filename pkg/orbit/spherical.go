package orbit

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon keeps the polar angle off the poles and is the change threshold of
// Update
const Epsilon = 1e-6

// Spherical coordinates in a Y-up frame. Phi is the polar angle from +Y and
// Theta the azimuth around Y measured from +Z.
type Spherical struct {
	Radius float64
	Phi    float64
	Theta  float64
}

// SphericalFromVector converts a Cartesian offset
func SphericalFromVector(v mgl64.Vec3) Spherical {
	radius := v.Len()
	if radius == 0 {
		return Spherical{}
	}
	return Spherical{
		Radius: radius,
		Theta:  math.Atan2(v.X(), v.Z()),
		Phi:    math.Acos(mgl64.Clamp(v.Y()/radius, -1, 1)),
	}
}

// Vector converts back to a Cartesian offset
func (s Spherical) Vector() mgl64.Vec3 {
	sinPhiRadius := math.Sin(s.Phi) * s.Radius
	return mgl64.Vec3{
		sinPhiRadius * math.Sin(s.Theta),
		math.Cos(s.Phi) * s.Radius,
		sinPhiRadius * math.Cos(s.Theta),
	}
}

// MakeSafe clamps Phi into [Epsilon, π-Epsilon]
func (s Spherical) MakeSafe() Spherical {
	s.Phi = math.Max(Epsilon, math.Min(math.Pi-Epsilon, s.Phi))
	return s
}
