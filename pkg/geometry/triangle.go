package geometry

// Triangle represents a triangular facet in 3D space
type Triangle struct {
	Normal     Vector3
	V1, V2, V3 Vector3
}

// NewTriangle creates a new triangle
func NewTriangle(normal, v1, v2, v3 Vector3) Triangle {
	return Triangle{
		Normal: normal,
		V1:     v1,
		V2:     v2,
		V3:     v3,
	}
}

// CalculateNormal computes the normal vector for the triangle from its winding
func (t Triangle) CalculateNormal() Vector3 {
	edge1 := t.V2.Sub(t.V1)
	edge2 := t.V3.Sub(t.V1)
	return edge1.Cross(edge2).Normalize()
}

// Area returns the surface area of the triangle
func (t Triangle) Area() float64 {
	edge1 := t.V2.Sub(t.V1)
	edge2 := t.V3.Sub(t.V1)
	cross := edge1.Cross(edge2)
	return cross.Length() / 2.0
}

// SignedVolume returns the signed volume of the tetrahedron spanned by the
// triangle and the origin. The sign follows the winding: counter-clockwise
// seen from outside a closed solid is positive.
func (t Triangle) SignedVolume() float64 {
	p, q, r := t.V1, t.V2, t.V3

	v321 := r.X * q.Y * p.Z
	v231 := q.X * r.Y * p.Z
	v312 := r.X * p.Y * q.Z
	v132 := p.X * r.Y * q.Z
	v213 := q.X * p.Y * r.Z
	v123 := p.X * q.Y * r.Z

	return (-v321 + v231 + v312 - v132 - v213 + v123) / 6.0
}

// Reversed returns the triangle with the opposite winding
func (t Triangle) Reversed() Triangle {
	return Triangle{Normal: t.Normal.Mul(-1), V1: t.V1, V2: t.V3, V3: t.V2}
}

// Center returns the centroid of the triangle
func (t Triangle) Center() Vector3 {
	return Vector3{
		X: (t.V1.X + t.V2.X + t.V3.X) / 3.0,
		Y: (t.V1.Y + t.V2.Y + t.V3.Y) / 3.0,
		Z: (t.V1.Z + t.V2.Z + t.V3.Z) / 3.0,
	}
}
