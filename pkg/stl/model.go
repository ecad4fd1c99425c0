package stl

import (
	"github.com/philipparndt/stlwebviewer/pkg/geometry"
)

// Format identifies which STL encoding a mesh was decoded from
type Format int

const (
	FormatBinary Format = iota
	FormatASCII
)

// String returns the conventional name of the encoding
func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatASCII:
		return "ascii"
	default:
		return "unknown"
	}
}

// Color is a linear RGB triple with components in [0, 1]
type Color struct {
	R, G, B float64
}

// Mesh is non-indexed triangle soup: every three consecutive vertices form one
// facet, and each facet's normal (and color, if any) is repeated for its three
// vertices. A decoded mesh is never modified.
type Mesh struct {
	Name      string
	Format    Format
	Vertices  []geometry.Vector3
	Normals   []geometry.Vector3
	Colors    []Color
	HasColors bool
	// Alpha is the file level default opacity, only meaningful with HasColors
	Alpha float64
}

// TriangleCount returns the number of triangles in the mesh
func (m *Mesh) TriangleCount() int {
	return len(m.Vertices) / 3
}

// Triangle returns the i-th facet with the normal stored in the file
func (m *Mesh) Triangle(i int) geometry.Triangle {
	base := i * 3
	return geometry.NewTriangle(
		m.Normals[base],
		m.Vertices[base],
		m.Vertices[base+1],
		m.Vertices[base+2],
	)
}

// FacetColor returns the color shared by the three vertices of facet i
func (m *Mesh) FacetColor(i int) (Color, bool) {
	if !m.HasColors {
		return Color{}, false
	}
	return m.Colors[i*3], true
}

// Triangles materializes all facets
func (m *Mesh) Triangles() []geometry.Triangle {
	triangles := make([]geometry.Triangle, 0, m.TriangleCount())
	for i := 0; i < m.TriangleCount(); i++ {
		triangles = append(triangles, m.Triangle(i))
	}
	return triangles
}

// addFacet appends one facet, replicating normal and color for each corner
func (m *Mesh) addFacet(normal geometry.Vector3, corners [3]geometry.Vector3, color *Color) {
	for _, v := range corners {
		m.Vertices = append(m.Vertices, v)
		m.Normals = append(m.Normals, normal)
		if color != nil {
			m.Colors = append(m.Colors, *color)
		}
	}
}
