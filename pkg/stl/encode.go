package stl

import (
	"bytes"
	"fmt"
	"io"
	"math"

	hstl "github.com/hschendel/stl"

	"github.com/philipparndt/stlwebviewer/pkg/geometry"
)

const (
	// defaultColorFlag marks a facet that uses the color declared in the header
	defaultColorFlag = 0x8000
	// headerColorOffset is where Encode places the COLOR= declaration
	headerColorOffset = 60
)

// Encode writes the mesh in the requested STL encoding. Binary output keeps
// the COLOR= header and per-facet 5-5-5 colors of a colored mesh.
func Encode(w io.Writer, mesh *Mesh, format Format) error {
	solid := &hstl.Solid{
		Name:      mesh.Name,
		IsAscii:   format == FormatASCII,
		Triangles: make([]hstl.Triangle, 0, mesh.TriangleCount()),
	}

	var defaults Color
	if format == FormatBinary {
		header, base := binaryHeader(mesh)
		solid.BinaryHeader = header
		defaults = base
	}

	for i := 0; i < mesh.TriangleCount(); i++ {
		base := i * 3
		triangle := hstl.Triangle{
			Normal: toVec3(mesh.Normals[base]),
			Vertices: [3]hstl.Vec3{
				toVec3(mesh.Vertices[base]),
				toVec3(mesh.Vertices[base+1]),
				toVec3(mesh.Vertices[base+2]),
			},
		}
		if format == FormatBinary && mesh.HasColors {
			triangle.Attributes = packColor(mesh.Colors[base], defaults)
		}
		solid.Triangles = append(solid.Triangles, triangle)
	}

	if err := solid.WriteAll(w); err != nil {
		return fmt.Errorf("failed to write %s STL: %w", format, err)
	}
	return nil
}

// binaryHeader builds the 80 byte header. A colored mesh declares the color
// of its first facet as the file default.
func binaryHeader(mesh *Mesh) ([]byte, Color) {
	header := make([]byte, headerSize)
	copy(header[:headerColorOffset], encodeName(mesh.Name))

	if !mesh.HasColors || len(mesh.Colors) == 0 {
		return header, Color{}
	}

	defaults := mesh.Colors[0]
	copy(header[headerColorOffset:], colorMarker)
	header[headerColorOffset+6] = toByte(defaults.R)
	header[headerColorOffset+7] = toByte(defaults.G)
	header[headerColorOffset+8] = toByte(defaults.B)
	header[headerColorOffset+9] = toByte(mesh.Alpha)
	return header, Color{
		R: float64(header[headerColorOffset+6]) / 255,
		G: float64(header[headerColorOffset+7]) / 255,
		B: float64(header[headerColorOffset+8]) / 255,
	}
}

// encodeName defuses a COLOR= marker in the solid name, which would otherwise
// declare a color on decode
func encodeName(name string) []byte {
	return bytes.ReplaceAll([]byte(name), colorMarker, []byte("COLOR "))
}

// packColor returns the attribute word for a facet color
func packColor(c, defaults Color) uint16 {
	if c == defaults {
		return defaultColorFlag
	}
	r := uint16(math.Round(clamp01(c.R) * 31))
	g := uint16(math.Round(clamp01(c.G) * 31))
	b := uint16(math.Round(clamp01(c.B) * 31))
	return r | g<<5 | b<<10
}

func toVec3(v geometry.Vector3) hstl.Vec3 {
	f := v.Float32()
	return hstl.Vec3{f[0], f[1], f[2]}
}

func toByte(v float64) byte {
	return byte(math.Round(clamp01(v) * 255))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
