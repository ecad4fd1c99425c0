package stl

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/philipparndt/stlwebviewer/pkg/geometry"
)

// colorMarker is "COLOR=" in the header of binary files written by
// Materialise Magics and compatible tools.
var colorMarker = []byte("COLOR=")

// colorScanLimit keeps the marker and its four RGBA bytes inside the header
const colorScanLimit = headerSize - 10

// headerColor holds the file level color declared in the header
type headerColor struct {
	color  Color
	alpha  float64
	offset int
}

// findHeaderColor scans the header for the last COLOR= declaration
func findHeaderColor(header []byte) (headerColor, bool) {
	var found headerColor
	ok := false
	for index := 0; index < colorScanLimit; index++ {
		if !bytes.Equal(header[index:index+len(colorMarker)], colorMarker) {
			continue
		}
		found = headerColor{
			color: Color{
				R: float64(header[index+6]) / 255,
				G: float64(header[index+7]) / 255,
				B: float64(header[index+8]) / 255,
			},
			alpha:  float64(header[index+9]) / 255,
			offset: index,
		}
		ok = true
	}
	return found, ok
}

// unpackColor resolves a facet attribute word. With the top bit clear the
// facet carries its own 5-5-5 color, otherwise the file default applies.
func unpackColor(packed uint16, fallback Color) Color {
	if packed&0x8000 != 0 {
		return fallback
	}
	return Color{
		R: float64(packed&0x1F) / 31,
		G: float64((packed>>5)&0x1F) / 31,
		B: float64((packed>>10)&0x1F) / 31,
	}
}

func decodeBinary(data []byte) (*Mesh, error) {
	header := data[:headerSize]
	faces := int64(binary.LittleEndian.Uint32(data[headerSize:dataOffset]))

	need := dataOffset + faces*facetSize
	if need > int64(len(data)) {
		return nil, malformed(FormatBinary, ErrTruncated,
			"header declares %d facets (%d bytes), buffer holds %d bytes", faces, need, len(data))
	}

	mesh := &Mesh{
		Format:   FormatBinary,
		Vertices: make([]geometry.Vector3, 0, faces*3),
		Normals:  make([]geometry.Vector3, 0, faces*3),
	}

	defaults, hasColors := findHeaderColor(header)
	mesh.Name = headerName(header, defaults, hasColors)
	if hasColors {
		mesh.HasColors = true
		mesh.Alpha = defaults.alpha
		mesh.Colors = make([]Color, 0, faces*3)
	}

	for face := int64(0); face < faces; face++ {
		record := data[dataOffset+face*facetSize : dataOffset+(face+1)*facetSize]

		normal := readVector(record[0:12])

		var color *Color
		if hasColors {
			c := unpackColor(binary.LittleEndian.Uint16(record[attributeStart:]), defaults.color)
			color = &c
		}

		var corners [3]geometry.Vector3
		for i := 0; i < 3; i++ {
			start := (i + 1) * 12
			corners[i] = readVector(record[start : start+12])
		}

		mesh.addFacet(normal, corners, color)
	}

	return mesh, nil
}

// readVector reads three little-endian float32 values
func readVector(b []byte) geometry.Vector3 {
	return geometry.FromFloat32([3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
	})
}

// headerName extracts the free text in front of any color declaration
func headerName(header []byte, color headerColor, hasColor bool) string {
	text := header
	if hasColor {
		text = header[:color.offset]
	}
	if i := bytes.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	return string(bytes.TrimSpace(text))
}
