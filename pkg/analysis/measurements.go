package analysis

import (
	"fmt"
	"math"

	"github.com/philipparndt/stlwebviewer/pkg/geometry"
	"github.com/philipparndt/stlwebviewer/pkg/stl"
)

// Metrics are the measurements reported to the page once a model has loaded
type Metrics struct {
	Volume   float64 `json:"volume"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Length   float64 `json:"length"`
	FileSize int64   `json:"fileSize"`
}

// MeasurementResult contains all measurements of a mesh
type MeasurementResult struct {
	Metrics
	BoundingBox    geometry.BoundingBox
	BoundingSphere geometry.BoundingSphere
	Dimensions     geometry.Vector3
	SurfaceArea    float64
	TriangleCount  int
	EdgeCount      int
	MinEdgeLength  float64
	MaxEdgeLength  float64
	AvgEdgeLength  float64
}

// BoundingBox returns the component-wise extent of all vertices
func BoundingBox(mesh *stl.Mesh) geometry.BoundingBox {
	box := geometry.NewBoundingBox()
	for _, v := range mesh.Vertices {
		box.Extend(v)
	}
	return box
}

// BoundingSphere returns the sphere centered on the bounding box that encloses
// every vertex
func BoundingSphere(mesh *stl.Mesh) geometry.BoundingSphere {
	return geometry.SphereFromPoints(mesh.Vertices)
}

// Volume returns the enclosed volume as the absolute sum of the signed
// tetrahedra each facet forms with the origin. The result is only meaningful
// for a closed, consistently wound mesh.
func Volume(mesh *stl.Mesh) float64 {
	return math.Abs(SignedVolume(mesh))
}

// SignedVolume returns the signed volume sum, positive for outward winding
func SignedVolume(mesh *stl.Mesh) float64 {
	sum := 0.0
	for i := 0; i < mesh.TriangleCount(); i++ {
		sum += mesh.Triangle(i).SignedVolume()
	}
	return sum
}

// SurfaceArea returns the total area of all facets
func SurfaceArea(mesh *stl.Mesh) float64 {
	area := 0.0
	for i := 0; i < mesh.TriangleCount(); i++ {
		area += mesh.Triangle(i).Area()
	}
	return area
}

// AnalyzeModel performs comprehensive analysis on a mesh. fileSize is the size
// of the encoded file in bytes.
func AnalyzeModel(mesh *stl.Mesh, fileSize int64) *MeasurementResult {
	result := &MeasurementResult{
		BoundingBox:    BoundingBox(mesh),
		BoundingSphere: BoundingSphere(mesh),
		SurfaceArea:    SurfaceArea(mesh),
		TriangleCount:  mesh.TriangleCount(),
	}

	result.Dimensions = result.BoundingBox.Size()
	result.Metrics = Metrics{
		Volume:   Volume(mesh),
		Width:    math.Abs(result.Dimensions.X),
		Height:   math.Abs(result.Dimensions.Y),
		Length:   math.Abs(result.Dimensions.Z),
		FileSize: fileSize,
	}

	// Collect edge statistics
	minLength := math.MaxFloat64
	maxLength := 0.0
	totalLength := 0.0

	for i := 0; i < mesh.TriangleCount(); i++ {
		triangle := mesh.Triangle(i)
		for _, length := range []float64{
			triangle.V1.Distance(triangle.V2),
			triangle.V2.Distance(triangle.V3),
			triangle.V3.Distance(triangle.V1),
		} {
			totalLength += length
			minLength = math.Min(minLength, length)
			maxLength = math.Max(maxLength, length)
			result.EdgeCount++
		}
	}

	if result.EdgeCount > 0 {
		result.MinEdgeLength = minLength
		result.MaxEdgeLength = maxLength
		result.AvgEdgeLength = totalLength / float64(result.EdgeCount)
	}

	return result
}

// ComputeMetrics returns only the page level metrics
func ComputeMetrics(mesh *stl.Mesh, fileSize int64) Metrics {
	size := BoundingBox(mesh).Size()
	return Metrics{
		Volume:   Volume(mesh),
		Width:    math.Abs(size.X),
		Height:   math.Abs(size.Y),
		Length:   math.Abs(size.Z),
		FileSize: fileSize,
	}
}

// FindNearestVertex returns the vertex of mesh closest to point and its
// distance. An empty mesh yields math.MaxFloat64.
func FindNearestVertex(mesh *stl.Mesh, point geometry.Vector3) (geometry.Vector3, float64) {
	var nearest geometry.Vector3
	minDistance := math.MaxFloat64

	for _, vertex := range mesh.Vertices {
		if distance := point.Distance(vertex); distance < minDistance {
			minDistance = distance
			nearest = vertex
		}
	}

	return nearest, minDistance
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}

// FormatBytes formats a byte count with a binary unit
func FormatBytes(size int64) string {
	if size < 0 {
		return "unknown"
	}
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
