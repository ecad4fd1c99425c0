package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stlwebviewer/pkg/analysis"
)

var infoCmd = &cobra.Command{
	Use:   "info [source]",
	Short: "Display general information about an STL file",
	Long: `Show the encoding, triangle count, colors, bounding volumes, dimensions,
volume, surface area and edge statistics of a model. The source can be a local
path, a file:// URL, an http(s) URL or an OpenSCAD file.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	source := args[0]

	model, size, err := loadMesh(cmd.Context(), source)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", source, err)
	}

	result := analysis.AnalyzeModel(model, size)
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "STL File Information")
	fmt.Fprintln(out, "====================")
	if model.Name != "" {
		fmt.Fprintf(out, "Name: %s\n", model.Name)
	}
	fmt.Fprintf(out, "Source: %s\n", source)
	fmt.Fprintf(out, "Format: %s\n", model.Format)
	fmt.Fprintf(out, "File Size: %s\n", analysis.FormatBytes(result.FileSize))
	if model.HasColors {
		fmt.Fprintf(out, "Colors: per facet, default alpha %.3f\n\n", model.Alpha)
	} else {
		fmt.Fprintf(out, "Colors: none\n\n")
	}

	fmt.Fprintln(out, "Model Statistics:")
	fmt.Fprintf(out, "  Triangles: %d\n", result.TriangleCount)
	fmt.Fprintf(out, "  Edges: %d\n", result.EdgeCount)
	fmt.Fprintf(out, "  Surface Area: %.6f square units\n\n", result.SurfaceArea)

	if result.TriangleCount == 0 {
		return nil
	}

	fmt.Fprintln(out, "Bounding Box:")
	fmt.Fprintf(out, "  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
	fmt.Fprintf(out, "  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
	fmt.Fprintf(out, "  Center: %s\n\n", analysis.FormatVector(result.BoundingBox.Center()))

	fmt.Fprintln(out, "Bounding Sphere:")
	fmt.Fprintf(out, "  Center: %s\n", analysis.FormatVector(result.BoundingSphere.Center))
	fmt.Fprintf(out, "  Radius: %.6f units\n\n", result.BoundingSphere.Radius)

	fmt.Fprintln(out, "Dimensions:")
	fmt.Fprintf(out, "  Width (X): %.6f units\n", result.Width)
	fmt.Fprintf(out, "  Height (Y): %.6f units\n", result.Height)
	fmt.Fprintf(out, "  Length (Z): %.6f units\n", result.Length)
	fmt.Fprintf(out, "  Diagonal: %.6f units\n", result.BoundingBox.Diagonal())
	fmt.Fprintf(out, "  Volume: %.6f cubic units\n\n", result.Volume)

	fmt.Fprintln(out, "Edge Lengths:")
	fmt.Fprintf(out, "  Minimum: %.6f units\n", result.MinEdgeLength)
	fmt.Fprintf(out, "  Maximum: %.6f units\n", result.MaxEdgeLength)
	fmt.Fprintf(out, "  Average: %.6f units\n", result.AvgEdgeLength)
	return nil
}
