package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stlwebviewer/pkg/analysis"
	"github.com/philipparndt/stlwebviewer/pkg/geometry"
)

var (
	point1X, point1Y, point1Z float64
	point2X, point2Y, point2Z float64
)

var measureCmd = &cobra.Command{
	Use:   "measure [source]",
	Short: "Measure distance between two points",
	Long: `Measure the straight-line distance between two 3D points and between the
model vertices nearest to them.`,
	Args: cobra.ExactArgs(1),
	RunE: runMeasure,
}

func init() {
	rootCmd.AddCommand(measureCmd)

	measureCmd.Flags().Float64Var(&point1X, "x1", 0.0, "X coordinate of first point")
	measureCmd.Flags().Float64Var(&point1Y, "y1", 0.0, "Y coordinate of first point")
	measureCmd.Flags().Float64Var(&point1Z, "z1", 0.0, "Z coordinate of first point")
	measureCmd.Flags().Float64Var(&point2X, "x2", 0.0, "X coordinate of second point")
	measureCmd.Flags().Float64Var(&point2Y, "y2", 0.0, "Y coordinate of second point")
	measureCmd.Flags().Float64Var(&point2Z, "z2", 0.0, "Z coordinate of second point")

	measureCmd.MarkFlagsRequiredTogether("x1", "y1", "z1", "x2", "y2", "z2")
}

func runMeasure(cmd *cobra.Command, args []string) error {
	source := args[0]

	p1 := geometry.NewVector3(point1X, point1Y, point1Z)
	p2 := geometry.NewVector3(point2X, point2Y, point2Z)

	model, _, err := loadMesh(cmd.Context(), source)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", source, err)
	}
	if model.TriangleCount() == 0 {
		return fmt.Errorf("%s has no triangles", source)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Point-to-Point Measurement")
	fmt.Fprintln(out, "==========================")

	nearest1, dist1 := analysis.FindNearestVertex(model, p1)
	nearest2, dist2 := analysis.FindNearestVertex(model, p2)

	fmt.Fprintf(out, "\nPoint 1: %s\n", analysis.FormatVector(p1))
	if dist1 > 0 {
		fmt.Fprintf(out, "  Nearest vertex: %s (distance: %.6f)\n", analysis.FormatVector(nearest1), dist1)
	}

	fmt.Fprintf(out, "\nPoint 2: %s\n", analysis.FormatVector(p2))
	if dist2 > 0 {
		fmt.Fprintf(out, "  Nearest vertex: %s (distance: %.6f)\n", analysis.FormatVector(nearest2), dist2)
	}

	fmt.Fprintf(out, "\nDirect distance: %.6f units\n", p1.Distance(p2))
	if dist1 > 0 || dist2 > 0 {
		fmt.Fprintf(out, "Distance between nearest vertices: %.6f units\n", nearest1.Distance(nearest2))
	}
	return nil
}
