package main

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stlwebviewer/pkg/analysis"
	"github.com/philipparndt/stlwebviewer/pkg/stl"
)

var (
	facetCount    int
	facetLargest  bool
	facetSmallest bool
)

type facetInfo struct {
	Index     int
	Area      float64
	Perimeter float64
	Vertices  string
	Color     *stl.Color
}

var facetsCmd = &cobra.Command{
	Use:   "facets [source]",
	Short: "Analyze the facets of an STL file",
	Long:  "Display facets with their area, perimeter, vertex positions and decoded color.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFacets,
}

func init() {
	rootCmd.AddCommand(facetsCmd)

	facetsCmd.Flags().IntVarP(&facetCount, "count", "n", 10, "Number of facets to display")
	facetsCmd.Flags().BoolVarP(&facetLargest, "largest", "l", false, "Show largest facets by area")
	facetsCmd.Flags().BoolVarP(&facetSmallest, "smallest", "s", false, "Show smallest facets by area")
	facetsCmd.MarkFlagsMutuallyExclusive("largest", "smallest")
}

// collectFacets measures every facet of model in file order
func collectFacets(model *stl.Mesh) []facetInfo {
	facets := make([]facetInfo, 0, model.TriangleCount())
	for i := 0; i < model.TriangleCount(); i++ {
		tri := model.Triangle(i)
		info := facetInfo{
			Index:     i,
			Area:      tri.Area(),
			Perimeter: tri.V1.Distance(tri.V2) + tri.V2.Distance(tri.V3) + tri.V3.Distance(tri.V1),
			Vertices: fmt.Sprintf("%s, %s, %s",
				analysis.FormatVector(tri.V1),
				analysis.FormatVector(tri.V2),
				analysis.FormatVector(tri.V3)),
		}
		if color, ok := model.FacetColor(i); ok {
			info.Color = &color
		}
		facets = append(facets, info)
	}
	return facets
}

// sortFacets orders facets by area; stable so equal areas keep file order
func sortFacets(facets []facetInfo, largest, smallest bool) {
	switch {
	case largest:
		sort.SliceStable(facets, func(i, j int) bool {
			return facets[i].Area > facets[j].Area
		})
	case smallest:
		sort.SliceStable(facets, func(i, j int) bool {
			return facets[i].Area < facets[j].Area
		})
	}
}

func runFacets(cmd *cobra.Command, args []string) error {
	filename := args[0]

	model, _, err := loadMesh(cmd.Context(), filename)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", filename, err)
	}

	facets := collectFacets(model)
	sortFacets(facets, facetLargest, facetSmallest)
	printFacets(cmd.OutOrStdout(), facets, facetCount, facetLargest, facetSmallest)
	return nil
}

func printFacets(out io.Writer, facets []facetInfo, count int, largest, smallest bool) {
	var title string
	switch {
	case largest:
		title = fmt.Sprintf("Top %d Largest Facets", count)
	case smallest:
		title = fmt.Sprintf("Top %d Smallest Facets", count)
	default:
		title = fmt.Sprintf("First %d Facets", count)
	}

	totalArea := 0.0
	minArea := math.MaxFloat64
	maxArea := 0.0
	for _, f := range facets {
		totalArea += f.Area
		minArea = math.Min(minArea, f.Area)
		maxArea = math.Max(maxArea, f.Area)
	}

	fmt.Fprintln(out, title)
	fmt.Fprintln(out, "====================")
	fmt.Fprintf(out, "Total facets: %d\n", len(facets))
	if len(facets) == 0 {
		return
	}
	fmt.Fprintf(out, "Total surface area: %.6f square units\n", totalArea)
	fmt.Fprintf(out, "Min facet area: %.6f square units\n", minArea)
	fmt.Fprintf(out, "Max facet area: %.6f square units\n", maxArea)
	fmt.Fprintf(out, "Avg facet area: %.6f square units\n\n", totalArea/float64(len(facets)))

	for i := 0; i < count && i < len(facets); i++ {
		f := facets[i]
		fmt.Fprintf(out, "Facet #%d:\n", f.Index)
		fmt.Fprintf(out, "  Area: %.6f square units\n", f.Area)
		fmt.Fprintf(out, "  Perimeter: %.6f units\n", f.Perimeter)
		fmt.Fprintf(out, "  Vertices: %s\n", f.Vertices)
		if f.Color != nil {
			fmt.Fprintf(out, "  Color: rgb(%.3f, %.3f, %.3f)\n", f.Color.R, f.Color.G, f.Color.B)
		}
		fmt.Fprintln(out)
	}
}
