package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philipparndt/stlwebviewer/internal/logger"
	"github.com/philipparndt/stlwebviewer/pkg/stl"
)

var convertASCII bool

var convertCmd = &cobra.Command{
	Use:   "convert [source] [output]",
	Short: "Re-encode a model as binary or ASCII STL",
	Long: `Decode any supported source and write it as STL. Binary output keeps the
COLOR= header and per facet colors; ASCII output has no colors.`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolVar(&convertASCII, "ascii", false, "Write ASCII instead of binary STL")
}

func runConvert(cmd *cobra.Command, args []string) error {
	source, output := args[0], args[1]

	model, _, err := loadMesh(cmd.Context(), source)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", source, err)
	}

	format := stl.FormatBinary
	if convertASCII {
		format = stl.FormatASCII
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := stl.Encode(file, model, format); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	if err := file.Close(); err != nil {
		return err
	}

	logger.Info("Model converted",
		zap.String("source", source),
		zap.String("output", output),
		zap.Stringer("format", format),
		zap.Int("triangles", model.TriangleCount()))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d triangles to %s (%s)\n", model.TriangleCount(), output, format)
	return nil
}
