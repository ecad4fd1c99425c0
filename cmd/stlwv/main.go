package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stlwebviewer/internal/config"
	"github.com/philipparndt/stlwebviewer/internal/logger"
	"github.com/philipparndt/stlwebviewer/pkg/stl"
	"github.com/philipparndt/stlwebviewer/pkg/viewer"
	"github.com/philipparndt/stlwebviewer/version"
)

var (
	configPath string
	logLevel   string
	logFile    string

	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "stlwv",
	Short: "Backend and inspection tool for the embeddable STL viewer",
	Long: `stlwv decodes ASCII and binary STL files (including the COLOR= facet color
extension), reports their measurements, and serves interactive viewer sessions
to browser widgets over WebSocket. OpenSCAD sources are rendered to STL first.`,
	Version:           version.GetFullVersion(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (YAML or TOML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file")
}

// setup loads the config and initializes logging. Priority: defaults < file < flags.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	loaded.ApplyOverrides(config.Overrides{
		LogLevel: logLevel,
		LogFile:  logFile,
	})

	if err := logger.Init(loaded.Logging.Level, loaded.Logging.LogFile); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg = loaded
	return nil
}

// loadMesh fetches and decodes a model from a path, file:// or http(s) URL.
// It also returns the encoded size in bytes.
func loadMesh(ctx context.Context, source string) (*stl.Mesh, int64, error) {
	client := &http.Client{Timeout: cfg.Viewer.FetchTimeout}
	loader := viewer.NewLoader(client, cfg.Viewer.OpenSCAD, logger.Named("loader"))
	loader.SetMaxSize(cfg.Viewer.MaxModelSize)

	data, err := loader.Load(ctx, source, nil)
	if err != nil {
		return nil, 0, err
	}

	mesh, err := stl.Decode(data)
	if err != nil {
		return nil, 0, err
	}
	return mesh, int64(len(data)), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
