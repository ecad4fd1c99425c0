package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stlwebviewer/internal/config"
	"github.com/philipparndt/stlwebviewer/internal/logger"
	"github.com/philipparndt/stlwebviewer/internal/server"
)

var (
	serveListen    string
	serveModels    string
	serveFrameRate int
	serveOpenSCAD  string
	serveNoReload  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve viewer sessions to browser widgets",
	Long: `Run the widget backend. Each WebSocket connection to /ws?model=<name> gets its
own viewer session for a model below the models directory. The session streams
load progress, measurements and camera poses, and reloads when the file changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Address to listen on (default :8080)")
	serveCmd.Flags().StringVar(&serveModels, "models", "", "Directory holding the served models")
	serveCmd.Flags().IntVar(&serveFrameRate, "frame-rate", 0, "Camera updates per second")
	serveCmd.Flags().StringVar(&serveOpenSCAD, "openscad", "", "Path to the openscad binary")
	serveCmd.Flags().BoolVar(&serveNoReload, "no-reload", false, "Disable live reload of changed models")
}

func runServe(cmd *cobra.Command, args []string) error {
	overrides := config.Overrides{
		Listen:    serveListen,
		ModelsDir: serveModels,
		FrameRate: serveFrameRate,
		OpenSCAD:  serveOpenSCAD,
	}
	if serveNoReload {
		off := false
		overrides.LiveReload = &off
	}
	cfg.ApplyOverrides(overrides)

	srv, err := server.New(cfg, logger.Named("server"))
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
