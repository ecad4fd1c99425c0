// Package server hosts viewer sessions for browser widgets over WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/philipparndt/stlwebviewer/internal/config"
	"github.com/philipparndt/stlwebviewer/pkg/viewer"
	"github.com/philipparndt/stlwebviewer/pkg/watcher"
)

// ErrInvalidModel is returned for model names outside the model root
var ErrInvalidModel = errors.New("invalid model name")

// Server runs one viewer session per connected widget
type Server struct {
	cfg    *config.Config
	root   string
	host   *viewer.Host
	loader *viewer.Loader
	logger *zap.Logger

	upgrader websocket.Upgrader
	mux      *http.ServeMux

	watcher *watcher.FileWatcher
	mu      sync.Mutex
	// watched file -> clients to reload
	subscribers map[string]map[*client]struct{}
}

// New creates a server for cfg. A nil logger discards output.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	root, err := filepath.Abs(cfg.Server.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve models dir: %w", err)
	}
	if info, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("models dir: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("models dir %s is not a directory", root)
	}

	httpClient := &http.Client{Timeout: cfg.Viewer.FetchTimeout}
	loader := viewer.NewLoader(httpClient, cfg.Viewer.OpenSCAD, logger.Named("loader"))
	loader.SetMaxSize(cfg.Viewer.MaxModelSize)

	s := &Server{
		cfg:         cfg,
		root:        root,
		host:        viewer.NewHost(cfg.Session(), loader, logger.Named("viewer")),
		loader:      loader,
		logger:      logger,
		mux:         http.NewServeMux(),
		subscribers: make(map[string]map[*client]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	if cfg.Server.LiveReload {
		fw, err := watcher.NewFileWatcher(cfg.Viewer.ReloadDebounce, logger.Named("watcher"))
		if err != nil {
			return nil, err
		}
		s.watcher = fw
	}

	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.Handle("/models/", http.StripPrefix("/models/", http.FileServer(http.Dir(root))))
	s.mux.HandleFunc("/api/models", s.handleModels)
	s.mux.HandleFunc("/api/metrics", s.handleMetrics)

	return s, nil
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Host returns the session host
func (s *Server) Host() *viewer.Host {
	return s.host
}

// Start starts background work that Handler relies on
func (s *Server) Start(ctx context.Context) {
	if s.watcher != nil {
		s.watcher.Start(ctx)
	}
}

// Run serves on the configured address until ctx is done
func (s *Server) Run(ctx context.Context) error {
	s.Start(ctx)

	srv := &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening",
			zap.String("addr", s.cfg.Server.Listen),
			zap.String("models", s.root))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the file watcher
func (s *Server) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	allowed := s.cfg.Server.AllowedOrigins
	if len(allowed) == 0 {
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// resolve maps a model name to a file below the model root
func (s *Server) resolve(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", ErrInvalidModel
	}

	clean := filepath.Clean("/" + filepath.FromSlash(name))
	path := filepath.Join(s.root, clean)

	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidModel
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", viewer.ErrSourceNotFound, name)
		}
		return "", err
	}
	if info.IsDir() {
		return "", ErrInvalidModel
	}
	return path, nil
}

// httpStatus maps a resolve or load error to a response code
func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidModel):
		return http.StatusBadRequest
	case errors.Is(err, viewer.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, viewer.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
