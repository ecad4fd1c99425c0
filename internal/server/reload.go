package server

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/philipparndt/stlwebviewer/pkg/openscad"
)

// watchList returns the files whose change should reload source. For
// OpenSCAD sources that includes every used or included file.
func (s *Server) watchList(source string) []string {
	if !openscad.IsSource(source) {
		return []string{source}
	}

	renderer := openscad.NewRenderer(s.cfg.Viewer.OpenSCAD, filepath.Dir(source))
	deps, err := renderer.ResolveDependencies(source)
	if err != nil {
		s.logger.Warn("Failed to resolve dependencies", zap.String("source", source), zap.Error(err))
		return []string{source}
	}
	return deps
}

// subscribe reloads c whenever its model or a dependency changes
func (s *Server) subscribe(c *client) {
	if s.watcher == nil {
		return
	}

	files := s.watchList(c.session.Source)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			continue
		}

		clients, ok := s.subscribers[abs]
		if !ok {
			if err := s.watcher.Watch([]string{abs}, s.fileChanged); err != nil {
				s.logger.Warn("Failed to watch file", zap.String("path", abs), zap.Error(err))
				continue
			}
			clients = make(map[*client]struct{})
			s.subscribers[abs] = clients
		}
		clients[c] = struct{}{}
		c.watched = append(c.watched, abs)
	}

	c.logger.Debug("Watching files", zap.Strings("files", c.watched))
}

// unsubscribe drops c and stops watching files nobody needs anymore
func (s *Server) unsubscribe(c *client) {
	if s.watcher == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, file := range c.watched {
		clients := s.subscribers[file]
		delete(clients, c)
		if len(clients) == 0 {
			delete(s.subscribers, file)
			s.watcher.Unwatch([]string{file})
		}
	}
	c.watched = nil
}

// fileChanged is the watcher callback
func (s *Server) fileChanged(path string) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.subscribers[path]))
	for c := range s.subscribers[path] {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	s.logger.Info("File changed", zap.String("path", path), zap.Int("sessions", len(clients)))
	for _, c := range clients {
		go c.reload()
	}
}
