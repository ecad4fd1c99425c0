package viewer

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/philipparndt/stlwebviewer/pkg/orbit"
)

// Config holds the settings every new session starts with
type Config struct {
	Camera          CameraConfig  `yaml:"camera" toml:"camera"`
	Controls        orbit.Options `yaml:"controls" toml:"controls"`
	ShowBoundingBox bool          `yaml:"show_bounding_box" toml:"show_bounding_box"`
}

// DefaultConfig returns the embedding page defaults
func DefaultConfig() Config {
	return Config{
		Camera:   DefaultCamera(),
		Controls: DefaultControls(),
	}
}

// Host hands out sessions with sequential ids. It is safe for concurrent use;
// the sessions it returns are not.
type Host struct {
	cfg    Config
	loader *Loader
	logger *zap.Logger

	mu       sync.Mutex
	nextID   int
	sessions map[int]*Session
}

// NewHost creates a host. A nil loader uses NewLoader(nil, "", logger).
func NewHost(cfg Config, loader *Loader, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = NewLoader(nil, "", logger)
	}
	return &Host{
		cfg:      cfg,
		loader:   loader,
		logger:   logger,
		nextID:   1,
		sessions: make(map[int]*Session),
	}
}

// NewSession creates a session for source. Call Load to fetch the model.
func (h *Host) NewSession(source string, callbacks Callbacks) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	session := newSession(id, source, h.cfg, h.loader, callbacks, h.logger)
	session.onClose = func() { h.remove(id) }
	h.sessions[id] = session

	h.logger.Debug("Session created", zap.Int("session", id), zap.String("source", source))
	return session
}

// Session looks up a session by id
func (h *Host) Session(id int) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[id]
	return s, ok
}

// Sessions returns the ids of all open sessions in ascending order
func (h *Host) Sessions() []int {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]int, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (h *Host) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sessions, id)
	h.logger.Debug("Session closed", zap.Int("session", id))
}
