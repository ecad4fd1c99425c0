package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/philipparndt/stlwebviewer/pkg/analysis"
	"github.com/philipparndt/stlwebviewer/pkg/orbit"
	"github.com/philipparndt/stlwebviewer/pkg/stl"
	"github.com/philipparndt/stlwebviewer/pkg/viewer"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	sendQueueSize  = 64
)

// client connects one widget to its viewer session
type client struct {
	server *Server
	name   string
	conn   *websocket.Conn
	logger *zap.Logger

	// mu guards session, which is driven from the read, frame and reload
	// goroutines
	mu      sync.Mutex
	session *viewer.Session

	send      chan Message
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	// files this client is subscribed to, guarded by server.mu
	watched []string
}

// handleWebSocket upgrades /ws?model=<name> and runs a session for it
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("model")
	path, err := s.resolve(name)
	if err != nil {
		s.logger.Warn("Rejected session", zap.String("model", name), zap.Error(err))
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		server: s,
		name:   name,
		conn:   conn,
		send:   make(chan Message, sendQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	c.session = s.host.NewSession(path, viewer.Callbacks{
		OnProgress: c.onProgress,
		OnLoad:     c.onLoad,
		OnError:    c.onError,
	})
	c.logger = s.logger.With(zap.Int("session", c.session.ID), zap.String("model", name))

	c.run()
}

func (c *client) run() {
	defer c.close()

	c.logger.Info("Widget connected")
	go c.writeLoop()

	// a broken model is watched too so that fixing it reloads the widget
	c.server.subscribe(c)

	c.mu.Lock()
	_ = c.session.Load(c.ctx)
	c.mu.Unlock()

	go c.frameLoop(c.server.cfg.FrameInterval())
	c.readLoop()
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.server.unsubscribe(c)
		c.session.Close()
		_ = c.conn.Close()
		c.logger.Info("Widget disconnected")
	})
}

// enqueue hands msg to the writer unless the connection is gone
func (c *client) enqueue(msg Message) {
	msg.Session = c.session.ID
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	}
}

func (c *client) onProgress(p viewer.Progress) {
	msg := Message{Type: MessageProgress, Progress: &p}
	if percent := p.Percent(); percent >= 0 {
		msg.Percent = &percent
	}
	c.enqueue(msg)
}

// onLoad runs inside Load or Reload with c.mu held
func (c *client) onLoad(mesh *stl.Mesh, metrics analysis.Metrics) {
	_, showBox := c.session.BoundingBox()
	model := describe(c.name, mesh, c.session.Report(), showBox)
	c.enqueue(Message{Type: MessageLoaded, Model: &model, Metrics: &metrics})
}

func (c *client) onError(err error) {
	c.enqueue(Message{Type: MessageError, Error: err.Error()})
}

func (c *client) reload() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx.Err() != nil {
		return
	}
	c.logger.Info("Reloading model")
	_ = c.session.Reload(c.ctx)
}

func (c *client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("WebSocket write failed", zap.Error(err))
				c.cancel()
				_ = c.conn.Close()
				return
			}
		}
	}
}

// frameLoop drives the rig and pushes a pose whenever the camera moved
func (c *client) frameLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			changed := c.session.Frame()
			pose := c.session.Pose()
			c.mu.Unlock()

			if changed {
				c.enqueue(Message{Type: MessagePose, Pose: &pose})
			}
		}
	}
}

func (c *client) readLoop() {
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket read failed", zap.Error(err))
			}
			return
		}

		var event InputEvent
		if err := json.Unmarshal(data, &event); err != nil {
			c.enqueue(Message{Type: MessageError, Error: fmt.Sprintf("invalid event: %v", err)})
			continue
		}

		c.mu.Lock()
		err = c.dispatch(event)
		c.mu.Unlock()

		if err != nil {
			c.enqueue(Message{Type: MessageError, Error: err.Error()})
		}
	}
}

// dispatch feeds one input event to the session; callers hold c.mu
func (c *client) dispatch(event InputEvent) error {
	rig := c.session.Rig()
	at := orbit.Point{X: event.X, Y: event.Y}

	switch event.Type {
	case EventPointerDown:
		rig.PointerDown(orbit.MouseButton(event.Button), at)
	case EventPointerMove:
		rig.PointerMove(at)
	case EventPointerUp:
		rig.PointerUp()
	case EventWheel:
		rig.Wheel(event.DeltaY)
	case EventKeyDown:
		rig.KeyDown(orbit.Key(event.Key))
	case EventTouchStart:
		rig.TouchStart(event.Touches)
	case EventTouchMove:
		rig.TouchMove(event.Touches)
	case EventTouchEnd:
		rig.TouchEnd()
	case EventResize:
		c.session.SetViewport(event.Width, event.Height)
	case EventReset:
		rig.Reset()
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	return nil
}
