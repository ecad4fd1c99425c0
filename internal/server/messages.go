package server

import (
	"github.com/philipparndt/stlwebviewer/pkg/analysis"
	"github.com/philipparndt/stlwebviewer/pkg/orbit"
	"github.com/philipparndt/stlwebviewer/pkg/viewer"
)

// Input event types sent by the widget
const (
	EventPointerDown = "pointerdown"
	EventPointerMove = "pointermove"
	EventPointerUp   = "pointerup"
	EventWheel       = "wheel"
	EventKeyDown     = "keydown"
	EventTouchStart  = "touchstart"
	EventTouchMove   = "touchmove"
	EventTouchEnd    = "touchend"
	EventResize      = "resize"
	EventReset       = "reset"
)

// Message types sent to the widget
const (
	MessageProgress = "progress"
	MessageLoaded   = "loaded"
	MessageError    = "error"
	MessagePose     = "pose"
)

// InputEvent is a DOM input event forwarded by the widget
type InputEvent struct {
	Type    string        `json:"type"`
	Button  int           `json:"button,omitempty"`
	X       float64       `json:"x,omitempty"`
	Y       float64       `json:"y,omitempty"`
	DeltaY  float64       `json:"deltaY,omitempty"`
	Key     int           `json:"key,omitempty"`
	Touches []orbit.Point `json:"touches,omitempty"`
	Width   float64       `json:"width,omitempty"`
	Height  float64       `json:"height,omitempty"`
}

// Box is an axis-aligned box in model units
type Box struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// Model describes a loaded mesh
type Model struct {
	Name        string `json:"name"`
	Format      string `json:"format"`
	Triangles   int    `json:"triangles"`
	HasColors   bool   `json:"hasColors"`
	BoundingBox *Box   `json:"boundingBox,omitempty"`
}

// Message is sent from the server to the widget
type Message struct {
	Type     string            `json:"type"`
	Session  int               `json:"session"`
	Progress *viewer.Progress  `json:"progress,omitempty"`
	Percent  *int              `json:"percent,omitempty"`
	Model    *Model            `json:"model,omitempty"`
	Metrics  *analysis.Metrics `json:"metrics,omitempty"`
	Error    string            `json:"error,omitempty"`
	Pose     *viewer.Pose      `json:"pose,omitempty"`
}
