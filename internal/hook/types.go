// Package hook runs external executables when strokes complete or gestures
// change. Each hook lives in its own directory under the hooks directory
// and is described by a hook.json manifest. A hook receives one Request as
// JSON on stdin and answers with one Response as JSON on stdout.
package hook

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/ayusman/airtrail/internal/gesture"
	"github.com/ayusman/airtrail/internal/scene"
)

// Event names a hook trigger.
type Event string

const (
	// StrokeCompleted fires once per finished stroke.
	StrokeCompleted Event = "stroke_completed"
	// GestureChanged fires for every pinch or palm transition.
	GestureChanged Event = "gesture_changed"
)

// ManifestFile is the manifest name inside each hook directory.
const ManifestFile = "hook.json"

// Manifest describes a hook's metadata and triggers.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []Event         `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request is sent to a hook on stdin.
type Request struct {
	Event     Event           `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Config    json.RawMessage `json:"config,omitempty"`
	Stroke    *scene.Stroke   `json:"stroke,omitempty"`
	Gesture   *gesture.Event  `json:"gesture,omitempty"`
}

// Response is read from a hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest `json:"manifest"`
	Path       string   `json:"path"`
	Executable string   `json:"executable"`
}

// Handles reports whether the hook subscribes to e.
func (h *Hook) Handles(e Event) bool {
	return slices.Contains(h.Manifest.Events, e)
}
