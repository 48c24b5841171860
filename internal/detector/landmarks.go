// Package detector is the boundary to the hand-landmark model: landmark
// types, the Detector interface, the MediaPipe subprocess and a scriptable
// mock.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the model.
const (
	HandednessLeft  = "Left"
	HandednessRight = "Right"
)

// Fingers lists the base (MCP) index of each non-thumb finger. Each finger
// spans four consecutive landmarks starting at its base.
var Fingers = [4]int{IndexMCP, MiddleMCP, RingMCP, PinkyMCP}

// Point3D represents a 3D point in space with x, y, z coordinates.
// Model output is normalized: x and y in [0,1], z relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand. A well-formed detection carries
// exactly NumLandmarks points; the slice is kept as delivered so that
// consumers can reject short or oversized detections.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Complete reports whether the hand carries the full landmark set.
func (h *HandLandmarks) Complete() bool {
	return h != nil && len(h.Points) == NumLandmarks
}

// Finger returns the four landmarks of the finger whose base is at base.
// The hand must be complete.
func (h *HandLandmarks) Finger(base int) [4]Point3D {
	return [4]Point3D{h.Points[base], h.Points[base+1], h.Points[base+2], h.Points[base+3]}
}
