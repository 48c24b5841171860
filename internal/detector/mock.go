package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns a fixed set of hands, or plays back a scripted sequence of
// frames when one is configured.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	next     int
	err      error
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
}

// SetSequence scripts one detection result per Detect call. Once the
// sequence is exhausted the last entry is repeated.
func (m *MockDetector) SetSequence(frames [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = frames
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) == 0 {
		return m.hands, nil
	}

	idx := m.next
	if idx >= len(m.sequence) {
		idx = len(m.sequence) - 1
	} else {
		m.next++
	}
	return m.sequence[idx], nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// OpenPalmLandmarks returns a right hand with the palm spread flat and all
// four fingers perfectly straight. Thumb and index tips are far apart.
func OpenPalmLandmarks() HandLandmarks {
	points := make([]Point3D, NumLandmarks)

	points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	points[ThumbCMC] = Point3D{X: 0.56, Y: 0.75}
	points[ThumbMCP] = Point3D{X: 0.63, Y: 0.70}
	points[ThumbIP] = Point3D{X: 0.69, Y: 0.66}
	points[ThumbTip] = Point3D{X: 0.74, Y: 0.62}

	straightFinger(points, IndexMCP, Point3D{X: 0.58, Y: 0.62}, 0.02, -0.10)
	straightFinger(points, MiddleMCP, Point3D{X: 0.51, Y: 0.60}, 0.0, -0.11)
	straightFinger(points, RingMCP, Point3D{X: 0.44, Y: 0.62}, -0.015, -0.10)
	straightFinger(points, PinkyMCP, Point3D{X: 0.38, Y: 0.66}, -0.03, -0.08)

	return HandLandmarks{Points: points, Handedness: HandednessRight, Score: 0.95}
}

// PinchLandmarks returns a right hand with the thumb tip and index tip
// touching (about 0.028 apart) and the remaining fingers curled.
func PinchLandmarks() HandLandmarks {
	points := make([]Point3D, NumLandmarks)

	points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	points[ThumbCMC] = Point3D{X: 0.55, Y: 0.74}
	points[ThumbMCP] = Point3D{X: 0.59, Y: 0.64}
	points[ThumbIP] = Point3D{X: 0.60, Y: 0.54}
	points[ThumbTip] = Point3D{X: 0.60, Y: 0.45}

	points[IndexMCP] = Point3D{X: 0.58, Y: 0.62}
	points[IndexPIP] = Point3D{X: 0.62, Y: 0.54}
	points[IndexDIP] = Point3D{X: 0.64, Y: 0.49}
	points[IndexTip] = Point3D{X: 0.62, Y: 0.47}

	curledFinger(points, MiddleMCP, Point3D{X: 0.51, Y: 0.64})
	curledFinger(points, RingMCP, Point3D{X: 0.45, Y: 0.66})
	curledFinger(points, PinkyMCP, Point3D{X: 0.40, Y: 0.70})

	return HandLandmarks{Points: points, Handedness: HandednessRight, Score: 0.95}
}

// FistLandmarks returns a right hand with every finger curled and the
// thumb held out low to the side, beyond the pinch release distance.
func FistLandmarks() HandLandmarks {
	points := make([]Point3D, NumLandmarks)

	points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	points[ThumbCMC] = Point3D{X: 0.56, Y: 0.78}
	points[ThumbMCP] = Point3D{X: 0.62, Y: 0.80}
	points[ThumbIP] = Point3D{X: 0.66, Y: 0.81}
	points[ThumbTip] = Point3D{X: 0.70, Y: 0.82}

	curledFinger(points, IndexMCP, Point3D{X: 0.57, Y: 0.64})
	curledFinger(points, MiddleMCP, Point3D{X: 0.51, Y: 0.63})
	curledFinger(points, RingMCP, Point3D{X: 0.45, Y: 0.65})
	curledFinger(points, PinkyMCP, Point3D{X: 0.40, Y: 0.69})

	return HandLandmarks{Points: points, Handedness: HandednessRight, Score: 0.95}
}

// Mirror returns a copy of h flipped horizontally and relabeled with the
// opposite handedness.
func Mirror(h HandLandmarks) HandLandmarks {
	out := HandLandmarks{Points: make([]Point3D, len(h.Points)), Score: h.Score}
	for i, p := range h.Points {
		out.Points[i] = Point3D{X: 1 - p.X, Y: p.Y, Z: p.Z}
	}
	switch h.Handedness {
	case HandednessLeft:
		out.Handedness = HandednessRight
	case HandednessRight:
		out.Handedness = HandednessLeft
	default:
		out.Handedness = h.Handedness
	}
	return out
}

// straightFinger lays four collinear joints from base along (dx, dy).
func straightFinger(points []Point3D, first int, base Point3D, dx, dy float64) {
	for j := 0; j < 4; j++ {
		points[first+j] = Point3D{X: base.X + float64(j)*dx, Y: base.Y + float64(j)*dy}
	}
}

// curledFinger folds a finger back toward the palm from base.
func curledFinger(points []Point3D, first int, base Point3D) {
	points[first] = base
	points[first+1] = Point3D{X: base.X, Y: base.Y - 0.03, Z: -0.03}
	points[first+2] = Point3D{X: base.X - 0.03, Y: base.Y - 0.01, Z: -0.04}
	points[first+3] = Point3D{X: base.X - 0.04, Y: base.Y + 0.02, Z: -0.02}
}
