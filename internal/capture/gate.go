package capture

import (
	"sync"
	"time"
)

// Gate decides whether a frame is worth running detection on. Only frames
// whose presentation timestamp is non-zero and differs from the previous one
// pass; polling faster than the source delivers yields repeats that are
// skipped.
type Gate struct {
	mu      sync.Mutex
	last    time.Duration
	passed  uint64
	skipped uint64
}

// NewGate returns a gate that has seen no frames.
func NewGate() *Gate {
	return &Gate{}
}

// Fresh reports whether ts is a new frame and records it.
func (g *Gate) Fresh(ts time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ts == 0 || ts == g.last {
		g.skipped++
		return false
	}
	g.last = ts
	g.passed++
	return true
}

// Last returns the most recent accepted timestamp.
func (g *Gate) Last() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// Counts returns how many frames passed and how many were skipped.
func (g *Gate) Counts() (passed, skipped uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.passed, g.skipped
}

// Reset forgets the last timestamp, e.g. after the camera is reopened.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = 0
}
