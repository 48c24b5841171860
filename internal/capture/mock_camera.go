package capture

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockCamera plays back pre-recorded frames for testing. Each read is
// stamped Interval after the previous one unless a timestamp script is set.
type MockCamera struct {
	frames     []*gocv.Mat
	timestamps []time.Duration
	index      int
	reads      int
	loop       bool
	interval   time.Duration
	mu         sync.Mutex
	running    bool
}

func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames:   frames,
		loop:     loop,
		interval: time.Second / DefaultFPS,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	c.reads = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if len(c.frames) == 0 {
		return nil, fmt.Errorf("no frames available")
	}

	if c.index >= len(c.frames) {
		if c.loop {
			c.index = 0
		} else {
			return nil, fmt.Errorf("no more frames")
		}
	}

	// Clone the frame so the original isn't modified
	mat := c.frames[c.index].Clone()
	c.index++

	ts := time.Duration(c.reads+1) * c.interval
	if len(c.timestamps) > 0 {
		i := c.reads
		if i >= len(c.timestamps) {
			i = len(c.timestamps) - 1
		}
		ts = c.timestamps[i]
	}
	c.reads++

	return &Frame{Mat: &mat, Timestamp: ts}, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = time.Second / time.Duration(fps)
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(time.Second / c.interval)
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetFrames replaces the frame sequence
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}

// SetTimestamps scripts the timestamp of each read. Past the end of the
// script the last value repeats, which looks like a stalled source.
func (c *MockCamera) SetTimestamps(ts []time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timestamps = ts
}

// Reset restarts playback from the beginning
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
	c.reads = 0
}
