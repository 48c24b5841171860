// Package capture reads timestamped frames from a camera using GoCV (OpenCV)
// and decides which of them are new enough to run detection on.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airtrail/pkg/logger"
)

// Requested capture settings. Devices may negotiate something else; the
// pipeline follows whatever size the frames actually have.
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrEmptyFrame is returned when the device hands back no pixels.
	ErrEmptyFrame = errors.New("captured frame is empty")

	// ErrReadFailed is returned when the backend refuses to grab a frame.
	ErrReadFailed = errors.New("failed to read frame from camera")
)

// Frame is a captured image and the presentation time reported for it.
// A zero Timestamp means the source has not produced a frame yet.
type Frame struct {
	Mat       *gocv.Mat
	Timestamp time.Duration
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.Mat.Cols() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.Mat.Rows() }

// Close releases the underlying Mat.
func (f *Frame) Close() error {
	if f == nil || f.Mat == nil {
		return nil
	}
	return f.Mat.Close()
}

// Camera is a frame source.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*Frame, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// DeviceConfig selects a capture device and the mode requested from it.
// Zero sizes and rates fall back to the defaults.
type DeviceConfig struct {
	ID     int
	Width  int
	Height int
	FPS    int
}

func (c DeviceConfig) withDefaults() DeviceConfig {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	return c
}

// Device captures from a local camera through OpenCV.
type Device struct {
	cfg DeviceConfig
	log logger.Logger

	mu       sync.Mutex
	capture  *gocv.VideoCapture
	opened   time.Time
	lastTS   time.Duration
	actualW  int
	actualH  int
	failures int
}

// NewCamera returns a closed Device for cfg.
func NewCamera(cfg DeviceConfig) *Device {
	return &Device{cfg: cfg.withDefaults(), log: logger.Named("capture")}
}

// Open starts capture in the requested mode and records the mode the
// device actually granted.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(d.cfg.ID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", d.cfg.ID, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(d.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(d.cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(d.cfg.FPS))

	d.capture = vc
	d.opened = time.Now()
	d.lastTS = 0
	d.failures = 0
	d.actualW = int(vc.Get(gocv.VideoCaptureFrameWidth))
	d.actualH = int(vc.Get(gocv.VideoCaptureFrameHeight))

	d.log.Info(context.Background(), "camera opened",
		logger.Int("device", d.cfg.ID),
		logger.Int("width", d.actualW),
		logger.Int("height", d.actualH),
		logger.Int("fps", d.cfg.FPS))
	return nil
}

// Close releases the device. Closing a closed Device is a no-op.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil
	}
	err := d.capture.Close()
	d.capture = nil
	return err
}

// ReadFrame grabs the next frame. The timestamp is the backend's stream
// position when it reports one and the time since Open otherwise. A
// backend position that runs backwards is treated as a restart and
// replaced by the wall-clock fallback. The caller closes the Frame.
func (d *Device) ReadFrame() (*Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := d.capture.Read(&mat); !ok {
		_ = mat.Close()
		d.failures++
		return nil, fmt.Errorf("%w (%d in a row)", ErrReadFailed, d.failures)
	}
	if mat.Empty() {
		_ = mat.Close()
		d.failures++
		return nil, ErrEmptyFrame
	}
	d.failures = 0

	ts := frameTime(d.capture.Get(gocv.VideoCapturePosMsec), d.lastTS, time.Since(d.opened))
	d.lastTS = ts
	return &Frame{Mat: &mat, Timestamp: ts}, nil
}

// frameTime picks a presentation time from the backend position in
// milliseconds, the previous timestamp and the time since open.
func frameTime(posMsec float64, last, sinceOpen time.Duration) time.Duration {
	ts := time.Duration(posMsec * float64(time.Millisecond))
	if ts <= 0 || ts < last {
		return sinceOpen
	}
	return ts
}

// SetFPS changes the requested frame rate. Non-positive values are ignored.
func (d *Device) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cfg.FPS = fps
	if d.capture != nil {
		d.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the requested frame rate.
func (d *Device) FPS() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.FPS
}

// IsOpen reports whether the device is capturing.
func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.capture != nil
}

// Resolution returns the size the device granted at Open, or the requested
// size while closed.
func (d *Device) Resolution() (width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capture == nil || d.actualW <= 0 || d.actualH <= 0 {
		return d.cfg.Width, d.cfg.Height
	}
	return d.actualW, d.actualH
}
