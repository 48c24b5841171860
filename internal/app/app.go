// Package app wires capture, landmark detection, gesture classification and
// the drawing scene into one frame pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airtrail/internal/capture"
	"github.com/ayusman/airtrail/internal/detector"
	"github.com/ayusman/airtrail/internal/gesture"
	"github.com/ayusman/airtrail/internal/hook"
	"github.com/ayusman/airtrail/internal/scene"
	"github.com/ayusman/airtrail/internal/store"
	"github.com/ayusman/airtrail/pkg/logger"
	"github.com/ayusman/airtrail/pkg/metrics"
)

// ErrNoCamera is returned by New when Config.Camera is nil.
var ErrNoCamera = errors.New("app: camera is required")

// Config holds the collaborators and settings of an App.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	// Store is optional. Without it thresholds and strokes live in memory only.
	Store *store.Store
	// Metrics defaults to the process-wide manager.
	Metrics *metrics.Manager
	// Hooks is optional. It receives completed strokes and gesture events.
	Hooks *hook.Dispatcher

	Thresholds gesture.Thresholds
	Scene      scene.Config
	FPS        int
}

// Snapshot is the state published after every processed frame.
type Snapshot struct {
	Enabled     bool                `json:"enabled"`
	Frame       uint64              `json:"frame"`
	TimestampMs int64               `json:"timestamp_ms"`
	Hands       []gesture.HandState `json:"hands"`
	Events      []gesture.Event     `json:"events,omitempty"`
	TrailLength int                 `json:"trail_length"`
	Scene       scene.Snapshot      `json:"scene"`
}

// App is the running pipeline.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	store    *store.Store
	metrics  *metrics.Manager
	log      logger.Logger

	gate  *capture.Gate
	scene *scene.Scene

	// mu guards hands, the latest snapshot and the frame counter.
	mu     sync.RWMutex
	hands  *gesture.Hands
	latest Snapshot
	frames uint64

	enabledMu sync.RWMutex
	enabled   bool

	frameMu   sync.Mutex
	lastFrame gocv.Mat
	haveFrame bool

	subsMu  sync.RWMutex
	subs    map[int]func(Snapshot)
	nextSub int

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped, disabled App.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, ErrNoCamera
	}
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}
	if config.Metrics == nil {
		config.Metrics = metrics.Default()
	}
	if config.Detector == nil {
		config.Detector = SelectDetector(detector.DefaultConfig())
	}

	a := &App{
		config:   config,
		camera:   config.Camera,
		detector: config.Detector,
		store:    config.Store,
		metrics:  config.Metrics,
		log:      logger.Named("app"),
		gate:     capture.NewGate(),
		subs:     make(map[int]func(Snapshot)),
	}

	hands, err := gesture.NewHands(config.Thresholds, config.Scene.Viewport.Mapper())
	if err != nil {
		return nil, err
	}
	a.hands = hands

	var sinks multiSink
	if config.Store != nil {
		sinks = append(sinks, strokeSink{strokes: config.Store.Strokes()})
	}
	if config.Hooks != nil {
		sinks = append(sinks, config.Hooks)
	}
	var opts []scene.Option
	if len(sinks) > 0 {
		opts = append(opts, scene.WithSink(sinks))
	}
	sc, err := scene.New(config.Scene, opts...)
	if err != nil {
		return nil, err
	}
	a.scene = sc
	a.latest = Snapshot{Hands: []gesture.HandState{}, Scene: sc.Snapshot()}
	return a, nil
}

// SelectDetector returns the MediaPipe detector when its service script can
// be found and the mock detector otherwise.
func SelectDetector(cfg detector.Config) detector.Detector {
	log := logger.Named("app")
	mp, err := detector.NewMediaPipeDetector(cfg)
	if err != nil {
		log.Warn(context.Background(), "mediapipe not available, using mock detector", logger.Error(err))
		return detector.NewMockDetector()
	}
	log.Info(context.Background(), "using mediapipe hand detection")
	return mp
}

// SetEnabled turns frame processing on or off. A disabled pipeline keeps
// ticking but reads nothing.
func (a *App) SetEnabled(enabled bool) {
	a.enabledMu.Lock()
	defer a.enabledMu.Unlock()
	a.enabled = enabled
}

// IsEnabled reports whether frames are being processed.
func (a *App) IsEnabled() bool {
	a.enabledMu.RLock()
	defer a.enabledMu.RUnlock()
	return a.enabled
}

// Start opens the camera, applies stored thresholds and launches the
// pipeline. The pipeline stops when ctx is cancelled or Stop is called.
// Starting a running App is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.cancel != nil {
		return nil
	}

	if a.store != nil {
		a.mu.RLock()
		base := a.hands.Thresholds()
		a.mu.RUnlock()
		th, err := a.store.Settings().LoadThresholds(ctx, base)
		if err != nil {
			a.log.Warn(ctx, "ignoring stored thresholds", logger.Error(err))
		} else if err := a.configure(th); err != nil {
			return err
		}
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(a.config.FPS)
	a.gate.Reset()

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.run(runCtx, a.done)

	a.log.Info(ctx, "pipeline started", logger.Int("fps", a.config.FPS))
	return nil
}

// Stop halts the pipeline and releases the camera and detector.
func (a *App) Stop() {
	a.runMu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.runMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	ctx := context.Background()
	if err := a.camera.Close(); err != nil {
		a.log.Error(ctx, "failed to close camera", logger.Error(err))
	}
	if err := a.detector.Close(); err != nil {
		a.log.Error(ctx, "failed to close detector", logger.Error(err))
	}

	a.frameMu.Lock()
	if a.haveFrame {
		_ = a.lastFrame.Close()
		a.haveFrame = false
	}
	a.frameMu.Unlock()

	a.log.Info(ctx, "pipeline stopped")
}

// Running reports whether the pipeline goroutine is active.
func (a *App) Running() bool {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.cancel != nil
}

// Thresholds returns the classifier settings in use.
func (a *App) Thresholds() gesture.Thresholds {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.hands.Thresholds()
}

// ApplyThresholds validates th, persists it when a store is configured and
// applies it to the live aggregator. Gesture counters are re-clamped, not
// reset.
func (a *App) ApplyThresholds(ctx context.Context, th gesture.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	if a.store != nil {
		if err := a.store.Settings().SaveThresholds(ctx, th); err != nil {
			return fmt.Errorf("save thresholds: %w", err)
		}
	}
	if err := a.configure(th); err != nil {
		return err
	}
	a.log.Info(ctx, "thresholds updated",
		logger.Float64("close_threshold", th.CloseThreshold),
		logger.Float64("far_threshold", th.FarThreshold),
		logger.Int("pinch_frames", th.PinchFrames),
		logger.Int("palm_frames", th.PalmFrames))
	return nil
}

func (a *App) configure(th gesture.Thresholds) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hands.Configure(th)
}

// Snapshot returns the state published for the most recent frame.
func (a *App) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snap := a.latest
	snap.Enabled = a.IsEnabled()
	return snap
}

// ClearTrail drops the live trail and draw cursor.
func (a *App) ClearTrail() {
	a.scene.Clear()
}

// Preview writes a PNG raster of the live trail.
func (a *App) Preview(w io.Writer, size image.Point) error {
	return a.scene.Preview(w, size)
}

// Scene exposes the drawing scene.
func (a *App) Scene() *scene.Scene { return a.scene }

// Gate exposes the frame gate, mostly for its counters.
func (a *App) Gate() *capture.Gate { return a.gate }

// LatestFrame returns a copy of the last frame read from the camera. The
// caller owns the returned Mat and must Close it.
func (a *App) LatestFrame() (gocv.Mat, bool) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	if !a.haveFrame || a.lastFrame.Empty() {
		return gocv.Mat{}, false
	}
	return a.lastFrame.Clone(), true
}

// Subscribe registers fn to receive every published snapshot. fn runs on
// the pipeline goroutine and must not block. The returned func removes the
// subscription.
func (a *App) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	a.subsMu.Lock()
	defer a.subsMu.Unlock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			a.subsMu.Lock()
			defer a.subsMu.Unlock()
			delete(a.subs, id)
		})
	}
}

func (a *App) publish(snap Snapshot) {
	a.subsMu.RLock()
	defer a.subsMu.RUnlock()
	for _, fn := range a.subs {
		fn(snap)
	}
}

// strokeSink persists completed strokes.
type strokeSink struct {
	strokes *store.StrokeRepository
}

func (s strokeSink) SaveStroke(ctx context.Context, st scene.Stroke) error {
	return s.strokes.Create(ctx, &store.Stroke{
		ID:        st.ID,
		StartedAt: st.StartedAt,
		EndedAt:   st.EndedAt,
		Points:    st.Points,
	})
}

// keepFrame remembers a copy of frame for the MJPEG stream.
func (a *App) keepFrame(frame *capture.Frame) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	if a.haveFrame {
		_ = a.lastFrame.Close()
	}
	a.lastFrame = frame.Mat.Clone()
	a.haveFrame = true
}

func msOf(d time.Duration) int64 { return int64(d / time.Millisecond) }

// multiSink hands each stroke to every sink and returns the first error.
type multiSink []scene.StrokeSink

func (m multiSink) SaveStroke(ctx context.Context, st scene.Stroke) error {
	var first error
	for _, sink := range m {
		if err := sink.SaveStroke(ctx, st); err != nil && first == nil {
			first = err
		}
	}
	return first
}
