package scene

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/airtrail/internal/detector"
	"github.com/ayusman/airtrail/internal/gesture"
	"github.com/ayusman/airtrail/internal/tracking"
	"github.com/ayusman/airtrail/pkg/logger"
)

// Scene defaults.
const (
	DefaultDrawEasing     = 0.5
	DefaultMaxTrailPoints = 5000
	// OverlayMargin is the dead band at each screen edge when the left wrist
	// picks a speed.
	OverlayMargin = 100
)

// ErrInvalidConfig wraps every Config validation failure.
var ErrInvalidConfig = errors.New("invalid scene config")

// Stroke is one finished line: every point appended between a pinch and
// its release.
type Stroke struct {
	ID        string             `json:"id"`
	Points    []detector.Point3D `json:"points"`
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at"`
}

// StrokeSink receives strokes as they are completed.
type StrokeSink interface {
	SaveStroke(ctx context.Context, s Stroke) error
}

// Config holds the scene settings.
type Config struct {
	Viewport       Viewport
	Speed          Speed
	DrawEasing     float64
	MaxTrailPoints int
}

// DefaultConfig returns settings for a 1280x720 canvas over a 640x480 camera.
func DefaultConfig() Config {
	return Config{
		Viewport:       Viewport{Width: 1280, Height: 720, VideoWidth: 640, VideoHeight: 480},
		Speed:          DefaultSpeedSettings(),
		DrawEasing:     DefaultDrawEasing,
		MaxTrailPoints: DefaultMaxTrailPoints,
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if err := c.Viewport.Validate(); err != nil {
		return err
	}
	if math.IsInf(c.Speed.Min, 0) || math.IsInf(c.Speed.Max, 0) || !(c.Speed.Min <= c.Speed.Max) {
		return fmt.Errorf("%w: speed min %g above max %g", ErrInvalidConfig, c.Speed.Min, c.Speed.Max)
	}
	if err := tracking.ValidateFactor(c.Speed.Easing); err != nil {
		return fmt.Errorf("%w: speed easing: %w", ErrInvalidConfig, err)
	}
	if err := tracking.ValidateFactor(c.DrawEasing); err != nil {
		return fmt.Errorf("%w: draw easing: %w", ErrInvalidConfig, err)
	}
	if c.MaxTrailPoints < 0 {
		return fmt.Errorf("%w: max trail points must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Option configures a Scene.
type Option func(*Scene)

// WithSink sets where completed strokes go.
func WithSink(sink StrokeSink) Option {
	return func(s *Scene) { s.sink = sink }
}

// WithLogger overrides the scene logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scene) { s.log = l }
}

// WithClock overrides the time source used to stamp strokes.
func WithClock(now func() time.Time) Option {
	return func(s *Scene) { s.now = now }
}

// StepResult reports what changed during one Step.
type StepResult struct {
	OverlayToggled bool
	Drew           bool
	Completed      *Stroke
}

// Snapshot is a copy of the scene for renderers.
type Snapshot struct {
	Overlay        bool               `json:"overlay"`
	Speed          Speed              `json:"speed"`
	Angle          float64            `json:"angle"`
	Cursor         *detector.Point3D  `json:"cursor"`
	Trail          []detector.Point3D `json:"trail"`
	StrokeComplete bool               `json:"stroke_complete"`
	Viewport       Viewport           `json:"viewport"`
}

// Scene is safe for concurrent use. Step is expected from one goroutine;
// Snapshot, Clear and the preview may be called from anywhere.
type Scene struct {
	mu       sync.RWMutex
	cfg      Config
	speed    Speed
	angle    float64
	overlay  bool
	trail    []detector.Point3D
	cursor   *detector.Point3D
	complete bool
	started  time.Time

	sink StrokeSink
	log  logger.Logger
	now  func() time.Time
}

// New creates a scene with an empty trail.
func New(cfg Config, opts ...Option) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scene{
		cfg:   cfg,
		speed: cfg.Speed,
		log:   logger.Get().Named("scene"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Viewport returns the current canvas geometry.
func (s *Scene) Viewport() Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Viewport
}

// SetViewport changes the canvas geometry for subsequent frames.
func (s *Scene) SetViewport(v Viewport) error {
	if err := v.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Viewport = v
	return nil
}

// Step advances the scene by one frame using the latest hand state and
// hands a completed stroke to the sink.
func (s *Scene) Step(ctx context.Context, hands *gesture.Hands) StepResult {
	res := s.Advance(hands)
	s.Emit(ctx, res)
	return res
}

// Advance updates the overlay, angle and trail for one frame without
// touching the sink. Callers that hold their own locks around hands call
// Emit once those are released.
func (s *Scene) Advance(hands *gesture.Hands) StepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res StepResult

	left := hands.Hand(gesture.Left)
	right := hands.Hand(gesture.Right)

	switch {
	case !s.overlay && left != nil && left.PalmOpen():
		s.overlay = true
		res.OverlayToggled = true
	case s.overlay && (left == nil || left.PalmClosed()):
		s.overlay = false
		res.OverlayToggled = true
	}

	if s.overlay && left != nil {
		wrist := left.Point(detector.Wrist)
		s.speed.TargetFromX(wrist.X, s.cfg.Viewport.Width, OverlayMargin)
	}

	s.angle = math.Mod(s.angle+s.speed.Current, 360)

	var origin *detector.Point3D
	if right != nil {
		origin = right.Origin()
	}

	switch {
	case origin != nil && !s.overlay:
		if s.complete {
			s.resetTrail()
		}
		s.drawTo(*origin)
		res.Drew = true
	case left != nil || right != nil:
		wasComplete := s.complete
		s.complete = len(s.trail) > 0
		if s.complete && !wasComplete {
			stroke := s.stroke()
			res.Completed = &stroke
		}
	}

	s.speed.Ease()
	return res
}

// Emit passes the stroke completed in res, if any, to the sink. Sink
// errors are logged.
func (s *Scene) Emit(ctx context.Context, res StepResult) {
	if res.Completed == nil {
		return
	}
	s.mu.RLock()
	sink := s.sink
	s.mu.RUnlock()
	if sink == nil {
		return
	}
	if err := sink.SaveStroke(ctx, *res.Completed); err != nil {
		s.log.Error(ctx, "failed to save stroke",
			logger.String("stroke_id", res.Completed.ID),
			logger.Error(err))
	}
}

// drawTo eases the cursor toward target and appends the rotated point.
// Called with the lock held.
func (s *Scene) drawTo(target detector.Point3D) {
	if s.cursor == nil {
		c := target
		s.cursor = &c
		s.started = s.now()
	} else {
		*s.cursor = tracking.EasePoint(*s.cursor, target, s.cfg.DrawEasing)
	}

	cx, cy := s.cfg.Viewport.Center()
	rad := s.angle * math.Pi / 180
	dx := s.cursor.X - cx
	s.trail = append(s.trail, detector.Point3D{
		X: dx * math.Cos(rad),
		Y: s.cursor.Y - cy,
		Z: dx * math.Sin(rad),
	})

	if limit := s.cfg.MaxTrailPoints; limit > 0 && len(s.trail) > limit {
		s.trail = append(s.trail[:0], s.trail[len(s.trail)-limit:]...)
	}
}

// stroke copies the current trail. Called with the lock held.
func (s *Scene) stroke() Stroke {
	points := make([]detector.Point3D, len(s.trail))
	copy(points, s.trail)
	return Stroke{
		ID:        uuid.NewString(),
		Points:    points,
		StartedAt: s.started,
		EndedAt:   s.now(),
	}
}

func (s *Scene) resetTrail() {
	s.trail = nil
	s.cursor = nil
	s.complete = false
}

// Clear drops the trail and the draw cursor.
func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetTrail()
}

// SetSink replaces the stroke sink.
func (s *Scene) SetSink(sink StrokeSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// Angle returns the rotation in degrees.
func (s *Scene) Angle() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.angle
}

// Overlay reports whether the speed overlay is open.
func (s *Scene) Overlay() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlay
}

// Speed returns the rotation speed state.
func (s *Scene) Speed() Speed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.speed
}

// Trail returns a copy of the trail points.
func (s *Scene) Trail() []detector.Point3D {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]detector.Point3D, len(s.trail))
	copy(out, s.trail)
	return out
}

// Snapshot copies the renderer-visible state.
func (s *Scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Overlay:        s.overlay,
		Speed:          s.speed,
		Angle:          s.angle,
		Trail:          make([]detector.Point3D, len(s.trail)),
		StrokeComplete: s.complete,
		Viewport:       s.cfg.Viewport,
	}
	copy(snap.Trail, s.trail)
	if s.cursor != nil {
		c := *s.cursor
		snap.Cursor = &c
	}
	return snap
}
