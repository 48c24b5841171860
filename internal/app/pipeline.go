package app

import (
	"context"
	"time"

	"github.com/ayusman/airtrail/internal/capture"
	"github.com/ayusman/airtrail/pkg/logger"
)

// run ticks at the configured frame rate until ctx is cancelled.
//
// Per tick:
//  1. Skip everything while disabled
//  2. Read a frame and keep a copy for the stream
//  3. Drop frames whose timestamp has not advanced
//  4. Detect landmarks
//  5. Feed the aggregator, then step the scene
//  6. Publish the snapshot and notify hooks
func (a *App) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

// tick handles one ticker beat.
func (a *App) tick(ctx context.Context) {
	if !a.IsEnabled() {
		return
	}

	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.metrics.RecordReadError()
		a.log.Debug(ctx, "failed to read frame", logger.Error(err))
		return
	}
	defer frame.Close()

	a.keepFrame(frame)

	if !a.gate.Fresh(frame.Timestamp) {
		a.metrics.RecordFrameStale()
		return
	}
	a.process(ctx, frame)
}

// process runs detection and the gesture and scene updates for one fresh
// frame. It reports whether a snapshot was published.
func (a *App) process(ctx context.Context, frame *capture.Frame) bool {
	a.fitViewport(ctx, frame.Width(), frame.Height())

	start := time.Now()
	detected, err := a.detector.Detect(frame.Mat)
	a.metrics.RecordDetectLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		a.metrics.RecordDetectError()
		a.log.Warn(ctx, "hand detection failed", logger.Error(err))
		return false
	}

	a.mu.Lock()
	res, err := a.hands.Update(detected)
	if err != nil {
		a.mu.Unlock()
		a.metrics.RecordFrameMalformed()
		a.log.Warn(ctx, "dropping frame", logger.Error(err), logger.Int("hands", len(detected)))
		return false
	}
	step := a.scene.Advance(a.hands)
	a.frames++
	snap := Snapshot{
		Enabled:     true,
		Frame:       a.frames,
		TimestampMs: msOf(frame.Timestamp),
		Hands:       a.hands.Snapshot(),
		Events:      res.Events,
		Scene:       a.scene.Snapshot(),
	}
	snap.TrailLength = len(snap.Scene.Trail)
	a.latest = snap
	a.mu.Unlock()

	// Sinks write to SQLite and may take a while; readers of the
	// snapshot must not wait on them.
	a.scene.Emit(ctx, step)

	a.metrics.RecordFrameProcessed()
	a.metrics.UpdateHandsTracked(res.Detected)
	a.metrics.UpdateTrailPoints(snap.TrailLength)
	for _, e := range res.Events {
		a.metrics.RecordGestureEvent(e.Side.String(), string(e.Kind))
		a.log.Debug(ctx, "gesture event", logger.String("side", e.Side.String()), logger.String("kind", string(e.Kind)))
		if a.config.Hooks != nil {
			a.config.Hooks.Gesture(ctx, e)
		}
	}
	if step.OverlayToggled {
		a.log.Debug(ctx, "speed overlay toggled", logger.Bool("open", snap.Scene.Overlay))
	}
	if step.Completed != nil {
		a.metrics.RecordStrokeCompleted()
		a.log.Info(ctx, "stroke completed",
			logger.String("stroke_id", step.Completed.ID),
			logger.Int("points", len(step.Completed.Points)))
	}

	a.publish(snap)
	return true
}

// fitViewport tracks the camera resolution so landmarks keep mapping onto
// the covered canvas.
func (a *App) fitViewport(ctx context.Context, width, height int) {
	vp := a.scene.Viewport()
	if vp.VideoWidth == float64(width) && vp.VideoHeight == float64(height) {
		return
	}
	vp.VideoWidth = float64(width)
	vp.VideoHeight = float64(height)
	if err := a.scene.SetViewport(vp); err != nil {
		a.log.Warn(ctx, "ignoring frame size", logger.Int("width", width), logger.Int("height", height), logger.Error(err))
		return
	}

	a.mu.Lock()
	a.hands.SetMapper(vp.Mapper())
	a.mu.Unlock()
	a.log.Info(ctx, "video size changed", logger.Int("width", width), logger.Int("height", height))
}
