// Package config defines airtrail configuration and how it is loaded.
//
// Values are layered: defaults from New, then an optional YAML file named by
// AIRTRAIL_CONFIG, then AIRTRAIL_* environment variables.
package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/airtrail/internal/capture"
	"github.com/ayusman/airtrail/internal/detector"
	"github.com/ayusman/airtrail/internal/gesture"
	"github.com/ayusman/airtrail/internal/scene"
	"github.com/ayusman/airtrail/internal/tracking"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. "127.0.0.1:7420".
	Addr string `koanf:"addr"`

	// DataDir holds the SQLite database and the web directory.
	DataDir string `koanf:"data_dir"`

	// CameraID selects the capture device.
	CameraID int `koanf:"camera_id"`

	// CameraWidth and CameraHeight are the mode requested from the device.
	CameraWidth  int `koanf:"camera_width"`
	CameraHeight int `koanf:"camera_height"`

	// DetectorScript overrides where the landmark service script is looked up.
	DetectorScript         string  `koanf:"detector_script"`
	NumHands               int     `koanf:"num_hands"`
	MinDetectionConfidence float64 `koanf:"min_detection_confidence"`
	MinTrackingConfidence  float64 `koanf:"min_tracking_confidence"`

	// FPS is the pipeline tick rate.
	FPS int `koanf:"fps"`

	// ReleaseFrames is the pinch hysteresis window.
	ReleaseFrames int `koanf:"release_frames"`

	// PalmFrames bounds the open-palm counter.
	PalmFrames int `koanf:"palm_frames"`

	CloseThreshold  float64 `koanf:"close_threshold"`
	FarThreshold    float64 `koanf:"far_threshold"`
	FingerTolerance float64 `koanf:"finger_tolerance"`
	PalmAreaRatio   float64 `koanf:"palm_area_ratio"`

	// PointEasing smooths landmark trackers; 1 follows the model exactly.
	PointEasing float64 `koanf:"point_easing"`

	// DrawEasing smooths the drawing cursor.
	DrawEasing float64 `koanf:"draw_easing"`

	SpeedDefault float64 `koanf:"speed_default"`
	SpeedMin     float64 `koanf:"speed_min"`
	SpeedMax     float64 `koanf:"speed_max"`
	SpeedEasing  float64 `koanf:"speed_easing"`

	CanvasWidth  int `koanf:"canvas_width"`
	CanvasHeight int `koanf:"canvas_height"`

	// MaxTrailPoints caps the live trail; 0 means unbounded.
	MaxTrailPoints int `koanf:"max_trail_points"`

	// Headless skips the system tray and runs until interrupted.
	Headless bool `koanf:"headless"`

	// HooksDir overrides where hooks are discovered. Empty means
	// <data_dir>/hooks.
	HooksDir string `koanf:"hooks_dir"`

	// HookTimeoutMs bounds a single hook run.
	HookTimeoutMs int `koanf:"hook_timeout_ms"`
}

// New creates a Config with defaults. Context is accepted first to follow
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	th := gesture.DefaultThresholds()
	sp := scene.DefaultSpeedSettings()
	dc := detector.DefaultConfig()
	return &Config{
		LogLevel:        "info",
		Addr:            "127.0.0.1:7420",
		DataDir:         defaultDataDir(),
		CameraID:        0,
		CameraWidth:     capture.DefaultWidth,
		CameraHeight:    capture.DefaultHeight,
		FPS:             30,

		NumHands:               dc.NumHands,
		MinDetectionConfidence: dc.MinConfidence,
		MinTrackingConfidence:  dc.MinTrackingConf,

		ReleaseFrames:   th.PinchFrames,
		PalmFrames:      th.PalmFrames,
		CloseThreshold:  th.CloseThreshold,
		FarThreshold:    th.FarThreshold,
		FingerTolerance: th.FingerTolerance,
		PalmAreaRatio:   th.PalmAreaRatio,
		PointEasing:     th.PointEasing,
		DrawEasing:      scene.DefaultDrawEasing,
		SpeedDefault:    sp.Default,
		SpeedMin:        sp.Min,
		SpeedMax:        sp.Max,
		SpeedEasing:     sp.Easing,
		CanvasWidth:     1280,
		CanvasHeight:    720,
		MaxTrailPoints:  scene.DefaultMaxTrailPoints,
		HookTimeoutMs:   5000,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".airtrail"
	}
	return filepath.Join(home, ".airtrail")
}

// Thresholds returns the classifier settings.
func (c *Config) Thresholds() gesture.Thresholds {
	return gesture.Thresholds{
		CloseThreshold:  c.CloseThreshold,
		FarThreshold:    c.FarThreshold,
		PinchFrames:     c.ReleaseFrames,
		PalmFrames:      c.PalmFrames,
		FingerTolerance: c.FingerTolerance,
		PalmAreaRatio:   c.PalmAreaRatio,
		PointEasing:     c.PointEasing,
	}
}

// Camera returns the capture device settings.
func (c *Config) Camera() capture.DeviceConfig {
	return capture.DeviceConfig{ID: c.CameraID, Width: c.CameraWidth, Height: c.CameraHeight, FPS: c.FPS}
}

// Detector returns the landmark service settings.
func (c *Config) Detector() detector.Config {
	return detector.Config{
		NumHands:        c.NumHands,
		MinConfidence:   c.MinDetectionConfidence,
		MinTrackingConf: c.MinTrackingConfidence,
		ScriptPath:      c.DetectorScript,
	}
}

// Scene returns the scene settings. The video size is filled in once the
// camera reports it.
func (c *Config) Scene(videoWidth, videoHeight int) scene.Config {
	return scene.Config{
		Viewport: scene.Viewport{
			Width:       float64(c.CanvasWidth),
			Height:      float64(c.CanvasHeight),
			VideoWidth:  float64(videoWidth),
			VideoHeight: float64(videoHeight),
		},
		Speed:          scene.NewSpeed(c.SpeedDefault, c.SpeedMin, c.SpeedMax, c.SpeedEasing),
		DrawEasing:     c.DrawEasing,
		MaxTrailPoints: c.MaxTrailPoints,
	}
}

// DBPath is the SQLite file inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "airtrail.db")
}

// WebDir is the static renderer directory inside DataDir.
func (c *Config) WebDir() string {
	return filepath.Join(c.DataDir, "web")
}

// HookDir is where hooks are discovered.
func (c *Config) HookDir() string {
	if c.HooksDir != "" {
		return c.HooksDir
	}
	return filepath.Join(c.DataDir, "hooks")
}

// HookTimeout is the per-run hook deadline.
func (c *Config) HookTimeout() time.Duration {
	return time.Duration(c.HookTimeoutMs) * time.Millisecond
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive", ErrInvalidConfig)
	}
	if c.CameraID < 0 {
		return fmt.Errorf("%w: camera_id must not be negative", ErrInvalidConfig)
	}
	if c.CameraWidth <= 0 || c.CameraHeight <= 0 {
		return fmt.Errorf("%w: camera size must be positive", ErrInvalidConfig)
	}
	if err := c.Detector().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := tracking.ValidateFactor(c.DrawEasing); err != nil {
		return fmt.Errorf("%w: draw_easing: %w", ErrInvalidConfig, err)
	}
	if err := tracking.ValidateFactor(c.SpeedEasing); err != nil {
		return fmt.Errorf("%w: speed_easing: %w", ErrInvalidConfig, err)
	}
	if math.IsInf(c.SpeedMin, 0) || math.IsInf(c.SpeedMax, 0) {
		return fmt.Errorf("%w: speed bounds must be finite", ErrInvalidConfig)
	}
	if !(c.SpeedMin <= c.SpeedMax) {
		return fmt.Errorf("%w: speed_min must not exceed speed_max", ErrInvalidConfig)
	}
	if !(c.SpeedDefault >= c.SpeedMin && c.SpeedDefault <= c.SpeedMax) {
		return fmt.Errorf("%w: speed_default must be within [speed_min, speed_max]", ErrInvalidConfig)
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("%w: canvas size must be positive", ErrInvalidConfig)
	}
	if c.MaxTrailPoints < 0 {
		return fmt.Errorf("%w: max_trail_points must not be negative", ErrInvalidConfig)
	}
	if c.HookTimeoutMs <= 0 {
		return fmt.Errorf("%w: hook_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
