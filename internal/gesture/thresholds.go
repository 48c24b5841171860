// Package gesture turns per-frame hand landmarks into debounced pinch and
// open-palm states and a stable drawing origin.
package gesture

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/airtrail/internal/tracking"
)

// Default classifier settings.
const (
	DefaultCloseThreshold  = 0.05
	DefaultFarThreshold    = 0.2
	DefaultPinchFrames     = 15
	DefaultPalmFrames      = 30
	DefaultFingerTolerance = 0.2
	DefaultPalmAreaRatio   = 0.7
	DefaultPointEasing     = tracking.Snap
)

// ErrInvalidThresholds wraps every Thresholds validation failure.
var ErrInvalidThresholds = errors.New("invalid gesture thresholds")

// Thresholds holds the numeric knobs of the classifier. Distances are in
// normalized model coordinates, angles in radians.
type Thresholds struct {
	// CloseThreshold is the tip distance below which a pinch gains evidence.
	CloseThreshold float64 `json:"close_threshold"`
	// FarThreshold is the tip distance at or above which the pinch counter resets.
	FarThreshold float64 `json:"far_threshold"`
	// PinchFrames is the hysteresis window N: the counter lives in [0, N].
	PinchFrames int `json:"pinch_frames"`
	// PalmFrames bounds the open-palm counter.
	PalmFrames int `json:"palm_frames"`
	// FingerTolerance is the largest bend allowed at any joint of an extended finger.
	FingerTolerance float64 `json:"finger_tolerance"`
	// PalmAreaRatio scales the minimum palm triangle area relative to palm height.
	PalmAreaRatio float64 `json:"palm_area_ratio"`
	// PointEasing is the tracker easing factor in (0, 1].
	PointEasing float64 `json:"point_easing"`
}

// DefaultThresholds returns the reference classifier settings.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CloseThreshold:  DefaultCloseThreshold,
		FarThreshold:    DefaultFarThreshold,
		PinchFrames:     DefaultPinchFrames,
		PalmFrames:      DefaultPalmFrames,
		FingerTolerance: DefaultFingerTolerance,
		PalmAreaRatio:   DefaultPalmAreaRatio,
		PointEasing:     DefaultPointEasing,
	}
}

// Validate reports the first inconsistent setting. Comparisons are written
// so that NaN fails them; infinities are rejected outright.
func (t Thresholds) Validate() error {
	switch {
	case !finite(t.CloseThreshold, t.FarThreshold, t.FingerTolerance, t.PalmAreaRatio):
		return fmt.Errorf("%w: threshold values must be finite", ErrInvalidThresholds)
	case !(t.CloseThreshold > 0):
		return fmt.Errorf("%w: close_threshold must be positive", ErrInvalidThresholds)
	case !(t.FarThreshold > t.CloseThreshold):
		return fmt.Errorf("%w: far_threshold must exceed close_threshold", ErrInvalidThresholds)
	case t.PinchFrames < 1:
		return fmt.Errorf("%w: pinch_frames must be at least 1", ErrInvalidThresholds)
	case t.PalmFrames < 1:
		return fmt.Errorf("%w: palm_frames must be at least 1", ErrInvalidThresholds)
	case !(t.FingerTolerance > 0):
		return fmt.Errorf("%w: finger_tolerance must be positive", ErrInvalidThresholds)
	case !(t.PalmAreaRatio > 0):
		return fmt.Errorf("%w: palm_area_ratio must be positive", ErrInvalidThresholds)
	}
	if err := tracking.ValidateFactor(t.PointEasing); err != nil {
		return fmt.Errorf("%w: point_easing: %w", ErrInvalidThresholds, err)
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
