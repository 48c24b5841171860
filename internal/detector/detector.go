package detector

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// Detector is the landmark model collaborator. Implementations may be slow
// relative to the frame rate; callers only invoke Detect for frames whose
// presentation timestamp has advanced.
type Detector interface {
	// Detect returns zero or more hands found in frame. Each hand carries the
	// top-ranked handedness label only.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// ErrInvalidConfig wraps every Config validation failure.
var ErrInvalidConfig = errors.New("invalid detector config")

// Config tunes the landmark service.
type Config struct {
	// NumHands is the most hands the model reports. Airtrail tracks one
	// right and one left hand, so values above 2 only add noise.
	NumHands int

	// MinConfidence and MinTrackingConf are the model's detection and
	// tracking confidence floors, in [0, 1].
	MinConfidence   float64
	MinTrackingConf float64

	// ScriptPath overrides the lookup of the landmark service script.
	ScriptPath string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		NumHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if c.NumHands < 1 || c.NumHands > 2 {
		return fmt.Errorf("%w: num_hands must be 1 or 2, got %d", ErrInvalidConfig, c.NumHands)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("%w: detection confidence %v outside [0, 1]", ErrInvalidConfig, c.MinConfidence)
	}
	if c.MinTrackingConf < 0 || c.MinTrackingConf > 1 {
		return fmt.Errorf("%w: tracking confidence %v outside [0, 1]", ErrInvalidConfig, c.MinTrackingConf)
	}
	return nil
}
