package scene

import (
	"math"

	"github.com/ayusman/airtrail/internal/tracking"
)

// Default rotation speed settings, in degrees per frame.
const (
	DefaultSpeed       = 5
	DefaultSpeedMin    = 0
	DefaultSpeedMax    = 50
	DefaultSpeedEasing = 0.2
)

// Speed is the eased rotation rate of the trail.
type Speed struct {
	Default float64 `json:"default"`
	Target  float64 `json:"target"`
	Current float64 `json:"current"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Easing  float64 `json:"easing"`
}

// NewSpeed returns a speed resting at def.
func NewSpeed(def, lo, hi, easing float64) Speed {
	return Speed{
		Default: def,
		Target:  def,
		Current: def,
		Min:     lo,
		Max:     hi,
		Easing:  easing,
	}
}

// DefaultSpeedSettings returns the reference rotation settings.
func DefaultSpeedSettings() Speed {
	return NewSpeed(DefaultSpeed, DefaultSpeedMin, DefaultSpeedMax, DefaultSpeedEasing)
}

// Ease moves Current one step toward Target.
func (s *Speed) Ease() {
	s.Current = tracking.Ease(s.Current, s.Target, s.Easing)
}

// SetTarget clamps and stores a new target.
func (s *Speed) SetTarget(v float64) {
	s.Target = tracking.Clamp(v, s.Min, s.Max)
}

// TargetFromX maps a screen x between the margins onto [Min, Max], rounded
// to a whole step.
func (s *Speed) TargetFromX(x, width, margin float64) {
	s.Target = math.Round(tracking.Map(x, margin, width-margin, s.Min, s.Max, true))
}

// Reset returns to the default speed.
func (s *Speed) Reset() {
	s.Target = s.Default
	s.Current = s.Default
}
