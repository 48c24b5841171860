// Package tracking smooths noisy landmark positions frame by frame.
package tracking

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/airtrail/internal/detector"
)

// ErrInvalidEasing is returned for easing factors outside (0, 1].
var ErrInvalidEasing = errors.New("easing factor must be in (0, 1]")

// Snap is the easing factor that jumps straight to the target.
const Snap = 1.0

// ValidateFactor checks that e is a usable easing factor.
func ValidateFactor(e float64) error {
	if math.IsNaN(e) || e <= 0 || e > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidEasing, e)
	}
	return nil
}

// Ease moves current toward target by the fraction e. A factor of Snap
// returns target exactly.
func Ease(current, target, e float64) float64 {
	if e >= Snap {
		return target
	}
	return current + (target-current)*e
}

// EasePoint applies Ease to each axis independently.
func EasePoint(current, target detector.Point3D, e float64) detector.Point3D {
	return detector.Point3D{
		X: Ease(current.X, target.X, e),
		Y: Ease(current.Y, target.Y, e),
		Z: Ease(current.Z, target.Z, e),
	}
}

// Clamp limits v to [lo, hi]. The bounds may be given in either order.
func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// Map re-maps n from [start1, stop1] onto [start2, stop2]. With withinBounds
// the result is clamped to the output range.
func Map(n, start1, stop1, start2, stop2 float64, withinBounds bool) float64 {
	if start1 == stop1 {
		return start2
	}
	v := (n-start1)/(stop1-start1)*(stop2-start2) + start2
	if withinBounds {
		v = Clamp(v, start2, stop2)
	}
	return v
}
