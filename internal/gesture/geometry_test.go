package gesture

import (
	"math"
	"testing"

	"seehuhn.de/go/geom/vec"

	"github.com/ayusman/airtrail/internal/detector"
)

func TestTurnAngle(t *testing.T) {
	tests := []struct {
		name string
		u, v vec.Vec2
		want float64
	}{
		{"same heading", vec.Vec2{X: 1}, vec.Vec2{X: 2}, 0},
		{"right angle", vec.Vec2{X: 1}, vec.Vec2{Y: 1}, math.Pi / 2},
		{"reversal", vec.Vec2{X: 1}, vec.Vec2{X: -1}, math.Pi},
		{"across the branch cut", vec.Vec2{X: -1, Y: 0.01}, vec.Vec2{X: -1, Y: -0.01}, 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := turnAngle(tt.u, tt.v)
			if math.Abs(got-tt.want) > 1e-3 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
			if got < 0 || got > math.Pi {
				t.Errorf("angle %f outside [0, π]", got)
			}
		})
	}
}

func TestFingerExtended(t *testing.T) {
	collinear := [4]detector.Point3D{
		{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.4}, {X: 0.5, Y: 0.3}, {X: 0.5, Y: 0.2},
	}
	if !fingerExtended(collinear, DefaultFingerTolerance) {
		t.Error("collinear joints should be extended")
	}

	bent := [4]detector.Point3D{
		{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.4}, {X: 0.6, Y: 0.4}, {X: 0.7, Y: 0.4},
	}
	if fingerExtended(bent, DefaultFingerTolerance) {
		t.Error("a 90 degree bend should not be extended")
	}
}

func TestTriangleArea(t *testing.T) {
	a := detector.Point3D{X: 0, Y: 0}
	b := detector.Point3D{X: 1, Y: 0}
	c := detector.Point3D{X: 0, Y: 1}
	if got := triangleArea(a, b, c); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected 0.5, got %f", got)
	}
	if got := triangleArea(a, c, b); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected winding-independent area, got %f", got)
	}
}

func TestHandOpen_Presets(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name string
		hand detector.HandLandmarks
		want bool
	}{
		{"open palm", detector.OpenPalmLandmarks(), true},
		{"mirrored open palm", detector.Mirror(detector.OpenPalmLandmarks()), true},
		{"pinch", detector.PinchLandmarks(), false},
		{"fist", detector.FistLandmarks(), false},
		{"flat hand", flatHand(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handOpen(&tt.hand, th); got != tt.want {
				t.Errorf("expected open=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestPalmExtended_EdgeOn(t *testing.T) {
	hand := flatHand()
	// Collapse the index base onto the wrist-pinky line.
	hand.Points[detector.IndexMCP] = detector.Point3D{X: 0.35, Y: 0.9}
	if palmExtended(hand.Points, DefaultPalmAreaRatio) {
		t.Error("degenerate palm triangle should not count as extended")
	}
}
