package gesture

import (
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/ayusman/airtrail/internal/detector"
)

// planar drops the depth axis.
func planar(p detector.Point3D) vec.Vec2 {
	return vec.Vec2{X: p.X, Y: p.Y}
}

// planarDistance is the x/y distance between two landmarks.
func planarDistance(a, b detector.Point3D) float64 {
	return planar(b).Sub(planar(a)).Length()
}

// triangleArea is the unsigned area of the planar triangle abc.
func triangleArea(a, b, c detector.Point3D) float64 {
	ab := planar(b).Sub(planar(a))
	ac := planar(c).Sub(planar(a))
	return math.Abs(ab.X*ac.Y-ab.Y*ac.X) / 2
}

// turnAngle is the absolute change of heading from u to v, in [0, π].
func turnAngle(u, v vec.Vec2) float64 {
	d := math.Abs(math.Atan2(v.Y, v.X) - math.Atan2(u.Y, u.X))
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// fingerExtended reports whether no joint of the finger bends by more than
// tolerance. Collinear joints are always extended.
func fingerExtended(joints [4]detector.Point3D, tolerance float64) bool {
	var segments [3]vec.Vec2
	for i := range segments {
		segments[i] = planar(joints[i+1]).Sub(planar(joints[i]))
	}
	for i := 0; i < len(segments)-1; i++ {
		if turnAngle(segments[i], segments[i+1]) > tolerance {
			return false
		}
	}
	return true
}

// palmExtended compares the wrist/index-base/pinky-base triangle against the
// wrist-to-pinky span. A curled or edge-on palm collapses the triangle.
func palmExtended(points []detector.Point3D, ratio float64) bool {
	height := planarDistance(points[detector.Wrist], points[detector.PinkyMCP])
	area := triangleArea(points[detector.Wrist], points[detector.IndexMCP], points[detector.PinkyMCP])
	return area > ratio*0.5*(height*height/2)
}

// handOpen reports whether every non-thumb finger is straight and the palm
// is spread.
func handOpen(hand *detector.HandLandmarks, th Thresholds) bool {
	if !palmExtended(hand.Points, th.PalmAreaRatio) {
		return false
	}
	for _, base := range detector.Fingers {
		if !fingerExtended(hand.Finger(base), th.FingerTolerance) {
			return false
		}
	}
	return true
}
