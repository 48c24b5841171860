// Package fixture builds synthetic camera frames and scripted detector
// output for pipeline tests.
package fixture

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/airtrail/internal/detector"
	"github.com/ayusman/airtrail/internal/gesture"
)

// Frames returns n solid frames of the given size. Each frame carries a
// different shade so that consecutive reads are distinguishable. The
// returned func closes them all.
func Frames(n, width, height int) ([]*gocv.Mat, func()) {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
		shade := float64((i * 40) % 256)
		gocv.Rectangle(&mat, image.Rect(0, 0, width, height), color.RGBA{R: uint8(shade), G: 32, B: 64, A: 255}, -1)
		frames = append(frames, &mat)
	}
	return frames, func() {
		for _, f := range frames {
			_ = f.Close()
		}
	}
}

// Repeat returns n detections of hands.
func Repeat(n int, hands ...detector.HandLandmarks) [][]detector.HandLandmarks {
	out := make([][]detector.HandLandmarks, n)
	for i := range out {
		out[i] = hands
	}
	return out
}

// Concat joins detection scripts.
func Concat(scripts ...[][]detector.HandLandmarks) [][]detector.HandLandmarks {
	var out [][]detector.HandLandmarks
	for _, s := range scripts {
		out = append(out, s...)
	}
	return out
}

// PinchStroke scripts a right hand that pinches long enough to draw points
// trail points, then closes into a fist. With default thresholds the
// stroke completes on the first fist frame.
func PinchStroke(points int) [][]detector.HandLandmarks {
	return Concat(
		Repeat(1),
		Repeat(gesture.DefaultPinchFrames-1+points, detector.PinchLandmarks()),
		Repeat(1, detector.FistLandmarks()),
	)
}

// OverlayToggle scripts a left hand holding its palm open until the speed
// overlay opens, then closing it.
func OverlayToggle() [][]detector.HandLandmarks {
	left := detector.Mirror(detector.OpenPalmLandmarks())
	return Concat(
		Repeat(gesture.DefaultPalmFrames, left),
		Repeat(gesture.DefaultPalmFrames, detector.Mirror(detector.FistLandmarks())),
	)
}
