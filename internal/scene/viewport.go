// Package scene drives the rotating 3D trail from classified hand state: the
// pinch cursor of the right hand draws, the open left palm opens a speed
// overlay, and the whole line spins about the vertical axis.
package scene

import (
	"errors"
	"fmt"

	"github.com/ayusman/airtrail/internal/detector"
	"github.com/ayusman/airtrail/internal/gesture"
)

// ErrInvalidViewport is returned for non-positive canvas or video sizes.
var ErrInvalidViewport = errors.New("invalid viewport")

// Viewport relates the canvas to the camera image. The video is scaled to
// cover the canvas and shown mirrored.
type Viewport struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	VideoWidth  float64 `json:"video_width"`
	VideoHeight float64 `json:"video_height"`
}

// Validate checks every dimension is positive.
func (v Viewport) Validate() error {
	if v.Width <= 0 || v.Height <= 0 || v.VideoWidth <= 0 || v.VideoHeight <= 0 {
		return fmt.Errorf("%w: %gx%g canvas, %gx%g video",
			ErrInvalidViewport, v.Width, v.Height, v.VideoWidth, v.VideoHeight)
	}
	return nil
}

// Cover returns the size the video is drawn at. The longer canvas side is
// matched exactly and the other axis follows the video aspect.
func (v Viewport) Cover() (w, h float64) {
	if v.Width > v.Height {
		w = v.Width
	} else {
		w = v.Height / v.VideoHeight * v.VideoWidth
	}
	if v.Height > v.Width {
		h = v.Height
	} else {
		h = v.Width / v.VideoWidth * v.VideoHeight
	}
	return w, h
}

// Map projects a normalized landmark onto the canvas, mirroring x.
func (v Viewport) Map(p detector.Point3D) detector.Point3D {
	vw, vh := v.Cover()
	return detector.Point3D{
		X: v.Width - p.X*vw + (vw-v.Width)/2,
		Y: p.Y*vh - (vh-v.Height)/2,
		Z: p.Z,
	}
}

// Mapper adapts Map for the gesture aggregator.
func (v Viewport) Mapper() gesture.Mapper {
	return v.Map
}

// Center returns the canvas midpoint, the pivot of the trail.
func (v Viewport) Center() (x, y float64) {
	return v.Width / 2, v.Height / 2
}
