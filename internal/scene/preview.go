package scene

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"

	"github.com/ayusman/airtrail/internal/detector"
)

// DefaultLineWidth is the preview stroke width in output pixels.
const DefaultLineWidth = 3

// Rasterize draws the trail as seen after rotating it by angle degrees
// about the vertical axis, orthographically projected. Trail coordinates are
// relative to the canvas center; scale converts them to output pixels.
func Rasterize(trail []detector.Point3D, angle float64, size image.Point, scale, lineWidth float64) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	if len(trail) < 2 || size.X <= 0 || size.Y <= 0 {
		return dst
	}

	rad := angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	cx, cy := float64(size.X)/2, float64(size.Y)/2

	project := func(p detector.Point3D) (float64, float64) {
		x := p.X*cos + p.Z*sin
		return cx + x*scale, cy + p.Y*scale
	}

	z := vector.NewRasterizer(size.X, size.Y)
	half := lineWidth / 2
	x0, y0 := project(trail[0])
	for _, p := range trail[1:] {
		x1, y1 := project(p)
		addSegment(z, x0, y0, x1, y1, half)
		x0, y0 = x1, y1
	}
	z.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{})
	return dst
}

// addSegment adds a quad of half-width h around the segment, with square
// caps so consecutive segments join without gaps.
func addSegment(z *vector.Rasterizer, x0, y0, x1, y1, h float64) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		dx, dy, length = 1, 0, 1
	}
	ux, uy := dx/length*h, dy/length*h
	nx, ny := -uy, ux

	z.MoveTo(float32(x0-ux+nx), float32(y0-uy+ny))
	z.LineTo(float32(x1+ux+nx), float32(y1+uy+ny))
	z.LineTo(float32(x1+ux-nx), float32(y1+uy-ny))
	z.LineTo(float32(x0-ux-nx), float32(y0-uy-ny))
	z.ClosePath()
}

// Preview renders the live trail at the given output size, fitted to the
// canvas, and writes it as PNG.
func (s *Scene) Preview(w io.Writer, size image.Point) error {
	snap := s.Snapshot()
	scale := math.Min(float64(size.X)/snap.Viewport.Width, float64(size.Y)/snap.Viewport.Height)
	img := Rasterize(snap.Trail, snap.Angle, size, scale, DefaultLineWidth)
	return png.Encode(w, img)
}
