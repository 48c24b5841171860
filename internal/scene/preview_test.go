package scene

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/ayusman/airtrail/internal/detector"
	"github.com/ayusman/airtrail/internal/gesture"
)

func TestRasterize_HorizontalLine(t *testing.T) {
	trail := []detector.Point3D{{X: -50}, {X: 50}}
	img := Rasterize(trail, 0, image.Pt(200, 200), 1, 3)

	if got := img.RGBAAt(100, 100); got.R != 255 {
		t.Errorf("expected line pixel to be white, got %+v", got)
	}
	if got := img.RGBAAt(5, 5); got.R != 0 || got.A != 255 {
		t.Errorf("expected opaque black background, got %+v", got)
	}
	if got := img.RGBAAt(100, 150); got.R != 0 {
		t.Errorf("expected pixel off the line to stay black, got %+v", got)
	}
}

func TestRasterize_RotationFoldsLine(t *testing.T) {
	trail := []detector.Point3D{{X: -50}, {X: 50}}
	img := Rasterize(trail, 90, image.Pt(200, 200), 1, 3)

	// Seen edge-on the line collapses toward the center.
	if got := img.RGBAAt(60, 100); got.R != 0 {
		t.Errorf("expected rotated line to leave x=60 empty, got %+v", got)
	}
}

func TestRasterize_Degenerate(t *testing.T) {
	img := Rasterize(nil, 0, image.Pt(10, 10), 1, 3)
	if img.Bounds().Dx() != 10 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
}

func TestScene_Preview(t *testing.T) {
	cfg := DefaultConfig()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	hands, _ := gesture.NewHands(gesture.DefaultThresholds(), cfg.Viewport.Mapper())
	for i := 0; i < gesture.DefaultPinchFrames+5; i++ {
		hands.Update([]detector.HandLandmarks{detector.PinchLandmarks()})
		s.Step(context.Background(), hands)
	}

	var buf bytes.Buffer
	if err := s.Preview(&buf, image.Pt(320, 180)); err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("preview is not a PNG: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 320, 180) {
		t.Errorf("unexpected preview bounds %v", img.Bounds())
	}
}
