// Command svg-export is an airtrail hook that writes every completed stroke
// as an SVG file, seen from the front.
//
// Config:
//
//	{"out": "strokes", "stroke_width": 4, "color": "#ff5a1f"}
//
// A relative out directory is resolved against the hook directory.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ayusman/airtrail/internal/detector"
	"github.com/ayusman/airtrail/internal/hook"
)

type options struct {
	Out         string  `json:"out"`
	StrokeWidth float64 `json:"stroke_width"`
	Color       string  `json:"color"`
}

func defaultOptions() options {
	return options{Out: "strokes", StrokeWidth: 4, Color: "#ff5a1f"}
}

func main() {
	var req hook.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		reply(hook.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	path, err := export(req)
	if err != nil {
		reply(hook.Response{Error: err.Error()})
		return
	}
	data, _ := json.Marshal(map[string]string{"file": path})
	reply(hook.Response{Success: true, Data: data})
}

func export(req hook.Request) (string, error) {
	if req.Event != hook.StrokeCompleted || req.Stroke == nil {
		return "", fmt.Errorf("unsupported event: %s", req.Event)
	}
	opts := defaultOptions()
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &opts); err != nil {
			return "", fmt.Errorf("failed to parse config: %w", err)
		}
	}

	svg, err := render(req.Stroke.Points, opts)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(opts.Out, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(opts.Out, req.Stroke.ID+".svg")
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// render draws points as a single polyline fitted to their bounding box.
func render(points []detector.Point3D, opts options) (string, error) {
	if len(points) == 0 {
		return "", errors.New("stroke has no points")
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	pad := opts.StrokeWidth
	width := maxX - minX + 2*pad
	height := maxY - minY + 2*pad

	var coords strings.Builder
	for i, p := range points {
		if i > 0 {
			coords.WriteByte(' ')
		}
		fmt.Fprintf(&coords, "%.1f,%.1f", p.X-minX+pad, p.Y-minY+pad)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.1f %.1f">`, math.Ceil(width), math.Ceil(height), width, height)
	b.WriteByte('\n')
	fmt.Fprintf(&b, `  <polyline points="%s" fill="none" stroke="%s" stroke-width="%g" stroke-linecap="round" stroke-linejoin="round"/>`, coords.String(), opts.Color, opts.StrokeWidth)
	b.WriteString("\n</svg>\n")
	return b.String(), nil
}

func reply(resp hook.Response) {
	_ = json.NewEncoder(os.Stdout).Encode(resp)
}
