package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/airtrail/internal/detector"
	"github.com/ayusman/airtrail/internal/hook"
	"github.com/ayusman/airtrail/internal/scene"
)

func TestRender(t *testing.T) {
	points := []detector.Point3D{{X: 10, Y: 20}, {X: 30, Y: 20, Z: 5}, {X: 30, Y: 60}}

	svg, err := render(points, options{StrokeWidth: 2, Color: "#000"})
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	for _, want := range []string{
		`width="24" height="44"`,
		`points="2.0,2.0 22.0,2.0 22.0,42.0"`,
		`stroke="#000"`,
		`stroke-width="2"`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %s:\n%s", want, svg)
		}
	}

	if _, err := render(nil, defaultOptions()); err == nil {
		t.Error("render() of an empty stroke should fail")
	}
}

func TestExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "svg")
	config, _ := json.Marshal(map[string]string{"out": out})

	path, err := export(hook.Request{
		Event:  hook.StrokeCompleted,
		Config: config,
		Stroke: &scene.Stroke{ID: "abc", Points: []detector.Point3D{{X: 0, Y: 0}, {X: 5, Y: 5}}},
	})
	if err != nil {
		t.Fatalf("export() error = %v", err)
	}
	if path != filepath.Join(out, "abc.svg") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "<svg") {
		t.Errorf("unexpected file content: %s", data)
	}

	if _, err := export(hook.Request{Event: hook.GestureChanged}); err == nil {
		t.Error("export() should reject gesture events")
	}
}
