package tray

import (
	"testing"

	"github.com/ayusman/airtrail/internal/app"
	"github.com/ayusman/airtrail/internal/gesture"
	"github.com/ayusman/airtrail/internal/scene"
)

func TestHandsLine(t *testing.T) {
	tests := []struct {
		name  string
		hands []gesture.HandState
		want  string
	}{
		{"no hands", nil, "No hands"},
		{"drawing", []gesture.HandState{{Side: "right", Touching: true}}, "Right: drawing"},
		{"palm open", []gesture.HandState{{Side: "left", PalmOpen: true, PalmCounter: 30}}, "Left: palm open"},
		{"palm building", []gesture.HandState{{Side: "left", PalmCounter: 12}}, "Left: palm 12"},
		{
			"both hands",
			[]gesture.HandState{{Side: "right"}, {Side: "left", PalmCounter: 3}},
			"Right: idle | Left: palm 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handsLine(tt.hands); got != tt.want {
				t.Errorf("handsLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSceneLine(t *testing.T) {
	snap := app.Snapshot{TrailLength: 120, Scene: scene.Snapshot{Speed: scene.DefaultSpeedSettings()}}
	if got, want := sceneLine(snap), "Speed 5 | 120 points"; got != want {
		t.Errorf("sceneLine() = %q, want %q", got, want)
	}

	snap.Scene.Overlay = true
	snap.Scene.Speed.Current = 23.6
	if got, want := sceneLine(snap), "Overlay open, speed 24 | 120 points"; got != want {
		t.Errorf("sceneLine() = %q, want %q", got, want)
	}
}

func TestTray_UpdateBeforeReady(t *testing.T) {
	tr := New(true)
	if !tr.IsEnabled() {
		t.Error("expected enabled")
	}

	tr.Update(app.Snapshot{
		TrailLength: 4,
		Hands:       []gesture.HandState{{Side: "right", Touching: true}},
		Scene:       scene.Snapshot{Speed: scene.DefaultSpeedSettings()},
	})

	hands, sc := tr.Readout()
	if hands != "Right: drawing" {
		t.Errorf("hands readout = %q", hands)
	}
	if sc != "Speed 5 | 4 points" {
		t.Errorf("scene readout = %q", sc)
	}
}

func TestTray_ToggleCallsBack(t *testing.T) {
	tr := New(true)
	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] || !got[1] {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("expected enabled after two toggles")
	}
}
