package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerInitWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter(&buf); err != nil {
		t.Fatalf("InitWriter() error = %v", err)
	}
	SetLevel(slog.LevelInfo)

	Get().Info(context.Background(), "frame processed", String("hand", "right"), Int("counter", 15))

	out := buf.String()
	for _, want := range []string{"frame processed", "hand=right", "counter=15", "source=", "logger_test.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter(&buf); err != nil {
		t.Fatalf("InitWriter() error = %v", err)
	}
	SetLevel(slog.LevelInfo)

	Named("pipeline").Warn(context.Background(), "malformed frame", Error(errors.New("boom")))

	out := buf.String()
	if !strings.Contains(out, "component=pipeline") {
		t.Errorf("output %q missing component", out)
	}
	if !strings.Contains(out, "error=boom") {
		t.Errorf("output %q missing error field", out)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter(&buf); err != nil {
		t.Fatalf("InitWriter() error = %v", err)
	}
	t.Cleanup(func() { SetLevel(slog.LevelInfo) })

	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("SetLevelString() error = %v", err)
	}
	Get().Info(context.Background(), "hidden")
	Get().Debug(context.Background(), "hidden too")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}

	Get().Error(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected error record, got %q", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{"", false},
		{" warning ", false},
		{"error", false},
		{"verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := SetLevelString(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetLevelString(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
	SetLevel(slog.LevelInfo)
}

func TestInitWriterNil(t *testing.T) {
	if err := InitWriter(nil); err == nil {
		t.Error("expected error for nil writer")
	}
}
