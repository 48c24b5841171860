package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airtrail/internal/app"
	"github.com/ayusman/airtrail/internal/gesture"
	"github.com/ayusman/airtrail/pkg/metrics"
)

// fakeEngine is an in-memory Engine.
type fakeEngine struct {
	mu       sync.Mutex
	snap     app.Snapshot
	th       gesture.Thresholds
	applyErr error
	cleared  int
	frame    *gocv.Mat
	subs     map[int]func(app.Snapshot)
	nextSub  int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		th:   gesture.DefaultThresholds(),
		subs: make(map[int]func(app.Snapshot)),
	}
}

func (f *fakeEngine) Snapshot() app.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeEngine) Thresholds() gesture.Thresholds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.th
}

func (f *fakeEngine) ApplyThresholds(_ context.Context, th gesture.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	f.th = th
	return nil
}

func (f *fakeEngine) ClearTrail() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeEngine) Preview(w io.Writer, size image.Point) error {
	img := image.NewRGBA(image.Rectangle{Max: size})
	img.Set(0, 0, color.White)
	return png.Encode(w, img)
}

func (f *fakeEngine) LatestFrame() (gocv.Mat, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frame == nil {
		return gocv.Mat{}, false
	}
	return f.frame.Clone(), true
}

func (f *fakeEngine) Subscribe(fn func(app.Snapshot)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeEngine) publish(s app.Snapshot) {
	f.mu.Lock()
	subs := make([]func(app.Snapshot), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

func newEngineServer(t *testing.T) (*Server, *fakeEngine, *metrics.Manager) {
	t.Helper()
	engine := newFakeEngine()
	m := metrics.NewManager()
	s := New(Config{Engine: engine, Metrics: m})
	t.Cleanup(s.Close)
	return s, engine, m
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_EngineRoutesNeedEngine(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/state", "/api/settings", "/api/trail.png", "/api/strokes"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>Hello, World!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	jsContent := "console.log('trail')"
	if err := os.WriteFile(filepath.Join(tmpDir, "app.js"), []byte(jsContent), 0o644); err != nil {
		t.Fatalf("failed to create test JS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"serves index.html at root path", "/", http.StatusOK, testContent},
		{"serves static files from configured directory", "/app.js", http.StatusOK, jsContent},
		{"returns 404 for non-existent static files", "/nonexistent.html", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, rec.Body.String())
			}
		})
	}

	t.Run("missing directory is ignored", func(t *testing.T) {
		s := New(Config{StaticDir: filepath.Join(tmpDir, "missing")})
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_State(t *testing.T) {
	s, engine, _ := newEngineServer(t)
	engine.snap = app.Snapshot{
		Enabled:     true,
		Frame:       42,
		TrailLength: 7,
		Hands:       []gesture.HandState{{Side: "right", Touching: true, PinchCounter: 15}},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got app.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Frame != 42 || got.TrailLength != 7 || !got.Enabled {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if len(got.Hands) != 1 || got.Hands[0].Side != "right" || got.Hands[0].PinchCounter != 15 {
		t.Errorf("unexpected hands: %+v", got.Hands)
	}
}

func TestServer_Settings(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		applyErr error
		status   int
		check    func(t *testing.T, th gesture.Thresholds)
	}{
		{
			name:   "partial update keeps other fields",
			body:   `{"pinch_frames": 8, "close_threshold": 0.04}`,
			status: http.StatusOK,
			check: func(t *testing.T, th gesture.Thresholds) {
				want := gesture.DefaultThresholds()
				want.PinchFrames = 8
				want.CloseThreshold = 0.04
				if th != want {
					t.Errorf("thresholds = %+v, want %+v", th, want)
				}
			},
		},
		{
			name:   "rejects inconsistent thresholds",
			body:   `{"far_threshold": 0.01}`,
			status: http.StatusBadRequest,
			check: func(t *testing.T, th gesture.Thresholds) {
				if th != gesture.DefaultThresholds() {
					t.Errorf("thresholds changed: %+v", th)
				}
			},
		},
		{
			name:   "rejects unknown fields",
			body:   `{"pinch_window": 3}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "rejects malformed JSON",
			body:   `{`,
			status: http.StatusBadRequest,
		},
		{
			name:     "storage failure",
			body:     `{"palm_frames": 10}`,
			applyErr: fmt.Errorf("disk full"),
			status:   http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, engine, _ := newEngineServer(t)
			engine.applyErr = tt.applyErr

			req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.check != nil {
				tt.check(t, engine.Thresholds())
			}
			if tt.status != http.StatusOK {
				var resp errorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Error == "" {
					t.Errorf("expected an error body, got %q", rec.Body.String())
				}
			}
		})
	}

	t.Run("GET returns the active thresholds", func(t *testing.T) {
		s, _, _ := newEngineServer(t)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

		var got gesture.Thresholds
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if got != gesture.DefaultThresholds() {
			t.Errorf("GET /api/settings = %+v", got)
		}
	})
}

func TestServer_ClearTrail(t *testing.T) {
	s, engine, _ := newEngineServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/trail/clear", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if engine.cleared != 1 {
		t.Errorf("ClearTrail called %d times, want 1", engine.cleared)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trail/clear", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestServer_TrailPreview(t *testing.T) {
	s, _, _ := newEngineServer(t)

	tests := []struct {
		name   string
		query  string
		status int
		size   image.Point
	}{
		{"default size", "", http.StatusOK, image.Pt(DefaultPreviewWidth, DefaultPreviewHeight)},
		{"custom size", "?w=200&h=100", http.StatusOK, image.Pt(200, 100)},
		{"zero width", "?w=0", http.StatusBadRequest, image.Point{}},
		{"too large", "?h=10000", http.StatusBadRequest, image.Point{}},
		{"not a number", "?w=wide", http.StatusBadRequest, image.Point{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trail.png"+tt.query, nil))

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.status != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("Content-Type = %q, want image/png", ct)
			}
			img, err := png.Decode(rec.Body)
			if err != nil {
				t.Fatalf("png.Decode: %v", err)
			}
			if img.Bounds().Size() != tt.size {
				t.Errorf("size = %v, want %v", img.Bounds().Size(), tt.size)
			}
		})
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	s, _, _ := newEngineServer(t)

	s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/state", nil))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`airtrail_http_requests_total{endpoint="health",method="GET",status_code="200"} 1`,
		`airtrail_http_requests_total{endpoint="state",method="GET",status_code="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestServer_Stream(t *testing.T) {
	s, engine, _ := newEngineServer(t)
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	engine.frame = &frame

	ts := httptest.NewServer(s)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("Content-Type = %q", ct)
	}

	buf := make([]byte, 64)
	if _, err := io.ReadFull(resp.Body, buf); err != nil {
		t.Fatalf("reading first part: %v", err)
	}
	if !strings.HasPrefix(string(buf), "--frame\r\nContent-Type: image/jpeg\r\n") {
		t.Errorf("unexpected part header %q", buf)
	}
}
