package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"
)

// DefaultStreamFPS is the MJPEG frame rate when none is configured.
const DefaultStreamFPS = 15

// FrameSource hands out copies of the most recent camera frame.
type FrameSource interface {
	LatestFrame() (gocv.Mat, bool)
}

// StreamHandler serves MJPEG frames from the pipeline's latest frame. It
// never reads the camera itself.
type StreamHandler struct {
	source   FrameSource
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler that sends at most fps frames
// per second.
func NewStreamHandler(source FrameSource, fps int) *StreamHandler {
	if fps <= 0 {
		fps = DefaultStreamFPS
	}
	return &StreamHandler{source: source, interval: time.Second / time.Duration(fps)}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		if err := h.writeFrame(w); err != nil {
			return
		}
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// writeFrame sends one multipart JPEG part. A missing frame is not an
// error; the stream simply waits for the pipeline.
func (h *StreamHandler) writeFrame(w http.ResponseWriter) error {
	mat, ok := h.source.LatestFrame()
	if !ok {
		return nil
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	mat.Close()
	if err != nil {
		return nil
	}
	defer buf.Close()

	data := buf.GetBytes()
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
