package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"strconv"

	"github.com/ayusman/airtrail/internal/gesture"
	"github.com/ayusman/airtrail/pkg/logger"
)

// Preview raster bounds.
const (
	DefaultPreviewWidth  = 640
	DefaultPreviewHeight = 360
	MaxPreviewSide       = 4096
)

// maxSettingsBody bounds PUT /api/settings request bodies.
const maxSettingsBody = 1 << 16

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleState returns the snapshot of the last processed frame.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Engine.Snapshot())
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Engine.Thresholds())
}

// handlePutSettings accepts a full or partial set of thresholds. Omitted
// fields keep their current value.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	th := s.config.Engine.Thresholds()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&th); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := s.config.Engine.ApplyThresholds(r.Context(), th); err != nil {
		if errors.Is(err, gesture.ErrInvalidThresholds) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error(r.Context(), "failed to apply thresholds", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to apply settings")
		return
	}
	writeJSON(w, http.StatusOK, s.config.Engine.Thresholds())
}

func (s *Server) handleClearTrail(w http.ResponseWriter, _ *http.Request) {
	s.config.Engine.ClearTrail()
	w.WriteHeader(http.StatusNoContent)
}

// handlePreview renders the live trail as a PNG. Size comes from the
// optional w and h query parameters.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	width, err := sizeParam(r, "w", DefaultPreviewWidth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	height, err := sizeParam(r, "h", DefaultPreviewHeight)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := s.config.Engine.Preview(&buf, image.Pt(width, height)); err != nil {
		s.log.Error(r.Context(), "failed to render preview", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render preview")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

var errBadSize = errors.New("size must be an integer between 1 and 4096")

func sizeParam(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || v > MaxPreviewSide {
		return 0, errBadSize
	}
	return v, nil
}
