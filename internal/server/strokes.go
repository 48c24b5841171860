package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ayusman/airtrail/internal/store"
	"github.com/ayusman/airtrail/pkg/logger"
)

// Stroke listing bounds.
const (
	DefaultStrokeLimit = 50
	MaxStrokeLimit     = 500
)

// strokeHandler serves the stored stroke history.
type strokeHandler struct {
	repo *store.StrokeRepository
	log  logger.Logger
}

// strokeListResponse is the body of GET /api/strokes. Points are omitted.
type strokeListResponse struct {
	Strokes []*store.Stroke `json:"strokes"`
	Total   int             `json:"total"`
}

// list handles GET /api/strokes?limit=N, newest first.
func (h *strokeHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultStrokeLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxStrokeLimit {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 500")
			return
		}
		limit = v
	}

	strokes, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.log.Error(r.Context(), "failed to list strokes", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list strokes")
		return
	}
	total, err := h.repo.Count(r.Context())
	if err != nil {
		h.log.Error(r.Context(), "failed to count strokes", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list strokes")
		return
	}
	if strokes == nil {
		strokes = []*store.Stroke{}
	}
	writeJSON(w, http.StatusOK, strokeListResponse{Strokes: strokes, Total: total})
}

// get handles GET /api/strokes/{id} and includes the points.
func (h *strokeHandler) get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	stroke, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "stroke not found")
		return
	}
	if err != nil {
		h.log.Error(r.Context(), "failed to get stroke", logger.String("stroke_id", id), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get stroke")
		return
	}
	writeJSON(w, http.StatusOK, stroke)
}

// delete handles DELETE /api/strokes/{id}.
func (h *strokeHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.repo.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "stroke not found")
		return
	}
	if err != nil {
		h.log.Error(r.Context(), "failed to delete stroke", logger.String("stroke_id", id), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete stroke")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
