package server

import (
	"net/http"

	"github.com/ayusman/airtrail/internal/hook"
	"github.com/ayusman/airtrail/pkg/logger"
)

// hookHandler lists and rescans the hooks directory.
type hookHandler struct {
	manager *hook.Manager
	log     logger.Logger
}

type hookInfo struct {
	Name        string       `json:"name"`
	Version     string       `json:"version"`
	Description string       `json:"description"`
	Events      []hook.Event `json:"events"`
}

type hookListResponse struct {
	Dir   string     `json:"dir"`
	Hooks []hookInfo `json:"hooks"`
}

func (h *hookHandler) list(w http.ResponseWriter, _ *http.Request) {
	resp := hookListResponse{Dir: h.manager.Dir(), Hooks: []hookInfo{}}
	for _, hk := range h.manager.List() {
		resp.Hooks = append(resp.Hooks, hookInfo{
			Name:        hk.Manifest.Name,
			Version:     hk.Manifest.Version,
			Description: hk.Manifest.Description,
			Events:      hk.Manifest.Events,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// rescan handles POST /api/hooks/rescan and answers with the new list.
func (h *hookHandler) rescan(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Discover(); err != nil {
		h.log.Error(r.Context(), "failed to rescan hooks", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to rescan hooks")
		return
	}
	h.list(w, r)
}
