package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Duel/internal/session"
	"github.com/MikeSquared-Agency/Duel/internal/store"
)

type AdminHandler struct {
	store   store.Store
	manager *session.Manager
}

func NewAdminHandler(s store.Store, m *session.Manager) *AdminHandler {
	return &AdminHandler{store: s, manager: m}
}

type StatsResponse struct {
	ActiveSessions int `json:"active_sessions"`
	*store.Stats
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{ActiveSessions: h.manager.Len(), Stats: &store.Stats{}}
	if h.store != nil {
		stats, err := h.store.GetStats(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		resp.Stats = stats
	}
	writeJSON(w, http.StatusOK, resp)
}
