package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Duel/internal/session"
)

type SessionsHandler struct {
	manager *session.Manager
	logger  *slog.Logger
}

func NewSessionsHandler(m *session.Manager, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{manager: m, logger: logger}
}

type SetFilterRequest struct {
	MaxPriceTier *int `json:"max_price_tier"`
	// Refill redraws both slots under the new filter. Defaults to true.
	Refill *bool `json:"refill,omitempty"`
}

type SelectRequest struct {
	Slot *int `json:"slot"`
}

// Create accepts an empty body, in which case the pool comes from the
// catalogue around the configured origin.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Origin != nil {
		if req.Origin.Lat < -90 || req.Origin.Lat > 90 || req.Origin.Lng < -180 || req.Origin.Lng > 180 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "origin out of range"})
			return
		}
	}
	if req.RadiusKm != nil && *req.RadiusKm <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "radius_km must be positive"})
		return
	}
	if req.MaxPriceTier != nil && *req.MaxPriceTier < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "max_price_tier must not be negative"})
		return
	}

	v, err := h.manager.Create(r.Context(), req)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	v, err := h.manager.Get(id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := h.manager.Delete(id); err != nil {
		h.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) Refill(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	v, err := h.manager.Refill(id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *SessionsHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req SetFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MaxPriceTier != nil && *req.MaxPriceTier < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "max_price_tier must not be negative"})
		return
	}
	refill := true
	if req.Refill != nil {
		refill = *req.Refill
	}

	v, err := h.manager.SetFilter(id, req.MaxPriceTier, refill)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *SessionsHandler) Select(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Slot == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "slot required"})
		return
	}

	res, err := h.manager.Select(r.Context(), id, *req.Slot)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SessionsHandler) Selections(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	events, err := h.manager.Selections(r.Context(), id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *SessionsHandler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrInvalidSlot):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "slot must be 0 or 1"})
	case errors.Is(err, session.ErrTooManySessions):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("session request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return uuid.Nil, false
	}
	return id, true
}
