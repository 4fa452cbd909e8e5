package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Duel/internal/store"
)

// PlacesHandler administers the place catalogue sessions draw from.
type PlacesHandler struct {
	store store.Store
}

func NewPlacesHandler(s store.Store) *PlacesHandler {
	return &PlacesHandler{store: s}
}

func (h *PlacesHandler) available(w http.ResponseWriter) bool {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "place catalogue not configured"})
		return false
	}
	return true
}

func (h *PlacesHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	var p store.Place
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if p.ID == "" || p.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id and name required"})
		return
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "coordinates out of range"})
		return
	}
	if p.ReviewCount < 0 {
		p.ReviewCount = 0
	}

	if err := h.store.UpsertPlace(r.Context(), &p); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PlacesHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	var filter store.PlaceFilter
	q := r.URL.Query()
	if v := q.Get("max_price_level"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid max_price_level"})
			return
		}
		filter.MaxPriceLevel = &n
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	places, err := h.store.ListPlaces(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if places == nil {
		places = []*store.Place{}
	}
	writeJSON(w, http.StatusOK, places)
}

func (h *PlacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	p, err := h.store.GetPlace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "place not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PlacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	if err := h.store.DeletePlace(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
