package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/propernest/lettings/internal/domain"
)

// AddProperty lists a new property owned by the caller.
func (h *Handlers) AddProperty(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	property, err := h.propertyService.Add(r.Context(), currentUser(r), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeEnvelope(w, http.StatusCreated, "Property listed", map[string]interface{}{"property": property})
}

// ListProperties is the public catalogue. Explicit pagination params
// bypass the cache; the bare listing is served whole from redis.
func (h *Handlers) ListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("limit") != "" || q.Get("offset") != "" {
		limit, offset := parsePagination(r)
		properties, err := h.propertyService.List(r.Context(), limit, offset)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"properties": properties,
			"limit":      limit,
			"offset":     offset,
		})
		return
	}

	properties, err := h.propertyService.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"properties": properties})
}

func (h *Handlers) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid property id", "INVALID_INPUT")
		return
	}

	property, err := h.propertyService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, property)
}

// ListOwnProperties returns the caller's listings.
func (h *Handlers) ListOwnProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.propertyService.ListByOwner(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"properties": properties})
}
