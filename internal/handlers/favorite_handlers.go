package handlers

import (
	"net/http"
)

// ToggleFavorite adds or removes a property from the caller's
// favorites.
func (h *Handlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid property id", "INVALID_INPUT")
		return
	}

	result, err := h.favoriteService.Toggle(r.Context(), currentUser(r).ID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	msg := "Removed from favorites"
	if result.Added {
		msg = "Added to favorites"
	}

	writeEnvelope(w, http.StatusOK, msg, result)
}

func (h *Handlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.favoriteService.List(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"favorites": favorites})
}
