package handlers

import (
	"net/http"
)

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notificationService.ListOwn(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

// ListAllNotifications is the admin view across every user.
func (h *Handlers) ListAllNotifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	notifications, err := h.notificationService.ListAll(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"limit":         limit,
		"offset":        offset,
	})
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notification id", "INVALID_INPUT")
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), currentUser(r), id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, "Notification marked as read", nil)
}
