package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/propernest/lettings/internal/domain"
)

// CreateViewingRequest files a pending viewing request for a property.
func (h *Handlers) CreateViewingRequest(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateViewingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	request, err := h.viewingService.Create(r.Context(), currentUser(r), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeEnvelope(w, http.StatusCreated, "Viewing request sent to the landlord", map[string]interface{}{"request": request})
}

func (h *Handlers) AcceptViewingRequest(w http.ResponseWriter, r *http.Request) {
	h.decideViewingRequest(w, r, domain.DecisionAccepted)
}

func (h *Handlers) RejectViewingRequest(w http.ResponseWriter, r *http.Request) {
	h.decideViewingRequest(w, r, domain.DecisionRejected)
}

func (h *Handlers) decideViewingRequest(w http.ResponseWriter, r *http.Request, decision domain.Decision) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id", "INVALID_INPUT")
		return
	}

	var (
		record *domain.DecidedRequest
		msg    string
	)
	if decision == domain.DecisionAccepted {
		record, err = h.viewingService.Accept(r.Context(), currentUser(r), id)
		msg = "Viewing request accepted"
	} else {
		record, err = h.viewingService.Reject(r.Context(), currentUser(r), id)
		msg = "Viewing request rejected"
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, msg, map[string]interface{}{"request": record})
}

// WithdrawViewingRequest deletes the caller's own pending request.
func (h *Handlers) WithdrawViewingRequest(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id", "INVALID_INPUT")
		return
	}

	if err := h.viewingService.Withdraw(r.Context(), currentUser(r), id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, "Viewing request withdrawn", nil)
}

// ListOwnViewingRequests returns the caller's pending requests.
func (h *Handlers) ListOwnViewingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.viewingService.ListByRequester(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// ListPropertyViewingRequests returns the pending requests on one
// property, for its owner.
func (h *Handlers) ListPropertyViewingRequests(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid property id", "INVALID_INPUT")
		return
	}

	requests, err := h.viewingService.ListByProperty(r.Context(), currentUser(r), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// ListIncomingViewingRequests returns the pending requests across every
// property the caller owns.
func (h *Handlers) ListIncomingViewingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.viewingService.ListByOwner(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// ListDecidedViewingRequests returns the caller's decision history.
func (h *Handlers) ListDecidedViewingRequests(w http.ResponseWriter, r *http.Request) {
	records, err := h.viewingService.ListDecidedByOwner(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": records})
}
