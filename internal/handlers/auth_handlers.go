package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/propernest/lettings/internal/domain"
)

const refreshCookie = "refresh_token"

// Register handles account creation. The activation token is returned
// in dev mode so the flow can be exercised without a mailbox.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	user, token, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	data := map[string]interface{}{"user": user}
	if h.config.Email.DevMode {
		data["dev_activation_token"] = token
	}

	writeEnvelope(w, http.StatusCreated, "Registration successful. Check your email for the activation code.", data)
}

// Activate verifies the 4-digit code against the activation token.
func (h *Handlers) Activate(w http.ResponseWriter, r *http.Request) {
	var req domain.ActivationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	user, err := h.authService.Activate(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, "Account activated", map[string]interface{}{"user": user})
}

func (h *Handlers) ResendActivation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required", "INVALID_INPUT")
		return
	}

	token, err := h.authService.ResendActivation(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var data map[string]interface{}
	if h.config.Email.DevMode && token != "" {
		data = map[string]interface{}{"dev_activation_token": token}
	}

	writeEnvelope(w, http.StatusOK, "If the account exists, a new activation code was sent.", data)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	response, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.setAuthCookies(w, response)
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := h.authService.Logout(r.Context(), user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	h.clearAuthCookies(w)
	writeEnvelope(w, http.StatusOK, "Logged out", nil)
}

// Refresh rotates the token pair. The refresh token comes from the
// cookie or the body, and only works while the session is alive.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(refreshCookie); err == nil && c.Value != "" {
		token = c.Value
	} else {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		writeError(w, http.StatusBadRequest, "Refresh token is required", "INVALID_INPUT")
		return
	}

	response, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.setAuthCookies(w, response)
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required", "INVALID_INPUT")
		return
	}

	token, err := h.authService.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var data map[string]interface{}
	if h.config.Email.DevMode && token != "" {
		data = map[string]interface{}{"dev_reset_token": token}
	}

	writeEnvelope(w, http.StatusOK, "If the account exists, a reset code was sent.", data)
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	if err := h.authService.ResetPassword(r.Context(), &req); err != nil {
		writeServiceError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, "Password updated, please log in again.", nil)
}

// Me returns the session snapshot resolved by RequireAuth. Role changes
// and password resets drop the session, so the snapshot cannot outlive
// the profile it mirrors.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r).ToUserInfo())
}

// Admin handlers

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	users, err := h.authService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	infos := make([]*domain.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].ToUserInfo())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":  infos,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handlers) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id", "INVALID_INPUT")
		return
	}
	req.UserID = id

	if err := h.authService.UpdateUserRole(r.Context(), &req); err != nil {
		writeServiceError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, "Role updated", nil)
}

func (h *Handlers) setAuthCookies(w http.ResponseWriter, response *domain.LoginResponse) {
	secure := h.config.Server.Env == "production"
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    response.AccessToken,
		Path:     "/",
		MaxAge:   int(h.config.Auth.AccessTokenTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    response.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.config.Auth.RefreshTokenTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
}
