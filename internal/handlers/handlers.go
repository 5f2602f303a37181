package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/propernest/lettings/internal/domain"
	"github.com/propernest/lettings/internal/repository"
	"github.com/propernest/lettings/internal/service"
	"github.com/propernest/lettings/pkg/auth"
	"github.com/propernest/lettings/pkg/config"
	"github.com/propernest/lettings/pkg/logger"
)

type Handlers struct {
	authService         service.AuthService
	propertyService     service.PropertyService
	viewingService      service.ViewingService
	favoriteService     service.FavoriteService
	notificationService service.NotificationService
	sessionRepo         repository.SessionRepository
	config              *config.Config
}

func New(
	authService service.AuthService,
	propertyService service.PropertyService,
	viewingService service.ViewingService,
	favoriteService service.FavoriteService,
	notificationService service.NotificationService,
	sessionRepo repository.SessionRepository,
	config *config.Config,
) *Handlers {
	return &Handlers{
		authService:         authService,
		propertyService:     propertyService,
		viewingService:      viewingService,
		favoriteService:     favoriteService,
		notificationService: notificationService,
		sessionRepo:         sessionRepo,
		config:              config,
	}
}

type userContextKey struct{}

const accessCookie = "access_token"

// RequireAuth extracts the bearer credential (cookie wins over the
// Authorization header), verifies it and resolves the session snapshot.
// A valid token whose session is gone is not authenticated; the client
// must log in again.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Missing credentials", "UNAUTHORIZED")
			return
		}

		claims, err := auth.ParseSession(token, h.config.Auth.AccessSecret)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "Token expired", "TOKEN_EXPIRED")
				return
			}
			writeError(w, http.StatusUnauthorized, "Invalid token", "INVALID_TOKEN")
			return
		}

		user, err := h.sessionRepo.Find(r.Context(), claims.UserID)
		if err != nil {
			logger.ErrorContext(r.Context(), "Session lookup failed", "error", err, "user_id", claims.UserID)
			writeError(w, http.StatusServiceUnavailable, "Session store unavailable", "DEPENDENCY_UNAVAILABLE")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Session expired, please log in again", "SESSION_EXPIRED")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey{}, user)
		ctx = context.WithValue(ctx, logger.UserIDKey, strconv.FormatInt(user.ID, 10))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles gates a route to the given roles. It runs after
// RequireAuth.
func (h *Handlers) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := currentUser(r)
			if user == nil {
				writeError(w, http.StatusUnauthorized, "Missing credentials", "UNAUTHORIZED")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "Insufficient permissions", "FORBIDDEN")
		})
	}
}

func extractToken(r *http.Request) string {
	if c, err := r.Cookie(accessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func currentUser(r *http.Request) *domain.User {
	if user, ok := r.Context().Value(userContextKey{}).(*domain.User); ok {
		return user
	}
	return nil
}

// Envelope is the response shape for mutating operations.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeEnvelope(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, Envelope{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// writeServiceError maps domain sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "Token expired", "TOKEN_EXPIRED")
	case errors.Is(err, auth.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, "Invalid token", "INVALID_TOKEN")
	case errors.Is(err, domain.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "Session expired, please log in again", "SESSION_EXPIRED")
	case errors.Is(err, domain.ErrAccountLocked):
		writeError(w, http.StatusLocked, "Account temporarily locked after repeated failed logins", "ACCOUNT_LOCKED")
	case errors.Is(err, domain.ErrAccountSuspended):
		writeError(w, http.StatusForbidden, "Account suspended, contact support", "ACCOUNT_SUSPENDED")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, domain.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "A pending viewing request for this property already exists", "DUPLICATE_REQUEST")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, domain.ErrOwnerUnresolvable):
		writeError(w, http.StatusUnprocessableEntity, "Property owner could not be resolved", "OWNER_UNRESOLVABLE")
	case errors.Is(err, domain.ErrDependencyUnavailable):
		writeError(w, http.StatusServiceUnavailable, "A backing service is unavailable", "DEPENDENCY_UNAVAILABLE")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL")
	}
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
