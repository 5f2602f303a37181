package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/propernest/lettings/internal/domain"
	"github.com/propernest/lettings/internal/handlers"
	"github.com/propernest/lettings/pkg/auth"
	"github.com/propernest/lettings/pkg/config"
)

// ---------- Mocks ----------

type mockSessionRepo struct {
	sessions map[int64]*domain.User
	lastFind int64
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[int64]*domain.User)}
}

func (m *mockSessionRepo) Save(_ context.Context, user *domain.User, _ time.Duration) error {
	m.sessions[user.ID] = user
	return nil
}

func (m *mockSessionRepo) Find(_ context.Context, userID int64) (*domain.User, error) {
	m.lastFind = userID
	return m.sessions[userID], nil
}

func (m *mockSessionRepo) Delete(_ context.Context, userID int64) error {
	delete(m.sessions, userID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			AccessSecret:    "test-access",
			RefreshSecret:   "test-refresh",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			SessionTTL:      time.Hour,
		},
	}
}

type gateFixture struct {
	h        *handlers.Handlers
	sessions *mockSessionRepo
	cfg      *config.Config
}

func newGateFixture() *gateFixture {
	sessions := newMockSessionRepo()
	cfg := testConfig()
	h := handlers.New(nil, nil, nil, nil, nil, sessions, cfg)
	return &gateFixture{h: h, sessions: sessions, cfg: cfg}
}

func okProbe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Code
}

func TestRequireAuthMissingCredentials(t *testing.T) {
	f := newGateFixture()

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()
	f.h.RequireAuth(okProbe()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", code)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	f := newGateFixture()

	token, err := auth.NewAccessToken(1, f.cfg.Auth.AccessSecret, -time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.h.RequireAuth(okProbe()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "TOKEN_EXPIRED" {
		t.Errorf("code = %q, want TOKEN_EXPIRED", code)
	}
}

// A valid token whose backing session is gone is not authenticated.
func TestRequireAuthRevokedSession(t *testing.T) {
	f := newGateFixture()

	token, err := auth.NewAccessToken(1, f.cfg.Auth.AccessSecret, time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.h.RequireAuth(okProbe()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "SESSION_EXPIRED" {
		t.Errorf("code = %q, want SESSION_EXPIRED", code)
	}
}

func TestRequireAuthLiveSession(t *testing.T) {
	f := newGateFixture()
	f.sessions.sessions[1] = &domain.User{ID: 1, Email: "ada@example.com", Role: domain.RoleUser}

	token, err := auth.NewAccessToken(1, f.cfg.Auth.AccessSecret, time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.h.RequireAuth(okProbe()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// The cookie credential wins when both a cookie and a header are
// present.
func TestRequireAuthCookiePrecedence(t *testing.T) {
	f := newGateFixture()
	f.sessions.sessions[1] = &domain.User{ID: 1, Email: "cookie@example.com", Role: domain.RoleUser}
	f.sessions.sessions[2] = &domain.User{ID: 2, Email: "header@example.com", Role: domain.RoleUser}

	cookieToken, err := auth.NewAccessToken(1, f.cfg.Auth.AccessSecret, time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	headerToken, err := auth.NewAccessToken(2, f.cfg.Auth.AccessSecret, time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+headerToken)
	rec := httptest.NewRecorder()
	f.h.RequireAuth(okProbe()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if f.sessions.lastFind != 1 {
		t.Errorf("session looked up for user %d, want 1 (cookie identity)", f.sessions.lastFind)
	}
}

func TestRequireRoles(t *testing.T) {
	f := newGateFixture()
	f.sessions.sessions[1] = &domain.User{ID: 1, Email: "ada@example.com", Role: domain.RoleUser}
	f.sessions.sessions[2] = &domain.User{ID: 2, Email: "lena@example.com", Role: domain.RoleLandlord}

	gate := f.h.RequireAuth(f.h.RequireRoles("landlord", "admin")(okProbe()))

	for userID, wantStatus := range map[int64]int{1: http.StatusForbidden, 2: http.StatusOK} {
		token, err := auth.NewAccessToken(userID, f.cfg.Auth.AccessSecret, time.Minute)
		if err != nil {
			t.Fatalf("NewAccessToken: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/properties", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, req)

		if rec.Code != wantStatus {
			t.Errorf("user %d: status = %d, want %d", userID, rec.Code, wantStatus)
		}
	}
}
