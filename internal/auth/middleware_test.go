package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// echoUserID is the protected handler under test: it reports what identity
// the middleware placed in the context.
func echoUserID(t *testing.T, gotUserID *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := UserIDFromContext(r.Context())
		*gotUserID = id
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-123")

	var gotUserID string
	handler := RequireAuth(ts)(echoUserID(t, &gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "user-123" {
		t.Errorf("userID in context = %q, want %q", gotUserID, "user-123")
	}
}

func TestRequireAuth_Cookie(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-456")

	var gotUserID string
	handler := RequireAuth(ts)(echoUserID(t, &gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "user-456" {
		t.Errorf("userID in context = %q, want %q", gotUserID, "user-456")
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	ts := newTestTokenService(t)

	called := false
	handler := RequireAuth(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Error("protected handler ran without a token")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if !strings.Contains(rec.Body.String(), `"error":"unauthorized"`) {
		t.Errorf("body = %q, want the standard JSON error shape", rec.Body.String())
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	ts := newTestTokenService(t)

	handler := RequireAuth(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestOptionalAuth_AnonymousPasses(t *testing.T) {
	ts := newTestTokenService(t)

	var gotUserID string
	handler := OptionalAuth(ts)(echoUserID(t, &gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/habits/public", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for anonymous request", rec.Code)
	}
	if gotUserID != "" {
		t.Errorf("userID = %q, want empty for anonymous request", gotUserID)
	}
}

func TestOptionalAuth_IdentityWhenPresent(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-789")

	var gotUserID string
	handler := OptionalAuth(ts)(echoUserID(t, &gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/habits/public", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if gotUserID != "user-789" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-789")
	}
}
