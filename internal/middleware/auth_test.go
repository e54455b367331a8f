package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuthMiddleware(t *testing.T) {
	secret := []byte("test-secret")
	auth := NewAuthMiddleware(secret, nil, []string{"/healthz"})

	var gotUser, gotTenant, gotRole string
	handler := auth.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
		gotTenant = GetTenantID(r.Context())
		gotRole = GetRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, err := IssueToken(secret, "alice", "t1", "admin", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if gotUser != "alice" || gotTenant != "t1" || gotRole != "admin" {
		t.Fatalf("claims not propagated: %q %q %q", gotUser, gotTenant, gotRole)
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	secret := []byte("test-secret")
	auth := NewAuthMiddleware(secret, nil, nil)
	handler := auth.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(""); code != http.StatusUnauthorized {
		t.Fatalf("missing header: %d", code)
	}
	if code := send("Token abc"); code != http.StatusUnauthorized {
		t.Fatalf("bad scheme: %d", code)
	}
	if code := send("Bearer not-a-token"); code != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d", code)
	}

	// Token signed with a different secret.
	other, err := IssueToken([]byte("other"), "alice", "t1", "", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if code := send("Bearer " + other); code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: %d", code)
	}

	// Expired token.
	expired, err := IssueToken(secret, "alice", "t1", "", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if code := send("Bearer " + expired); code != http.StatusUnauthorized {
		t.Fatalf("expired: %d", code)
	}

	// Token without a tenant claim.
	noTenant, err := IssueToken(secret, "alice", "", "", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if code := send("Bearer " + noTenant); code != http.StatusUnauthorized {
		t.Fatalf("tenantless: %d", code)
	}
}

func TestAuthMiddlewareSkipPaths(t *testing.T) {
	auth := NewAuthMiddleware([]byte("s"), nil, []string{"/healthz"})
	handler := auth.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("skip path rejected: %d", rec.Code)
	}
}
