package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestLoadCredentials(t *testing.T) {
	creds, err := loadCredentials("")
	if err != nil || creds != nil {
		t.Fatalf("empty path: %v %v", creds, err)
	}

	path := filepath.Join(t.TempDir(), "users.yaml")
	content := "alice:\n  tenant_id: t1\n  role: admin\n  secret_hash: abc\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	creds, err = loadCredentials(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if creds["alice"].TenantID != "t1" || creds["alice"].Role != "admin" {
		t.Fatalf("unexpected credentials %+v", creds)
	}

	if _, err := loadCredentials(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTokenHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	creds := map[string]credential{
		"alice": {TenantID: "t1", Role: "admin", SecretHash: string(hash)},
	}
	handler := tokenHandler([]byte("jwt-secret"), creds, time.Hour, nil)

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec
	}

	rec := send(`{"user_id":"alice","secret":"s3cret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token     string `json:"token"`
		TenantID  string `json:"tenant_id"`
		Role      string `json:"role"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" || resp.TenantID != "t1" || resp.Role != "admin" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.ExpiresIn != 3600 {
		t.Fatalf("expires_in %d", resp.ExpiresIn)
	}

	if rec := send(`{"user_id":"alice","secret":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad secret: %d", rec.Code)
	}
	if rec := send(`{"user_id":"ghost","secret":"s3cret"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: %d", rec.Code)
	}
	if rec := send(`not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body: %d", rec.Code)
	}
}
