package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/veltasoft/worksuite/internal/middleware"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// credential describes one entry of the auth users file. SecretHash is a
// bcrypt hash of the shared secret.
type credential struct {
	TenantID   string `yaml:"tenant_id"`
	Role       string `yaml:"role"`
	SecretHash string `yaml:"secret_hash"`
}

// loadCredentials reads a YAML map of user ID to credential.
func loadCredentials(path string) (map[string]credential, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read auth users file: %w", err)
	}
	creds := map[string]credential{}
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse auth users file: %w", err)
	}
	return creds, nil
}

// tokenHandler exchanges a user ID and shared secret for a signed JWT.
func tokenHandler(secret []byte, creds map[string]credential, ttl time.Duration, log *logger.Logger) http.HandlerFunc {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
			Secret string `json:"secret"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		cred, ok := creds[req.UserID]
		if !ok {
			jsonError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(cred.SecretHash), []byte(req.Secret)); err != nil {
			log.WithField("user", req.UserID).Warn("token request with bad secret")
			jsonError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		token, err := middleware.IssueToken(secret, req.UserID, cred.TenantID, cred.Role, ttl)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to issue token")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":      token,
			"user_id":    req.UserID,
			"tenant_id":  cred.TenantID,
			"role":       cred.Role,
			"expires_in": int(ttl.Seconds()),
		})
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
