// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veltasoft/worksuite/pkg/logger"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	tenantIDKey contextKey = "tenant_id"
	roleKey     contextKey = "role"
)

// Claims are the JWT claims the suite issues. Every token is scoped to one
// tenant.
type Claims struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates bearer tokens and places the caller's identity
// in the request context.
type AuthMiddleware struct {
	secret    []byte
	log       *logger.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates an authentication middleware. Paths listed in
// skipPaths bypass authentication entirely.
func NewAuthMiddleware(secret []byte, log *logger.Logger, skipPaths []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{secret: secret, log: log, skipPaths: skip}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondUnauthorized(w, "missing Authorization header")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondUnauthorized(w, "invalid Authorization header format")
			return
		}

		claims, err := m.validateToken(parts[1])
		if err != nil {
			m.log.WithError(err).WithField("path", r.URL.Path).Warn("token validation failed")
			respondUnauthorized(w, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, tenantIDKey, claims.TenantID)
		if claims.Role != "" {
			ctx = context.WithValue(ctx, roleKey, claims.Role)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TenantID == "" {
		return nil, fmt.Errorf("token has no tenant")
	}
	return claims, nil
}

// IssueToken signs a token for the given identity. Used on login and by
// tests.
func IssueToken(secret []byte, userID, tenantID, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetUserID extracts the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// GetTenantID extracts the authenticated tenant ID from the context.
func GetTenantID(ctx context.Context) string {
	v, _ := ctx.Value(tenantIDKey).(string)
	return v
}

// GetRole extracts the authenticated role from the context.
func GetRole(ctx context.Context) string {
	v, _ := ctx.Value(roleKey).(string)
	return v
}
