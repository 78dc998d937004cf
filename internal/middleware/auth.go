// Package middleware provides HTTP middleware for authentication, request
// identity, and rate limiting.
package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"assignlens/internal/domain"
)

type subjectKey struct{}

// WithSubject stores the authenticated subject in the context.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFromContext extracts the authenticated subject from the context.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey{}).(string)
	return s, ok
}

// HashAPIKey returns the stored form of a raw API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Auth tries a JWT Bearer token first, then an X-API-Key lookup. Requests
// that pass carry the subject in their context; everything else gets 401.
func Auth(jwtSecret []byte, keys domain.APIKeyRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subject, ok := bearerSubject(jwtSecret, r); ok {
				next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
				return
			}

			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" && keys != nil {
				rec, err := keys.GetByHash(r.Context(), HashAPIKey(apiKey))
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), rec.Subject)))
					return
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code":    http.StatusUnauthorized,
				"message": "unauthorized: provide a valid JWT Bearer token or API key",
			})
		})
	}
}

// bearerSubject validates an HS256 Bearer token and returns its sub claim.
func bearerSubject(secret []byte, r *http.Request) (string, bool) {
	if len(secret) == 0 {
		return "", false
	}
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}

	token, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sub, ok := claims["sub"].(string)
	return sub, ok && sub != ""
}
