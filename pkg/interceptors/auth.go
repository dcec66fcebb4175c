package interceptors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const apiKeyHeader = "X-API-Key"

var errMissingCredentials = errors.New("missing credentials")

// AuthConfig selects the accepted credentials. Auth is disabled when both are empty.
type AuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens.
	JWTSecret []byte
	// APIKeyHash is a bcrypt hash compared against the X-API-Key header.
	APIKeyHash []byte
}

// Enabled reports whether any credential is configured.
func (c AuthConfig) Enabled() bool {
	return len(c.JWTSecret) > 0 || len(c.APIKeyHash) > 0
}

// Auth requires a valid bearer token or API key.
func Auth(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := authenticate(cfg, r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="ledger"`)
				writeError(w, http.StatusUnauthorized, "authentication required or invalid credentials")
				return
			}
			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext returns the authenticated principal, or "".
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey).(string)
	return s
}

func authenticate(cfg AuthConfig, r *http.Request) (string, error) {
	if key := r.Header.Get(apiKeyHeader); key != "" && len(cfg.APIKeyHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(cfg.APIKeyHash, []byte(key)); err != nil {
			return "", err
		}
		return "api-key", nil
	}

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" || len(cfg.JWTSecret) == 0 {
		return "", errMissingCredentials
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return cfg.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errMissingCredentials
	}
	return claims.Subject, nil
}
