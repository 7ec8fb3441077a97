// internal/api/middleware/auth.go
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/covergrid/pulse/internal/api/response"
	"github.com/covergrid/pulse/internal/auth"
	"github.com/covergrid/pulse/internal/core"
)

// APIKeyAuth returns middleware that validates the X-API-Key header.
// If apiKey is empty, authentication is disabled.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth if no key configured
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get("X-API-Key")
			if providedKey == "" {
				response.Error(w, http.StatusUnauthorized,
					core.WrapError(core.ErrTokenInvalid, nil))
				return
			}

			// Constant-time comparison to prevent timing attacks
			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
				response.Error(w, http.StatusUnauthorized,
					core.WrapError(core.ErrTokenInvalid, nil))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

const claimsKey contextKey = "claims"

// TokenVerifier validates a session token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// BearerAuth returns middleware that requires a valid Bearer token and
// stores the verified claims on the request context.
func BearerAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				response.Error(w, http.StatusUnauthorized,
					core.WrapError(core.ErrTokenInvalid, nil))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// ClaimsFrom returns the verified claims stored by BearerAuth.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}
