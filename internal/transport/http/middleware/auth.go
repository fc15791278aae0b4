package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/givingly/giveaway-api/internal/domain"
	jwtinfra "github.com/givingly/giveaway-api/internal/infrastructure/jwt"
)

type contextKey string

const CallerKey contextKey = "caller"

// Auth returns middleware that validates the Bearer JWT and injects the
// caller identity into context.
func Auth(provider *jwtinfra.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := provider.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			caller := domain.Caller{ID: claims.UserID, Role: claims.Role}
			ctx := context.WithValue(r.Context(), CallerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext extracts the authenticated caller from the request
// context. The zero Caller means the request was not authenticated.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	c, ok := ctx.Value(CallerKey).(domain.Caller)
	return c, ok
}
