package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/todmy/cinematch/internal/api/respond"
)

type contextKey string

// UserContextKey holds the *Claims of an authenticated request
const UserContextKey contextKey = "user"

// Middleware rejects requests without a valid bearer token
func Middleware(service Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromRequest(service, r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="cinematch"`)
				respond.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalMiddleware attaches claims when a valid token is present and
// lets anonymous requests through
func OptionalMiddleware(service Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, err := claimsFromRequest(service, r); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), UserContextKey, claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetUserFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	return claims, ok
}

func claimsFromRequest(service Service, r *http.Request) (*Claims, error) {
	token := extractToken(r)
	if token == "" {
		return nil, ErrInvalidToken
	}
	return service.ValidateToken(token)
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
