package httputil

import (
	"net/http"
	"strings"

	"github.com/bissquit/worknotes/internal/authz"
	"github.com/bissquit/worknotes/internal/pkg/ctxlog"
	"github.com/go-chi/cors"
)

// CORSMiddleware creates CORS middleware for the allowed origins.
// "*" allows any origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (authz.Identity, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// It returns an empty string when the header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware creates authentication middleware.
// A missing token and an invalid token are reported with different messages.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				Error(w, http.StatusUnauthorized, "token missing")
				return
			}

			id, err := verifier.Verify(token)
			if err != nil {
				ctxlog.FromContext(r.Context()).Debug("token rejected", "error", err)
				Error(w, http.StatusUnauthorized, "token invalid")
				return
			}

			ctx := authz.WithIdentity(r.Context(), id)
			ctx = ctxlog.With(ctx, "user_id", id.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
