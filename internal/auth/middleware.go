package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/scrimsync/scrimsync/internal/authz"
	"github.com/scrimsync/scrimsync/internal/platform/httpx"
)

// Middleware resolves the acting principal from request credentials.
type Middleware struct {
	Sessions       *Sessions
	ServiceKeyHash []byte
	Logger         *slog.Logger
}

// Resolve attaches the principal to the request context when credentials
// are present. Requests without credentials pass through anonymously;
// RequirePrincipal gates the routes that need one.
func (m Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("X-Service-Key"); key != "" {
			if err := bcrypt.CompareHashAndPassword(m.ServiceKeyHash, []byte(key)); err != nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid service key")
				return
			}
			ctx := authz.ContextWithPrincipal(r.Context(), authz.Principal{Type: authz.PrincipalService, ID: "service"})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		userID, displayName, err := m.Sessions.Lookup(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "unknown session")
				return
			}
			if m.Logger != nil {
				m.Logger.Error("session lookup failed", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		ctx := authz.ContextWithPrincipal(r.Context(), authz.Principal{
			Type:        authz.PrincipalUser,
			ID:          userID,
			DisplayName: displayName,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePrincipal rejects requests that carry no resolved principal.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authz.PrincipalFromContext(r.Context()); !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
