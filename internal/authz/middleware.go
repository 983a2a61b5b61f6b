package authz

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/scrimsync/scrimsync/internal/platform/httpx"
)

// Middleware guards privileged guild routes with the decision engine.
type Middleware struct {
	Engine *Engine
	Logger *slog.Logger
}

// RequireGuildAdmin authorizes the request's principal against the guild
// named by the {guildID} route parameter before allowing the handler to
// run. The decision, allowed or denied, is audited by the engine.
func (m Middleware) RequireGuildAdmin(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			guildID := chi.URLParam(r, "guildID")

			meta := RequestMeta{
				IP:        r.RemoteAddr,
				UserAgent: r.UserAgent(),
				RequestID: chimw.GetReqID(r.Context()),
			}
			decision, err := m.Engine.Decide(r.Context(), principal, guildID, action, meta)
			if err != nil {
				// Contract violations are API misuse by this layer, not
				// authorization outcomes.
				if errors.Is(err, ErrMissingPrincipal) || errors.Is(err, ErrMissingGuild) {
					httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
					return
				}
				if m.Logger != nil {
					m.Logger.Error("authorization middleware", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !decision.Allowed() {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", decision.Reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
