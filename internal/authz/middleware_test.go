package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimsync/scrimsync/internal/discord"
)

func newGuardedRouter(f *engineFixture, principal *Principal) http.Handler {
	guard := Middleware{Engine: f.engine}
	r := chi.NewRouter()
	if principal != nil {
		p := *principal
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(ContextWithPrincipal(req.Context(), p)))
			})
		})
	}
	r.Route("/guilds/{guildID}", func(r chi.Router) {
		r.With(guard.RequireGuildAdmin("admin.league.manage")).Get("/leagues", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r
}

func TestRequireGuildAdminAllows(t *testing.T) {
	f := newEngineFixture()
	f.remote.summary = discord.PermissionSummary{IsMember: true, HasAdministrator: true}
	p := user()
	router := newGuardedRouter(f, &p)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guilds/guild-1/leagues", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, f.sink.all(), 1)
}

func TestRequireGuildAdminDeniesWithReason(t *testing.T) {
	f := newEngineFixture()
	f.tokens.token = ""
	p := user()
	router := newGuardedRouter(f, &p)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guilds/guild-1/leagues", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), ReasonNoAccessToken)
}

func TestRequireGuildAdminWithoutPrincipal(t *testing.T) {
	f := newEngineFixture()
	router := newGuardedRouter(f, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guilds/guild-1/leagues", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.sink.all())
}
