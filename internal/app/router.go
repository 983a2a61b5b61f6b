package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/scrimsync/scrimsync/internal/audit/http"
	"github.com/scrimsync/scrimsync/internal/auth"
	guildshttp "github.com/scrimsync/scrimsync/internal/guilds/http"
	"github.com/scrimsync/scrimsync/internal/leagues"
	"github.com/scrimsync/scrimsync/internal/observability"
	"github.com/scrimsync/scrimsync/internal/players"
	"github.com/scrimsync/scrimsync/internal/tournaments"
	"github.com/scrimsync/scrimsync/internal/trackers"
	"github.com/scrimsync/scrimsync/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Auth               auth.Middleware
	SessionsHandler    *auth.Handler
	GuildsHandler      *guildshttp.Handler
	LeaguesHandler     *leagues.Handler
	PlayersHandler     *players.Handler
	TrackersHandler    *trackers.Handler
	TournamentsHandler *tournaments.Handler
	AuditHandler       *audithttp.Handler
	JobsHandler        *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with scrimsync defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Auth:    params.Auth,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.RequirePrincipal)

		if params.SessionsHandler != nil {
			r.Route("/sessions", params.SessionsHandler.MountRoutes)
		}

		r.Route("/guilds/{guildID}", func(r chi.Router) {
			if params.GuildsHandler != nil {
				r.Route("/settings", params.GuildsHandler.MountRoutes)
			}
			if params.AuditHandler != nil {
				r.Route("/audit", params.AuditHandler.MountRoutes)
			}
			if params.LeaguesHandler != nil {
				r.Route("/leagues", func(r chi.Router) {
					params.LeaguesHandler.MountRoutes(r)
					if params.TournamentsHandler != nil {
						r.Route("/{leagueID}/tournaments", params.TournamentsHandler.MountRoutes)
					}
				})
			}
			if params.PlayersHandler != nil {
				r.Route("/players", func(r chi.Router) {
					params.PlayersHandler.MountRoutes(r)
					if params.TrackersHandler != nil {
						r.Route("/{playerID}/trackers", params.TrackersHandler.MountRoutes)
					}
				})
			}
		})

		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}
