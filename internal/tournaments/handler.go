package tournaments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scrimsync/scrimsync/internal/audit"
	"github.com/scrimsync/scrimsync/internal/authz"
	"github.com/scrimsync/scrimsync/internal/platform/httpx"
)

// Handler exposes tournament endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Middleware
	audits  *audit.Recorder
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware, audits *audit.Recorder) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, audits: audits}
}

// MountRoutes registers tournament routes under
// /guilds/{guildID}/leagues/{leagueID}/tournaments.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{tournamentID}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGuildAdmin("admin.tournament.manage"))
		r.Post("/", h.create)
		r.Post("/{tournamentID}/advance", h.advance)
	})
}

type createRequest struct {
	Name     string    `json:"name" validate:"required,max=100"`
	StartsAt time.Time `json:"starts_at"`
}

type advanceRequest struct {
	Status string `json:"status" validate:"required,oneof=open running completed"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	leagueID, err := strconv.ParseInt(chi.URLParam(r, "leagueID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid league id")
		return
	}
	items, err := h.service.ListByLeague(r.Context(), leagueID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tournaments": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid tournament id")
		return
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	leagueID, err := strconv.ParseInt(chi.URLParam(r, "leagueID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid league id")
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.Create(r.Context(), leagueID, chi.URLParam(r, "guildID"), req.Name, req.StartsAt)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordActivity(r, "tournament.create", t)
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid tournament id")
		return
	}
	var req advanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.Advance(r.Context(), id, Status(req.Status))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordActivity(r, "tournament.advance", t)
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) recordActivity(r *http.Request, action string, t Tournament) {
	if h.audits == nil {
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	h.audits.RecordDetached(audit.Entry{
		ActorID:   principal.ID,
		ActorType: string(principal.Type),
		GuildID:   t.GuildID,
		EntityRef: strconv.FormatInt(t.ID, 10),
		Action:    action,
		Result:    "allowed",
		Meta:      map[string]any{"name": t.Name, "status": string(t.Status)},
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "tournament not found")
	case errors.Is(err, ErrBadTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("tournament handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func tournamentID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "tournamentID"), 10, 64)
}
