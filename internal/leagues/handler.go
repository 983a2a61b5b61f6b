package leagues

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/scrimsync/scrimsync/internal/audit"
	"github.com/scrimsync/scrimsync/internal/authz"
	"github.com/scrimsync/scrimsync/internal/platform/httpx"
)

// Handler exposes league endpoints.
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

// MountRoutes registers league routes under /guilds/{guildID}/leagues.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{leagueID}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGuildAdmin("admin.league.manage"))
		r.Post("/", h.create)
		r.Put("/{leagueID}", h.update)
		r.Delete("/{leagueID}", h.archive)
	})
}

type leagueRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Game string `json:"game" validate:"max=100"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), chi.URLParam(r, "guildID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"leagues": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := leagueID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid league id")
		return
	}
	l, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, l)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req leagueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	l, err := h.service.Create(r.Context(), chi.URLParam(r, "guildID"), req.Name, req.Game)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordActivity(r, "league.create", l)
	httpx.JSON(w, http.StatusCreated, l)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := leagueID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid league id")
		return
	}
	var req leagueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	l, err := h.service.Rename(r.Context(), id, req.Name, req.Game)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordActivity(r, "league.update", l)
	httpx.JSON(w, http.StatusOK, l)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	id, err := leagueID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid league id")
		return
	}
	l, err := h.service.Archive(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordActivity(r, "league.archive", l)
	httpx.JSON(w, http.StatusOK, l)
}

func (h *Handler) recordActivity(r *http.Request, action string, l League) {
	if h.audits == nil {
		return
	}
	principal, _ := authz.PrincipalFromContext(r.Context())
	h.audits.RecordDetached(audit.Entry{
		ActorID:   principal.ID,
		ActorType: string(principal.Type),
		GuildID:   l.GuildID,
		EntityRef: strconv.FormatInt(l.ID, 10),
		Action:    action,
		Result:    "allowed",
		Meta:      map[string]any{"name": l.Name},
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "league not found")
	case errors.Is(err, ErrDuplicateName):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "league name already in use")
	default:
		h.logger.Error("league handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func leagueID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "leagueID"), 10, 64)
}
