package players

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/scrimsync/scrimsync/internal/authz"
	"github.com/scrimsync/scrimsync/internal/platform/httpx"
)

// Handler exposes player endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers player routes under /guilds/{guildID}/players.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/discord/{discordUserID}", h.getByDiscordUser)
	r.Get("/{playerID}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGuildAdmin("admin.player.manage"))
		r.Post("/", h.register)
		r.Put("/{playerID}", h.rename)
		r.Delete("/{playerID}", h.remove)
	})
}

type registerRequest struct {
	DiscordUserID string `json:"discord_user_id" validate:"required"`
	DisplayName   string `json:"display_name" validate:"required,max=64"`
}

type renameRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=64"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), chi.URLParam(r, "guildID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"players": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid player id")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) getByDiscordUser(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.FindByDiscordUser(r.Context(),
		chi.URLParam(r, "guildID"), chi.URLParam(r, "discordUserID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Register(r.Context(), chi.URLParam(r, "guildID"), req.DiscordUserID, req.DisplayName)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid player id")
		return
	}
	var req renameRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Rename(r.Context(), id, req.DisplayName)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid player id")
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "player not found")
	case errors.Is(err, ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "player already registered")
	default:
		h.logger.Error("player handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func playerID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "playerID"), 10, 64)
}
