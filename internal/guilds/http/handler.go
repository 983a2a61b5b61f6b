// Package guildshttp exposes guild settings over HTTP.
package guildshttp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scrimsync/scrimsync/internal/audit"
	"github.com/scrimsync/scrimsync/internal/authz"
	"github.com/scrimsync/scrimsync/internal/discord"
	"github.com/scrimsync/scrimsync/internal/guilds"
	"github.com/scrimsync/scrimsync/internal/platform/httpx"
)

// Handler exposes guild settings endpoints.
type Handler struct {
	logger   *slog.Logger
	store    *guilds.Store
	entities *discord.EntityCache
	guard    authz.Middleware
	audits   *audit.Recorder
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, store *guilds.Store, entities *discord.EntityCache, guard authz.Middleware, audits *audit.Recorder) *Handler {
	return &Handler{logger: logger, store: store, entities: entities, guard: guard, audits: audits}
}

// MountRoutes registers settings routes under /guilds/{guildID}/settings.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGuildAdmin("admin.settings.manage"))
		r.Get("/", h.get)
		r.Put("/admin-roles", h.updateAdminRoles)
	})
}

type settingsResponse struct {
	GuildID    string             `json:"guild_id"`
	AdminRoles guilds.PolicyRoles `json:"admin_roles"`
}

type adminRolesRequest struct {
	Roles []guilds.PolicyRole `json:"roles" validate:"required,dive"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Settings(r.Context(), chi.URLParam(r, "guildID"))
	if err != nil {
		h.logger.Error("load guild settings", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, settingsResponse{GuildID: settings.GuildID, AdminRoles: settings.AdminRoles})
}

// updateAdminRoles replaces the admin-role policy. Submitted ids must exist
// on the guild right now; stale ids are rejected up front instead of being
// discovered later by the decision engine's validation leg.
func (h *Handler) updateAdminRoles(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	var req adminRolesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	ids := make([]string, 0, len(req.Roles))
	for _, role := range req.Roles {
		if role.ID == "" {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role id required")
			return
		}
		ids = append(ids, role.ID)
	}

	if len(ids) > 0 {
		valid, err := h.entities.ValidateMany(r.Context(), guildID, discord.KindRole, ids)
		if err != nil {
			h.logger.Error("validate admin roles", slog.String("guild", guildID), slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "could not validate roles")
			return
		}
		for _, id := range ids {
			if !valid[id] {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role "+id+" does not exist on guild")
				return
			}
		}
	}

	if err := h.store.UpdateAdminRoles(r.Context(), guildID, req.Roles); err != nil {
		if errors.Is(err, guilds.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "guild settings not found")
			return
		}
		h.logger.Error("update admin roles", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	if h.audits != nil {
		principal, _ := authz.PrincipalFromContext(r.Context())
		h.audits.RecordDetached(audit.Entry{
			ActorID:   principal.ID,
			ActorType: string(principal.Type),
			GuildID:   guildID,
			Action:    "admin.settings.roles_updated",
			Result:    "allowed",
			Meta:      map[string]any{"role_count": len(req.Roles)},
		})
	}
	httpx.JSON(w, http.StatusOK, settingsResponse{GuildID: guildID, AdminRoles: req.Roles})
}
