package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scrimsync/scrimsync/internal/authz"
	"github.com/scrimsync/scrimsync/internal/platform/httpx"
)

// TokenWriter is the slice of the token store session issuance needs.
type TokenWriter interface {
	Upsert(ctx context.Context, userID, accessToken string, expiresAt time.Time) error
}

// Handler exposes session issuance and revocation. Issuance is restricted to
// the service identity: the bot completes the Discord OAuth flow on a user's
// behalf and exchanges the result here for a bearer session.
type Handler struct {
	logger   *slog.Logger
	sessions *Sessions
	tokens   TokenWriter
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, sessions *Sessions, tokens TokenWriter) *Handler {
	return &Handler{logger: logger, sessions: sessions, tokens: tokens}
}

// MountRoutes registers session routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Delete("/", h.revoke)
}

type createSessionRequest struct {
	UserID      string    `json:"user_id" validate:"required"`
	DisplayName string    `json:"display_name" validate:"max=64"`
	AccessToken string    `json:"access_token" validate:"required"`
	ExpiresAt   time.Time `json:"expires_at" validate:"required"`
}

type createSessionResponse struct {
	SessionToken string `json:"session_token"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, _ := authz.PrincipalFromContext(r.Context())
	if principal.Type != authz.PrincipalService {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "session issuance is service-only")
		return
	}

	var req createSessionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	if err := h.tokens.Upsert(r.Context(), req.UserID, req.AccessToken, req.ExpiresAt); err != nil {
		h.logger.Error("store access token", slog.String("user", req.UserID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	token, err := h.sessions.Create(r.Context(), req.UserID, req.DisplayName)
	if err != nil {
		h.logger.Error("create session", slog.String("user", req.UserID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, createSessionResponse{SessionToken: token})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "bearer token required")
		return
	}
	if err := h.sessions.Revoke(r.Context(), token); err != nil {
		h.logger.Error("revoke session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
