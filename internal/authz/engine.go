package authz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scrimsync/scrimsync/internal/audit"
	"github.com/scrimsync/scrimsync/internal/discord"
	"github.com/scrimsync/scrimsync/internal/guilds"
)

// TokenSource yields a currently valid access token for a principal, or ""
// when none is stored.
type TokenSource interface {
	ValidAccessToken(ctx context.Context, userID string) (string, error)
}

// PermissionChecker reports a principal's live standing on a guild.
type PermissionChecker interface {
	CheckPermissions(ctx context.Context, accessToken, guildID string) (discord.PermissionSummary, error)
}

// EntityValidator confirms configured ids still exist upstream.
type EntityValidator interface {
	ValidateMany(ctx context.Context, guildID string, kind discord.EntityKind, candidates []string) (map[string]bool, error)
}

// SettingsSource resolves guild policy documents and membership snapshots.
type SettingsSource interface {
	Settings(ctx context.Context, guildID string) (guilds.GuildSettings, error)
	FindMembership(ctx context.Context, userID, guildID string) (*guilds.Membership, error)
}

// Sink receives the audit projection of every decision.
type Sink interface {
	RecordDetached(e audit.Entry)
}

// DecisionObserver is an optional metrics hook.
type DecisionObserver interface {
	ObserveDecision(result, reason string)
}

// Engine orchestrates token resolution, the remote permission check, policy
// evaluation and membership lookup into one allow/deny decision, and emits
// exactly one audit event per decision.
type Engine struct {
	tokens   TokenSource
	remote   PermissionChecker
	entities EntityValidator
	settings SettingsSource
	sink     Sink
	logger   *slog.Logger
	observer DecisionObserver
	timeout  time.Duration
}

// EngineConfig collects the engine's collaborators.
type EngineConfig struct {
	Tokens   TokenSource
	Remote   PermissionChecker
	Entities EntityValidator
	Settings SettingsSource
	Sink     Sink
	Logger   *slog.Logger
	Observer DecisionObserver

	// DecideTimeout bounds the whole decision sequence end to end. Each
	// remote call carries its own request timeout; this is the budget
	// across all of them.
	DecideTimeout time.Duration
}

// NewEngine constructs an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.DecideTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Engine{
		tokens:   cfg.Tokens,
		remote:   cfg.Remote,
		entities: cfg.Entities,
		settings: cfg.Settings,
		sink:     cfg.Sink,
		logger:   logger,
		observer: cfg.Observer,
		timeout:  timeout,
	}
}

// Decide runs the guild-admin authorization check for action on guildID.
//
// A missing principal or guild id is a contract violation: the error is
// returned to the caller and nothing is audited, so API misuse stays
// distinguishable from an access denial.
//
// Service principals bypass the check entirely and are not audited. This is
// a deliberate, reviewed trust boundary carried over from the bot's command
// pipeline: the service identity performs guild-scoped work on behalf of
// users whose own requests were already authorized.
//
// Every other outcome, allow or deny, is audited exactly once. Unexpected
// failures from any step are converted here, and only here, into a
// deny(error_checking_permissions): the engine fails closed while the audit
// recorder, by contrast, fails open.
func (e *Engine) Decide(ctx context.Context, p Principal, guildID, action string, meta RequestMeta) (Decision, error) {
	if p.Type == "" || (p.Type == PrincipalUser && p.ID == "") {
		return Decision{}, ErrMissingPrincipal
	}
	if guildID == "" {
		return Decision{}, ErrMissingGuild
	}

	if p.Type == PrincipalService {
		return Decision{
			Principal: p,
			GuildID:   guildID,
			Action:    action,
			Result:    Allowed,
			Reason:    ReasonServiceIdentity,
			At:        time.Now().UTC(),
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	decision, err := e.evaluate(ctx, p, guildID, action)
	if err != nil {
		e.logger.Error("authorization check failed",
			slog.String("principal", p.ID),
			slog.String("guild", guildID),
			slog.String("action", action),
			slog.Any("error", err))
		decision = e.deny(p, guildID, action, ReasonCheckError)
	}

	e.emit(decision, meta)
	return decision, nil
}

// evaluate walks the ordered, short-circuiting algorithm. Later steps are
// only reached when earlier steps produced no terminal result, so the
// sequence is strictly sequential. Unexpected errors propagate to Decide.
func (e *Engine) evaluate(ctx context.Context, p Principal, guildID, action string) (Decision, error) {
	token, err := e.tokens.ValidAccessToken(ctx, p.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("resolve access token: %w", err)
	}
	if token == "" {
		return e.deny(p, guildID, action, ReasonNoAccessToken), nil
	}

	summary, err := e.remote.CheckPermissions(ctx, token, guildID)
	if err != nil {
		return Decision{}, fmt.Errorf("remote permission check: %w", err)
	}
	// Remote membership is authoritative and fresher than any local
	// snapshot; non-membership terminates before local state is consulted.
	if !summary.IsMember {
		return e.deny(p, guildID, action, ReasonNotAMember), nil
	}
	if summary.HasAdministrator {
		return e.allow(p, guildID, action, ReasonNativeAdmin), nil
	}

	settings, err := e.settings.Settings(ctx, guildID)
	if err != nil {
		return Decision{}, fmt.Errorf("resolve guild settings: %w", err)
	}
	// Fail-open bootstrap: a freshly provisioned guild has no way to
	// designate an administrator, so any authenticated member may act
	// until admin roles are configured.
	if len(settings.AdminRoles) == 0 {
		return e.allow(p, guildID, action, ReasonNoRolesSet), nil
	}

	membership, err := e.settings.FindMembership(ctx, p.ID, guildID)
	if err != nil {
		return Decision{}, fmt.Errorf("resolve membership: %w", err)
	}
	// The remote check passed, so a missing snapshot is sync lag; treat it
	// conservatively.
	if membership == nil {
		return e.deny(p, guildID, action, ReasonNotAMember), nil
	}

	matched, ok := MatchAdminRole(membership.RoleIDs, settings.AdminRoles)
	if ok {
		ok = e.roleStillExists(ctx, guildID, matched)
	}
	if !ok {
		return e.deny(p, guildID, action, ReasonNoAdminAccess), nil
	}
	return e.allow(p, guildID, action, ReasonConfiguredRole), nil
}

// roleStillExists confirms a matched admin role has not been deleted
// upstream. Guilds delete roles without updating policy, so a stale match
// must be rejected. "Cannot confirm" counts as rejected.
func (e *Engine) roleStillExists(ctx context.Context, guildID, roleID string) bool {
	valid, err := e.entities.ValidateMany(ctx, guildID, discord.KindRole, []string{roleID})
	if err != nil {
		e.logger.Warn("role validation unavailable",
			slog.String("guild", guildID),
			slog.String("role", roleID),
			slog.Any("error", err))
		return false
	}
	return valid[roleID]
}

func (e *Engine) allow(p Principal, guildID, action, reason string) Decision {
	return Decision{Principal: p, GuildID: guildID, Action: action, Result: Allowed, Reason: reason, At: time.Now().UTC()}
}

func (e *Engine) deny(p Principal, guildID, action, reason string) Decision {
	return Decision{Principal: p, GuildID: guildID, Action: action, Result: Denied, Reason: reason, At: time.Now().UTC()}
}

func (e *Engine) emit(d Decision, meta RequestMeta) {
	if e.observer != nil {
		e.observer.ObserveDecision(string(d.Result), d.Reason)
	}
	if e.sink == nil {
		return
	}
	entryMeta := map[string]any{}
	if meta.IP != "" {
		entryMeta["ip"] = meta.IP
	}
	if meta.UserAgent != "" {
		entryMeta["user_agent"] = meta.UserAgent
	}
	if meta.RequestID != "" {
		entryMeta["request_id"] = meta.RequestID
	}
	e.sink.RecordDetached(audit.Entry{
		ActorID:   d.Principal.ID,
		ActorType: string(d.Principal.Type),
		GuildID:   d.GuildID,
		Action:    d.Action,
		Result:    string(d.Result),
		Reason:    d.Reason,
		Meta:      entryMeta,
	})
}
