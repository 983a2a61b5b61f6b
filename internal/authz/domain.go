// Package authz decides whether a principal may perform a privileged
// operation on a guild, reconciling the live Discord permission model, the
// locally synced membership snapshot and the guild's own admin-role policy
// into a single audited allow/deny.
package authz

import (
	"errors"
	"time"
)

// PrincipalType distinguishes human identities from trusted services.
type PrincipalType string

const (
	// PrincipalUser is a human identity federated through Discord OAuth.
	PrincipalUser PrincipalType = "user"
	// PrincipalService is a trusted service identity (the bot itself).
	PrincipalService PrincipalType = "service"
)

// Principal is the authenticated actor a decision is made for.
type Principal struct {
	Type        PrincipalType
	ID          string
	DisplayName string
}

// Result is the outcome of a decision.
type Result string

const (
	// Allowed grants the guarded operation.
	Allowed Result = "allowed"
	// Denied refuses the guarded operation.
	Denied Result = "denied"
)

// Reason codes attached to every decision. The set is closed; audit rows
// and metrics key on these values.
const (
	ReasonNoAccessToken   = "no_access_token"
	ReasonNotAMember      = "not_a_member"
	ReasonNativeAdmin     = "native_administrator_permission"
	ReasonNoRolesSet      = "no_admin_roles_configured"
	ReasonConfiguredRole  = "configured_admin_role"
	ReasonNoAdminAccess   = "no_admin_access"
	ReasonCheckError      = "error_checking_permissions"
	ReasonServiceIdentity = "service_identity"
)

// Contract violations: the caller misused the API. These are not
// authorization outcomes and are never audited as decisions.
var (
	ErrMissingPrincipal = errors.New("authz: principal required")
	ErrMissingGuild     = errors.New("authz: guild id required")
)

// RequestMeta carries requester metadata into the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
	RequestID string
}

// Decision is the ephemeral outcome of one authorization check. It is not
// persisted; only its audit projection survives.
type Decision struct {
	Principal Principal
	GuildID   string
	Action    string
	Result    Result
	Reason    string
	At        time.Time
}

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool {
	return d.Result == Allowed
}
