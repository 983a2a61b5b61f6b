// Package discord talks to the Discord REST API on behalf of the
// authorization engine: membership/permission checks with user tokens and
// guild role/channel listings with the bot token.
package discord

import "errors"

// EntityKind selects which guild entity collection a lookup targets.
type EntityKind string

const (
	// KindRole addresses guild roles.
	KindRole EntityKind = "roles"
	// KindChannel addresses guild channels.
	KindChannel EntityKind = "channels"
)

// permAdministrator is the ADMINISTRATOR bit in Discord's permissions bitfield.
const permAdministrator = 1 << 3

// ErrUnavailable indicates the Discord API could not be reached within the
// configured retry budget.
var ErrUnavailable = errors.New("discord: service unavailable")

// Role is a guild role as returned by the Discord API.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Channel is a guild channel as returned by the Discord API.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     int    `json:"type"`
	ParentID string `json:"parent_id,omitempty"`
}

// User identifies a Discord account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Member is a guild member as returned by the Discord API.
type Member struct {
	User  User     `json:"user"`
	Roles []string `json:"roles"`
}

// PermissionSummary condenses what the engine needs to know about a
// principal's standing on a guild.
type PermissionSummary struct {
	IsMember         bool
	RoleIDs          []string
	HasAdministrator bool
}
