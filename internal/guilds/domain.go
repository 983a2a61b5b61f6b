// Package guilds stores per-guild configuration and the locally synced
// membership snapshots the authorization engine consults.
package guilds

import (
	"encoding/json"
	"fmt"
	"time"
)

// PolicyRole designates a guild role that confers administrative privilege.
type PolicyRole struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// PolicyRoles is the admin-role list of a guild's policy document. Two
// historical encodings exist in stored settings: a flat list of role-id
// strings and a list of {id, name} objects. Both decode into the object
// form; stored documents are never rewritten on read (see DESIGN.md).
type PolicyRoles []PolicyRole

// UnmarshalJSON accepts both legacy encodings.
func (p *PolicyRoles) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("guilds: decode admin roles: %w", err)
	}
	roles := make([]PolicyRole, 0, len(raw))
	for _, entry := range raw {
		var id string
		if err := json.Unmarshal(entry, &id); err == nil {
			roles = append(roles, PolicyRole{ID: id})
			continue
		}
		var role PolicyRole
		if err := json.Unmarshal(entry, &role); err != nil {
			return fmt.Errorf("guilds: decode admin role entry: %w", err)
		}
		roles = append(roles, role)
	}
	*p = roles
	return nil
}

// IDs returns the role ids in configured order.
func (p PolicyRoles) IDs() []string {
	ids := make([]string, 0, len(p))
	for _, r := range p {
		ids = append(ids, r.ID)
	}
	return ids
}

// GuildSettings is the per-guild policy document. It is created lazily with
// defaults the first time a guild is seen.
type GuildSettings struct {
	GuildID    string
	AdminRoles PolicyRoles
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Membership is the locally synced snapshot of which roles a Discord user
// holds on a guild. Absence of a row is a valid "not a member" answer, not
// an error.
type Membership struct {
	UserID   string
	GuildID  string
	RoleIDs  []string
	SyncedAt time.Time
}
