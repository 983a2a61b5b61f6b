package authz

import (
	"github.com/scrimsync/scrimsync/internal/guilds"
)

// MatchAdminRole intersects the roles a principal holds with the guild's
// configured admin roles. The first configured role the principal holds
// wins. Matching in policy order, not membership order, keeps the reported
// role stable across otherwise-equivalent matches.
func MatchAdminRole(principalRoles []string, policy guilds.PolicyRoles) (string, bool) {
	if len(principalRoles) == 0 || len(policy) == 0 {
		return "", false
	}
	held := make(map[string]struct{}, len(principalRoles))
	for _, id := range principalRoles {
		held[id] = struct{}{}
	}
	for _, configured := range policy {
		if _, ok := held[configured.ID]; ok {
			return configured.ID, true
		}
	}
	return "", false
}
