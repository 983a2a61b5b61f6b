package authz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimsync/scrimsync/internal/guilds"
)

func TestMatchAdminRolePolicyOrderWins(t *testing.T) {
	policy := policyOf("role-a", "role-b", "role-c")

	// The principal holds two configured roles; the first in policy order
	// is reported regardless of membership order.
	matched, ok := MatchAdminRole([]string{"role-c", "role-b"}, policy)
	require.True(t, ok)
	assert.Equal(t, "role-b", matched)

	matched, ok = MatchAdminRole([]string{"role-b", "role-c"}, policy)
	require.True(t, ok)
	assert.Equal(t, "role-b", matched)
}

func TestMatchAdminRoleNoOverlap(t *testing.T) {
	_, ok := MatchAdminRole([]string{"role-x"}, policyOf("role-a"))
	assert.False(t, ok)
}

func TestMatchAdminRoleEmptyInputs(t *testing.T) {
	_, ok := MatchAdminRole(nil, policyOf("role-a"))
	assert.False(t, ok)

	_, ok = MatchAdminRole([]string{"role-a"}, nil)
	assert.False(t, ok)
}

func TestMatchAdminRoleEncodingIndependent(t *testing.T) {
	// The same policy stored in either historical encoding must produce
	// the same match.
	var legacy, current guilds.PolicyRoles
	require.NoError(t, json.Unmarshal([]byte(`["role-a","role-b"]`), &legacy))
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"role-a","name":"Admins"},{"id":"role-b","name":"Mods"}]`), &current))

	held := []string{"role-b"}
	legacyMatch, legacyOK := MatchAdminRole(held, legacy)
	currentMatch, currentOK := MatchAdminRole(held, current)

	require.True(t, legacyOK)
	require.True(t, currentOK)
	assert.Equal(t, legacyMatch, currentMatch)
}
