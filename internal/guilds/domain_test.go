package guilds

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyRolesDecodesLegacyStrings(t *testing.T) {
	var roles PolicyRoles
	require.NoError(t, json.Unmarshal([]byte(`["111","222"]`), &roles))
	assert.Equal(t, PolicyRoles{{ID: "111"}, {ID: "222"}}, roles)
}

func TestPolicyRolesDecodesObjects(t *testing.T) {
	var roles PolicyRoles
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"111","name":"Admins"},{"id":"222"}]`), &roles))
	assert.Equal(t, PolicyRoles{{ID: "111", Name: "Admins"}, {ID: "222"}}, roles)
}

func TestPolicyRolesDecodesMixedEntries(t *testing.T) {
	var roles PolicyRoles
	require.NoError(t, json.Unmarshal([]byte(`["111",{"id":"222","name":"Mods"}]`), &roles))
	assert.Equal(t, PolicyRoles{{ID: "111"}, {ID: "222", Name: "Mods"}}, roles)
}

func TestPolicyRolesDecodeEmpty(t *testing.T) {
	var roles PolicyRoles
	require.NoError(t, json.Unmarshal([]byte(`[]`), &roles))
	assert.Empty(t, roles)
}

func TestPolicyRolesRejectsNonArray(t *testing.T) {
	var roles PolicyRoles
	require.Error(t, json.Unmarshal([]byte(`{"id":"111"}`), &roles))
}

func TestPolicyRolesIDsKeepOrder(t *testing.T) {
	roles := PolicyRoles{{ID: "333"}, {ID: "111"}, {ID: "222"}}
	assert.Equal(t, []string{"333", "111", "222"}, roles.IDs())
}

func TestPolicyRolesWriteEncodingIsObjects(t *testing.T) {
	data, err := json.Marshal(PolicyRoles{{ID: "111", Name: "Admins"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"111","name":"Admins"}]`, string(data))
}
