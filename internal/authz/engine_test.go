package authz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimsync/scrimsync/internal/audit"
	"github.com/scrimsync/scrimsync/internal/discord"
	"github.com/scrimsync/scrimsync/internal/guilds"
)

type stubTokens struct {
	token string
	err   error
}

func (s *stubTokens) ValidAccessToken(ctx context.Context, userID string) (string, error) {
	return s.token, s.err
}

type stubRemote struct {
	summary discord.PermissionSummary
	err     error
	calls   int
}

func (s *stubRemote) CheckPermissions(ctx context.Context, accessToken, guildID string) (discord.PermissionSummary, error) {
	s.calls++
	return s.summary, s.err
}

type stubEntities struct {
	valid map[string]bool
	err   error
	calls int
}

func (s *stubEntities) ValidateMany(ctx context.Context, guildID string, kind discord.EntityKind, candidates []string) (map[string]bool, error) {
	s.calls++
	if s.err != nil {
		out := make(map[string]bool, len(candidates))
		for _, id := range candidates {
			out[id] = false
		}
		return out, s.err
	}
	return s.valid, nil
}

type stubSettings struct {
	settings      guilds.GuildSettings
	settingsErr   error
	membership    *guilds.Membership
	membershipErr error

	settingsCalls   int
	membershipCalls int
}

func (s *stubSettings) Settings(ctx context.Context, guildID string) (guilds.GuildSettings, error) {
	s.settingsCalls++
	return s.settings, s.settingsErr
}

func (s *stubSettings) FindMembership(ctx context.Context, userID, guildID string) (*guilds.Membership, error) {
	s.membershipCalls++
	return s.membership, s.membershipErr
}

type stubSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *stubSink) RecordDetached(e audit.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *stubSink) all() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

type engineFixture struct {
	tokens   *stubTokens
	remote   *stubRemote
	entities *stubEntities
	settings *stubSettings
	sink     *stubSink
	engine   *Engine
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		tokens:   &stubTokens{token: "tok"},
		remote:   &stubRemote{summary: discord.PermissionSummary{IsMember: true}},
		entities: &stubEntities{valid: map[string]bool{}},
		settings: &stubSettings{},
		sink:     &stubSink{},
	}
	f.engine = NewEngine(EngineConfig{
		Tokens:   f.tokens,
		Remote:   f.remote,
		Entities: f.entities,
		Settings: f.settings,
		Sink:     f.sink,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func user() Principal {
	return Principal{Type: PrincipalUser, ID: "user-1"}
}

func policyOf(ids ...string) guilds.PolicyRoles {
	roles := make(guilds.PolicyRoles, 0, len(ids))
	for _, id := range ids {
		roles = append(roles, guilds.PolicyRole{ID: id})
	}
	return roles
}

func TestDecideMissingPrincipal(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.Decide(context.Background(), Principal{}, "guild-1", "admin.league.manage", RequestMeta{})
	require.ErrorIs(t, err, ErrMissingPrincipal)

	_, err = f.engine.Decide(context.Background(), Principal{Type: PrincipalUser}, "guild-1", "admin.league.manage", RequestMeta{})
	require.ErrorIs(t, err, ErrMissingPrincipal)

	assert.Empty(t, f.sink.all(), "contract violations must not be audited")
}

func TestDecideMissingGuild(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.Decide(context.Background(), user(), "", "admin.league.manage", RequestMeta{})
	require.ErrorIs(t, err, ErrMissingGuild)
	assert.Empty(t, f.sink.all())
}

func TestDecideServiceBypass(t *testing.T) {
	f := newEngineFixture()
	svc := Principal{Type: PrincipalService, ID: "service"}

	d, err := f.engine.Decide(context.Background(), svc, "guild-1", "admin.league.manage", RequestMeta{})
	require.NoError(t, err)
	assert.True(t, d.Allowed())
	assert.Equal(t, ReasonServiceIdentity, d.Reason)

	assert.Zero(t, f.remote.calls, "service identities never hit the remote check")
	assert.Empty(t, f.sink.all(), "service bypass is not audited")
}

func TestDecideNoAccessToken(t *testing.T) {
	f := newEngineFixture()
	f.tokens.token = ""

	d, err := f.engine.Decide(context.Background(), user(), "guild-1", "admin.league.manage", RequestMeta{})
	require.NoError(t, err)
	assert.False(t, d.Allowed())
	assert.Equal(t, ReasonNoAccessToken, d.Reason)

	assert.Zero(t, f.remote.calls, "no remote call without a token")
	entries := f.sink.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "denied", entries[0].Result)
	assert.Equal(t, ReasonNoAccessToken, entries[0].Reason)
}

func TestDecideNotAMemberRemote(t *testing.T) {
	f := newEngineFixture()
	f.remote.summary = discord.PermissionSummary{IsMember: false}

	d, err := f.engine.Decide(context.Background(), user(), "guild-1", "admin.league.manage", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, ReasonNotAMember, d.Reason)
	assert.Zero(t, f.settings.settingsCalls, "non-membership terminates before policy")
	require.Len(t, f.sink.all(), 1)
}

func TestDecideNativeAdministrator(t *testing.T) {
	f := newEngineFixture()
	f.remote.summary = discord.PermissionSummary{IsMember: true, HasAdministrator: true}

	d, err := f.engine.Decide(context.Background(), user(), "guild-1", "admin.league.manage", RequestMeta{})
	require.NoError(t, err)
	assert.True(t, d.Allowed())
	assert.Equal(t, ReasonNativeAdmin, d.Reason)

	assert.Zero(t, f.settings.settingsCalls, "native administrators never consult policy")
	assert.Zero(t, f.settings.membershipCalls)
	require.Len(t, f.sink.all(), 1)
	assert.Equal(t, "allowed", f.sink.all()[0].Result)
}

func TestDecideEmptyPolicyFailOpen(t *testing.T) {
	f := newEngineFixture()
	f.settings.settings = guilds.GuildSettings{GuildID: "guild-1"}

	d, err := f.engine.Decide(context.Background(), user(), "guild-1", "admin.league.manage", RequestMeta{})
	require.NoError(t, err)
	assert.True(t, d.Allowed())
	assert.Equal(t, ReasonNoRolesSet, d.Reason)
	assert.Zero(t, f.settings.membershipCalls, "empty policy terminates before membership lookup")
	require.Len(t, f.sink.all(), 1)
}

func TestDecideMembershipSnapshotMissing(t *testing.T) {
	f := newEngineFixture()
	f.settings.settings = guilds.GuildSettings{GuildID: "guild-1", AdminRoles: policyOf("role-a")}
	f.settings.membership = nil

	d, err := f.engine.Decide(context.Background(), user(), "guild-1", "admin.league.manage", RequestMeta{})
	require.NoError(t, err)
	assert.False(t, d.Allowed())
	assert.Equal(t, ReasonNotAMember, d.Reason)
	require.Len(t, f.sink.all(), 1)
}

func TestDecideConfiguredRoleAllows(t *testing.T) {
	f := newEngineFixture()
	f.settings.settings = guilds.GuildSettings{GuildID: "guild-1", AdminRoles: policyOf("role-a", "role-b")}
	f.settings.membership = &guilds.Membership{UserID: "user-1", GuildID: "guild-1", RoleIDs: []string{"role-b"}}
	f.entities.valid = map[string]bool{"role-b": true}

	d, err := f.engine.Decide(context.Background(), user(), "guild-1", "admin.league.manage", RequestMeta{})
	require.NoError(t, err)
	assert.True(t, d.Allowed())
	assert.Equal(t, ReasonConfiguredRole, d.Reason)
	assert.Equal(t, 1, f.entities.calls)
	require.Len(t, f.sink.all(), 1)
}

func TestDecideDeletedRoleDenies(t *testing.T) {
	f := newEngineFixture()
	f.settings.settings = guilds.GuildSettings{GuildID: "guild-1", AdminRoles: policyOf("role-a")}
	f.settings.membership = &guilds.Membership{UserID: "user-1", GuildID: "guild-1", RoleIDs: []string{"role-a"}}
	f.entities.valid = map[string]bool{"role-a": false}

	d, err := f.engine.Decide(context.Background(), user(), "guild-1", "admin.league.manage", RequestMeta{})
	require.NoError(t, err)
	assert.False(t, d.Allowed())
	assert.Equal(t, ReasonNoAdminAccess, d.Reason)
}

func TestDecideValidationUnavailableDenies(t *testing.T) {
	f := newEngineFixture()
	f.settings.settings = guilds.GuildSettings{GuildID: "guild-1", AdminRoles: policyOf("role-a")}
	f.settings.membership = &guilds.Membership{UserID: "user-1", GuildID: "guild-1", RoleIDs: []string{"role-a"}}
	f.entities.err = errors.New("discord down")

	d, err := f.engine.Decide(context.Background(), user(), "guild-1", "admin.league.manage", RequestMeta{})
	require.NoError(t, err)
	assert.False(t, d.Allowed())
	assert.Equal(t, ReasonNoAdminAccess, d.Reason, "unconfirmable role counts as rejected, not as an engine error")
}

func TestDecideNoMatchingRoleDenies(t *testing.T) {
	f := newEngineFixture()
	f.settings.settings = guilds.GuildSettings{GuildID: "guild-1", AdminRoles: policyOf("role-a")}
	f.settings.membership = &guilds.Membership{UserID: "user-1", GuildID: "guild-1", RoleIDs: []string{"role-z"}}

	d, err := f.engine.Decide(context.Background(), user(), "guild-1", "admin.league.manage", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, ReasonNoAdminAccess, d.Reason)
	assert.Zero(t, f.entities.calls, "no validation call without a policy match")
}

func TestDecideUnexpectedErrorFailsClosed(t *testing.T) {
	cases := []struct {
		name  string
		wound func(*engineFixture)
	}{
		{"token store", func(f *engineFixture) { f.tokens.err = errors.New("pg down") }},
		{"remote check", func(f *engineFixture) { f.remote.err = errors.New("discord 500") }},
		{"settings", func(f *engineFixture) { f.settings.settingsErr = errors.New("pg down") }},
		{"membership", func(f *engineFixture) {
			f.settings.settings = guilds.GuildSettings{AdminRoles: policyOf("role-a")}
			f.settings.membershipErr = errors.New("pg down")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newEngineFixture()
			tc.wound(f)

			d, err := f.engine.Decide(context.Background(), user(), "guild-1", "admin.league.manage", RequestMeta{})
			require.NoError(t, err, "infrastructure failures become denials, not errors")
			assert.False(t, d.Allowed())
			assert.Equal(t, ReasonCheckError, d.Reason)

			entries := f.sink.all()
			require.Len(t, entries, 1)
			assert.Equal(t, ReasonCheckError, entries[0].Reason)
		})
	}
}

func TestDecideAuditsExactlyOnce(t *testing.T) {
	f := newEngineFixture()
	f.remote.summary = discord.PermissionSummary{IsMember: true, HasAdministrator: true}

	meta := RequestMeta{IP: "10.0.0.1", UserAgent: "scrimsync-test", RequestID: "req-1"}
	_, err := f.engine.Decide(context.Background(), user(), "guild-1", "admin.settings.manage", meta)
	require.NoError(t, err)

	entries := f.sink.all()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "user-1", e.ActorID)
	assert.Equal(t, "user", e.ActorType)
	assert.Equal(t, "guild-1", e.GuildID)
	assert.Equal(t, "admin.settings.manage", e.Action)
	assert.Equal(t, "10.0.0.1", e.Meta["ip"])
	assert.Equal(t, "scrimsync-test", e.Meta["user_agent"])
	assert.Equal(t, "req-1", e.Meta["request_id"])
}

func TestDecideWithoutSink(t *testing.T) {
	f := newEngineFixture()
	engine := NewEngine(EngineConfig{
		Tokens:   f.tokens,
		Remote:   f.remote,
		Entities: f.entities,
		Settings: f.settings,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	f.remote.summary = discord.PermissionSummary{IsMember: true, HasAdministrator: true}

	d, err := engine.Decide(context.Background(), user(), "guild-1", "admin.league.manage", RequestMeta{})
	require.NoError(t, err)
	assert.True(t, d.Allowed())
}
