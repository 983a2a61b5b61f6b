package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimsync/scrimsync/internal/discord"
	"github.com/scrimsync/scrimsync/internal/guilds"
)

type fakeMemberLister struct {
	members map[string][]discord.Member
	failFor string
}

func (f *fakeMemberLister) ListMembers(ctx context.Context, guildID string) ([]discord.Member, error) {
	if guildID == f.failFor {
		return nil, errors.New("guild unreachable")
	}
	return f.members[guildID], nil
}

type fakeMembershipWriter struct {
	mu       sync.Mutex
	guildIDs []string
	upserts  []guilds.Membership
	pruned   map[string][]string
}

func (f *fakeMembershipWriter) ListGuildIDs(ctx context.Context) ([]string, error) {
	return f.guildIDs, nil
}

func (f *fakeMembershipWriter) UpsertMembership(ctx context.Context, m guilds.Membership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, m)
	return nil
}

func (f *fakeMembershipWriter) PruneMemberships(ctx context.Context, guildID string, activeUserIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pruned == nil {
		f.pruned = map[string][]string{}
	}
	f.pruned[guildID] = activeUserIDs
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMembershipSyncSingleGuild(t *testing.T) {
	lister := &fakeMemberLister{members: map[string][]discord.Member{
		"guild-1": {
			{User: discord.User{ID: "user-1"}, Roles: []string{"role-a"}},
			{User: discord.User{ID: "user-2"}, Roles: nil},
		},
	}}
	writer := &fakeMembershipWriter{guildIDs: []string{"guild-1", "guild-2"}}
	handler := NewMembershipSyncHandler(lister, writer, discardLogger())

	task, err := NewMembershipSyncTask(MembershipSyncPayload{GuildID: "guild-1"})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))

	require.Len(t, writer.upserts, 2)
	for _, m := range writer.upserts {
		assert.Equal(t, "guild-1", m.GuildID)
		assert.False(t, m.SyncedAt.IsZero())
	}
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, writer.pruned["guild-1"],
		"prune must receive the full current member list")
}

func TestMembershipSyncAllGuilds(t *testing.T) {
	lister := &fakeMemberLister{members: map[string][]discord.Member{
		"guild-1": {{User: discord.User{ID: "user-1"}}},
		"guild-2": {{User: discord.User{ID: "user-2"}}},
	}}
	writer := &fakeMembershipWriter{guildIDs: []string{"guild-1", "guild-2"}}
	handler := NewMembershipSyncHandler(lister, writer, discardLogger())

	task, err := NewMembershipSyncTask(MembershipSyncPayload{})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))

	assert.Len(t, writer.upserts, 2)
}

func TestMembershipSyncToleratesUnreachableGuild(t *testing.T) {
	lister := &fakeMemberLister{
		members: map[string][]discord.Member{"guild-2": {{User: discord.User{ID: "user-2"}}}},
		failFor: "guild-1",
	}
	writer := &fakeMembershipWriter{guildIDs: []string{"guild-1", "guild-2"}}
	handler := NewMembershipSyncHandler(lister, writer, discardLogger())

	task, err := NewMembershipSyncTask(MembershipSyncPayload{})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task), "one bad guild must not fail the run")

	require.Len(t, writer.upserts, 1)
	assert.Equal(t, "guild-2", writer.upserts[0].GuildID)
}

func TestMembershipSyncRejectsMalformedPayload(t *testing.T) {
	handler := NewMembershipSyncHandler(&fakeMemberLister{}, &fakeMembershipWriter{}, discardLogger())

	err := handler(context.Background(), asynq.NewTask(TaskMembershipSync, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
