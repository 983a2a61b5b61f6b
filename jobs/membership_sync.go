package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/scrimsync/scrimsync/internal/discord"
	"github.com/scrimsync/scrimsync/internal/guilds"
)

// MemberLister is the slice of the Discord client the sync job needs.
type MemberLister interface {
	ListMembers(ctx context.Context, guildID string) ([]discord.Member, error)
}

// MembershipWriter is the slice of the guild store the sync job needs.
type MembershipWriter interface {
	ListGuildIDs(ctx context.Context) ([]string, error)
	UpsertMembership(ctx context.Context, m guilds.Membership) error
	PruneMemberships(ctx context.Context, guildID string, activeUserIDs []string) error
}

// NewMembershipSyncHandler builds the handler that refreshes local
// membership snapshots from Discord. The snapshots feed the authorization
// engine's local membership lookup; sync lag between Discord and these rows
// is why the engine treats the remote answer as authoritative.
func NewMembershipSyncHandler(client MemberLister, store MembershipWriter, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload MembershipSyncPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
		}

		guildIDs := []string{payload.GuildID}
		if payload.GuildID == "" {
			var err error
			guildIDs, err = store.ListGuildIDs(ctx)
			if err != nil {
				return err
			}
		}

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for _, guildID := range guildIDs {
			guildID := guildID
			g.Go(func() error {
				if err := syncGuild(ctx, client, store, guildID); err != nil {
					// One unreachable guild must not fail the whole run.
					logger.Warn("membership sync failed",
						slog.String("guild", guildID),
						slog.Any("error", err))
				}
				return nil
			})
		}
		return g.Wait()
	}
}

func syncGuild(ctx context.Context, client MemberLister, store MembershipWriter, guildID string) error {
	members, err := client.ListMembers(ctx, guildID)
	if err != nil {
		return err
	}
	syncedAt := time.Now().UTC()
	activeIDs := make([]string, 0, len(members))
	for _, member := range members {
		m := guilds.Membership{
			UserID:   member.User.ID,
			GuildID:  guildID,
			RoleIDs:  member.Roles,
			SyncedAt: syncedAt,
		}
		if err := store.UpsertMembership(ctx, m); err != nil {
			return err
		}
		activeIDs = append(activeIDs, member.User.ID)
	}
	return store.PruneMemberships(ctx, guildID, activeIDs)
}
