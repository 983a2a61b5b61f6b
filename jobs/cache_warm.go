package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/scrimsync/scrimsync/internal/discord"
)

// GuildLister enumerates guilds with stored settings.
type GuildLister interface {
	ListGuildIDs(ctx context.Context) ([]string, error)
}

// EntityWarmer is the slice of the entity cache the warm job needs.
type EntityWarmer interface {
	Warm(ctx context.Context, guildID string, kind discord.EntityKind) error
}

// NewCacheWarmHandler builds the handler that pre-fills role/channel caches
// so the first authorization check after a TTL expiry does not pay the
// remote fetch.
func NewCacheWarmHandler(guildLister GuildLister, cache EntityWarmer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		guildIDs, err := guildLister.ListGuildIDs(ctx)
		if err != nil {
			return err
		}
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for _, guildID := range guildIDs {
			guildID := guildID
			g.Go(func() error {
				for _, kind := range []discord.EntityKind{discord.KindRole, discord.KindChannel} {
					if err := cache.Warm(ctx, guildID, kind); err != nil {
						logger.Warn("cache warm failed",
							slog.String("guild", guildID),
							slog.String("kind", string(kind)),
							slog.Any("error", err))
					}
				}
				return nil
			})
		}
		return g.Wait()
	}
}
