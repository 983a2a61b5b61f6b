package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoleChannelLister is the slice of Client the cache depends on.
type RoleChannelLister interface {
	ListRoles(ctx context.Context, guildID string) ([]Role, error)
	ListChannels(ctx context.Context, guildID string) ([]Channel, error)
}

// EntityCache fronts role/channel listings with a TTL cache so that
// validating N candidate ids costs one remote fetch per (guild, kind) per
// TTL window instead of N calls. Concurrent fills for the same key may
// duplicate the remote fetch; the duplicate is cheaper than holding a lock
// across a network call.
type EntityCache struct {
	lister RoleChannelLister
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	// observation hooks, optional
	onHit  func(kind EntityKind)
	onMiss func(kind EntityKind)
}

// NewEntityCache constructs an EntityCache.
func NewEntityCache(lister RoleChannelLister, client *redis.Client, ttl time.Duration, logger *slog.Logger) *EntityCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EntityCache{lister: lister, redis: client, ttl: ttl, logger: logger}
}

// Observe installs cache hit/miss callbacks for metrics.
func (c *EntityCache) Observe(onHit, onMiss func(kind EntityKind)) {
	c.onHit = onHit
	c.onMiss = onMiss
}

func cacheKey(guildID string, kind EntityKind) string {
	return fmt.Sprintf("discord:%s:%s", kind, guildID)
}

// ValidIDs returns every id of the given kind that currently exists on the
// guild, served from cache within the TTL window.
func (c *EntityCache) ValidIDs(ctx context.Context, guildID string, kind EntityKind) ([]string, error) {
	key := cacheKey(guildID, kind)

	payload, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var ids []string
		if err := json.Unmarshal(payload, &ids); err == nil {
			if c.onHit != nil {
				c.onHit(kind)
			}
			return ids, nil
		}
		c.logger.Warn("entity cache payload corrupt", slog.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		// A broken cache backend must not take the validation path down;
		// fall through to a direct fetch.
		c.logger.Warn("entity cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	if c.onMiss != nil {
		c.onMiss(kind)
	}
	ids, err := c.fetch(ctx, guildID, kind)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(ids); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("entity cache write failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return ids, nil
}

// ValidateMany reports, for each candidate id, whether the id currently
// exists on the guild. A remote fetch failure resolves every candidate to
// false: this result gates privilege decisions and must never fail open.
func (c *EntityCache) ValidateMany(ctx context.Context, guildID string, kind EntityKind, candidates []string) (map[string]bool, error) {
	result := make(map[string]bool, len(candidates))
	for _, id := range candidates {
		result[id] = false
	}

	valid, err := c.ValidIDs(ctx, guildID, kind)
	if err != nil {
		return result, err
	}

	known := make(map[string]struct{}, len(valid))
	for _, id := range valid {
		known[id] = struct{}{}
	}
	for _, id := range candidates {
		_, result[id] = known[id]
	}
	return result, nil
}

// Warm fills the cache for a guild ahead of demand.
func (c *EntityCache) Warm(ctx context.Context, guildID string, kind EntityKind) error {
	ids, err := c.fetch(ctx, guildID, kind)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, cacheKey(guildID, kind), data, c.ttl).Err()
}

func (c *EntityCache) fetch(ctx context.Context, guildID string, kind EntityKind) ([]string, error) {
	switch kind {
	case KindRole:
		roles, err := c.lister.ListRoles(ctx, guildID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(roles))
		for _, r := range roles {
			ids = append(ids, r.ID)
		}
		return ids, nil
	case KindChannel:
		channels, err := c.lister.ListChannels(ctx, guildID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(channels))
		for _, ch := range channels {
			ids = append(ids, ch.ID)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("discord: unknown entity kind %q", kind)
	}
}
