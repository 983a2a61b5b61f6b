package discord

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	roles    []Role
	channels []Channel
	err      error

	roleCalls    int
	channelCalls int
}

func (f *fakeLister) ListRoles(ctx context.Context, guildID string) ([]Role, error) {
	f.roleCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.roles, nil
}

func (f *fakeLister) ListChannels(ctx context.Context, guildID string) ([]Channel, error) {
	f.channelCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.channels, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCacheFixture(t *testing.T, ttl time.Duration) (*EntityCache, *fakeLister, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	lister := &fakeLister{
		roles:    []Role{{ID: "role-a", Name: "Admins"}, {ID: "role-b", Name: "Mods"}},
		channels: []Channel{{ID: "chan-1", Name: "general"}},
	}
	return NewEntityCache(lister, client, ttl, testLogger()), lister, mr
}

func TestValidateManySingleFetchPerWindow(t *testing.T) {
	cache, lister, _ := newCacheFixture(t, time.Minute)
	ctx := context.Background()

	result, err := cache.ValidateMany(ctx, "guild-1", KindRole, []string{"role-a", "role-b", "role-x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"role-a": true, "role-b": true, "role-x": false}, result)
	assert.Equal(t, 1, lister.roleCalls, "one remote fetch covers all candidates")

	// Second validation inside the TTL window is served from cache.
	result, err = cache.ValidateMany(ctx, "guild-1", KindRole, []string{"role-b"})
	require.NoError(t, err)
	assert.True(t, result["role-b"])
	assert.Equal(t, 1, lister.roleCalls)
}

func TestValidateManyFetchFailureResolvesAllFalse(t *testing.T) {
	cache, lister, _ := newCacheFixture(t, time.Minute)
	lister.err = errors.New("discord down")

	result, err := cache.ValidateMany(context.Background(), "guild-1", KindRole, []string{"role-a", "role-b"})
	require.Error(t, err)
	assert.Equal(t, map[string]bool{"role-a": false, "role-b": false}, result)
}

func TestValidIDsExpiryTriggersRefetch(t *testing.T) {
	cache, lister, mr := newCacheFixture(t, time.Minute)
	ctx := context.Background()

	_, err := cache.ValidIDs(ctx, "guild-1", KindRole)
	require.NoError(t, err)
	require.Equal(t, 1, lister.roleCalls)

	mr.FastForward(2 * time.Minute)

	ids, err := cache.ValidIDs(ctx, "guild-1", KindRole)
	require.NoError(t, err)
	assert.Equal(t, []string{"role-a", "role-b"}, ids)
	assert.Equal(t, 2, lister.roleCalls)
}

func TestValidIDsKindsAreCachedSeparately(t *testing.T) {
	cache, lister, _ := newCacheFixture(t, time.Minute)
	ctx := context.Background()

	_, err := cache.ValidIDs(ctx, "guild-1", KindRole)
	require.NoError(t, err)
	ids, err := cache.ValidIDs(ctx, "guild-1", KindChannel)
	require.NoError(t, err)
	assert.Equal(t, []string{"chan-1"}, ids)
	assert.Equal(t, 1, lister.roleCalls)
	assert.Equal(t, 1, lister.channelCalls)
}

func TestValidIDsRedisOutageFallsThroughToFetch(t *testing.T) {
	cache, lister, mr := newCacheFixture(t, time.Minute)
	mr.Close()

	ids, err := cache.ValidIDs(context.Background(), "guild-1", KindRole)
	require.NoError(t, err)
	assert.Equal(t, []string{"role-a", "role-b"}, ids)
	assert.Equal(t, 1, lister.roleCalls)
}

func TestObserveCountsHitsAndMisses(t *testing.T) {
	cache, _, _ := newCacheFixture(t, time.Minute)
	var hits, misses int
	cache.Observe(
		func(kind EntityKind) { hits++ },
		func(kind EntityKind) { misses++ },
	)
	ctx := context.Background()

	_, err := cache.ValidIDs(ctx, "guild-1", KindRole)
	require.NoError(t, err)
	_, err = cache.ValidIDs(ctx, "guild-1", KindRole)
	require.NoError(t, err)

	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, hits)
}

func TestWarmPrefillsCache(t *testing.T) {
	cache, lister, _ := newCacheFixture(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Warm(ctx, "guild-1", KindRole))
	require.Equal(t, 1, lister.roleCalls)

	result, err := cache.ValidateMany(ctx, "guild-1", KindRole, []string{"role-a"})
	require.NoError(t, err)
	assert.True(t, result["role-a"])
	assert.Equal(t, 1, lister.roleCalls, "warm fill serves subsequent validations")
}
