package guilds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("guilds: not found")

// Store provides postgres-backed access to guild settings and membership
// snapshots.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store backed by the provided pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Settings returns the guild's policy document, creating a default (no
// admin roles configured) on first access. A concurrent first access may
// race on the insert; the unique violation is absorbed and the winner's row
// is read back.
func (s *Store) Settings(ctx context.Context, guildID string) (GuildSettings, error) {
	if guildID == "" {
		return GuildSettings{}, errors.New("guilds: guild id required")
	}

	settings, err := s.selectSettings(ctx, guildID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return GuildSettings{}, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO guild_settings (guild_id, admin_roles, created_at, updated_at)
		 VALUES ($1, '[]'::jsonb, NOW(), NOW())
		 ON CONFLICT (guild_id) DO NOTHING`, guildID)
	if err != nil {
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
			return GuildSettings{}, fmt.Errorf("guilds: create default settings: %w", err)
		}
	}
	return s.selectSettings(ctx, guildID)
}

func (s *Store) selectSettings(ctx context.Context, guildID string) (GuildSettings, error) {
	var (
		settings GuildSettings
		rolesRaw []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT guild_id, admin_roles, created_at, updated_at FROM guild_settings WHERE guild_id = $1`,
		guildID,
	).Scan(&settings.GuildID, &rolesRaw, &settings.CreatedAt, &settings.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return GuildSettings{}, ErrNotFound
		}
		return GuildSettings{}, fmt.Errorf("guilds: select settings: %w", err)
	}
	if len(rolesRaw) > 0 {
		if err := json.Unmarshal(rolesRaw, &settings.AdminRoles); err != nil {
			return GuildSettings{}, err
		}
	}
	return settings, nil
}

// UpdateAdminRoles replaces the guild's admin-role list. New writes always
// use the object encoding.
func (s *Store) UpdateAdminRoles(ctx context.Context, guildID string, roles PolicyRoles) error {
	data, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("guilds: encode admin roles: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE guild_settings SET admin_roles = $2, updated_at = NOW() WHERE guild_id = $1`,
		guildID, data)
	if err != nil {
		return fmt.Errorf("guilds: update admin roles: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindMembership returns the locally synced membership snapshot, or nil when
// no snapshot exists for the (user, guild) pair.
func (s *Store) FindMembership(ctx context.Context, userID, guildID string) (*Membership, error) {
	var m Membership
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, guild_id, role_ids, synced_at FROM guild_memberships
		 WHERE user_id = $1 AND guild_id = $2`,
		userID, guildID,
	).Scan(&m.UserID, &m.GuildID, &m.RoleIDs, &m.SyncedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("guilds: find membership: %w", err)
	}
	return &m, nil
}

// UpsertMembership writes a membership snapshot from a sync run.
func (s *Store) UpsertMembership(ctx context.Context, m Membership) error {
	if m.UserID == "" || m.GuildID == "" {
		return errors.New("guilds: membership requires user and guild id")
	}
	syncedAt := m.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO guild_memberships (user_id, guild_id, role_ids, synced_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, guild_id) DO UPDATE SET role_ids = $3, synced_at = $4`,
		m.UserID, m.GuildID, m.RoleIDs, syncedAt)
	if err != nil {
		return fmt.Errorf("guilds: upsert membership: %w", err)
	}
	return nil
}

// PruneMemberships removes snapshots for users no longer on the guild. Called
// at the end of a sync run with the full current member list.
func (s *Store) PruneMemberships(ctx context.Context, guildID string, activeUserIDs []string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM guild_memberships WHERE guild_id = $1 AND NOT (user_id = ANY($2))`,
		guildID, activeUserIDs)
	if err != nil {
		return fmt.Errorf("guilds: prune memberships: %w", err)
	}
	return nil
}

// ListGuildIDs returns every guild with stored settings, for background
// sync and cache warm jobs.
func (s *Store) ListGuildIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT guild_id FROM guild_settings ORDER BY guild_id`)
	if err != nil {
		return nil, fmt.Errorf("guilds: list guild ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
