package players

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the player does not exist.
	ErrNotFound = errors.New("players: not found")
	// ErrDuplicate indicates the Discord user or name is already registered.
	ErrDuplicate = errors.New("players: already registered")
)

// RepositoryPort defines data access for players.
type RepositoryPort interface {
	List(ctx context.Context, guildID string) ([]Player, error)
	Get(ctx context.Context, id int64) (Player, error)
	FindByDiscordUser(ctx context.Context, guildID, discordUserID string) (Player, error)
	Create(ctx context.Context, p Player) (Player, error)
	Update(ctx context.Context, p Player) (Player, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

const playerColumns = `id, guild_id, discord_user_id, display_name, search_name, created_at, updated_at`

func scanPlayer(row pgx.Row) (Player, error) {
	var p Player
	err := row.Scan(&p.ID, &p.GuildID, &p.DiscordUserID, &p.DisplayName, &p.SearchName, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, guildID string) ([]Player, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+playerColumns+` FROM players WHERE guild_id = $1 ORDER BY search_name`, guildID)
	if err != nil {
		return nil, fmt.Errorf("players: list: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Player, error) {
	p, err := scanPlayer(r.pool.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Player{}, ErrNotFound
		}
		return Player{}, fmt.Errorf("players: get: %w", err)
	}
	return p, nil
}

func (r *repository) FindByDiscordUser(ctx context.Context, guildID, discordUserID string) (Player, error) {
	p, err := scanPlayer(r.pool.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE guild_id = $1 AND discord_user_id = $2`,
		guildID, discordUserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Player{}, ErrNotFound
		}
		return Player{}, fmt.Errorf("players: find by discord user: %w", err)
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, p Player) (Player, error) {
	created, err := scanPlayer(r.pool.QueryRow(ctx,
		`INSERT INTO players (guild_id, discord_user_id, display_name, search_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING `+playerColumns,
		p.GuildID, p.DiscordUserID, p.DisplayName, p.SearchName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Player{}, ErrDuplicate
		}
		return Player{}, fmt.Errorf("players: create: %w", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, p Player) (Player, error) {
	updated, err := scanPlayer(r.pool.QueryRow(ctx,
		`UPDATE players SET display_name = $2, search_name = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+playerColumns, p.ID, p.DisplayName, p.SearchName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Player{}, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Player{}, ErrDuplicate
		}
		return Player{}, fmt.Errorf("players: update: %w", err)
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("players: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
