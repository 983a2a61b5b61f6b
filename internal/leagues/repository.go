package leagues

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the league does not exist.
	ErrNotFound = errors.New("leagues: not found")
	// ErrDuplicateName indicates a league name collision within a guild.
	ErrDuplicateName = errors.New("leagues: name already in use")
)

// RepositoryPort defines data access for leagues.
type RepositoryPort interface {
	List(ctx context.Context, guildID string) ([]League, error)
	Get(ctx context.Context, id int64) (League, error)
	Create(ctx context.Context, l League) (League, error)
	Update(ctx context.Context, l League) (League, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

const leagueColumns = `id, guild_id, name, game, status, created_at, updated_at`

func scanLeague(row pgx.Row) (League, error) {
	var l League
	err := row.Scan(&l.ID, &l.GuildID, &l.Name, &l.Game, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *repository) List(ctx context.Context, guildID string) ([]League, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+leagueColumns+` FROM leagues WHERE guild_id = $1 ORDER BY name`, guildID)
	if err != nil {
		return nil, fmt.Errorf("leagues: list: %w", err)
	}
	defer rows.Close()

	var leagues []League
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return nil, err
		}
		leagues = append(leagues, l)
	}
	return leagues, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (League, error) {
	l, err := scanLeague(r.pool.QueryRow(ctx,
		`SELECT `+leagueColumns+` FROM leagues WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return League{}, ErrNotFound
		}
		return League{}, fmt.Errorf("leagues: get: %w", err)
	}
	return l, nil
}

func (r *repository) Create(ctx context.Context, l League) (League, error) {
	created, err := scanLeague(r.pool.QueryRow(ctx,
		`INSERT INTO leagues (guild_id, name, game, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING `+leagueColumns, l.GuildID, l.Name, l.Game, l.Status))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return League{}, ErrDuplicateName
		}
		return League{}, fmt.Errorf("leagues: create: %w", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, l League) (League, error) {
	updated, err := scanLeague(r.pool.QueryRow(ctx,
		`UPDATE leagues SET name = $2, game = $3, status = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+leagueColumns, l.ID, l.Name, l.Game, l.Status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return League{}, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return League{}, ErrDuplicateName
		}
		return League{}, fmt.Errorf("leagues: update: %w", err)
	}
	return updated, nil
}
