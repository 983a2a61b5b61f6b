package tournaments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the tournament does not exist.
var ErrNotFound = errors.New("tournaments: not found")

// RepositoryPort defines data access for tournaments.
type RepositoryPort interface {
	ListByLeague(ctx context.Context, leagueID int64) ([]Tournament, error)
	Get(ctx context.Context, id int64) (Tournament, error)
	Create(ctx context.Context, t Tournament) (Tournament, error)
	Update(ctx context.Context, t Tournament) (Tournament, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

const tournamentColumns = `id, league_id, guild_id, name, status, starts_at, created_at, updated_at`

func scanTournament(row pgx.Row) (Tournament, error) {
	var t Tournament
	err := row.Scan(&t.ID, &t.LeagueID, &t.GuildID, &t.Name, &t.Status, &t.StartsAt, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *repository) ListByLeague(ctx context.Context, leagueID int64) ([]Tournament, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE league_id = $1 ORDER BY starts_at DESC`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("tournaments: list: %w", err)
	}
	defer rows.Close()

	var tournaments []Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Tournament, error) {
	t, err := scanTournament(r.pool.QueryRow(ctx,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tournament{}, ErrNotFound
		}
		return Tournament{}, fmt.Errorf("tournaments: get: %w", err)
	}
	return t, nil
}

func (r *repository) Create(ctx context.Context, t Tournament) (Tournament, error) {
	created, err := scanTournament(r.pool.QueryRow(ctx,
		`INSERT INTO tournaments (league_id, guild_id, name, status, starts_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING `+tournamentColumns,
		t.LeagueID, t.GuildID, t.Name, t.Status, t.StartsAt))
	if err != nil {
		return Tournament{}, fmt.Errorf("tournaments: create: %w", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, t Tournament) (Tournament, error) {
	updated, err := scanTournament(r.pool.QueryRow(ctx,
		`UPDATE tournaments SET name = $2, status = $3, starts_at = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+tournamentColumns, t.ID, t.Name, t.Status, t.StartsAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tournament{}, ErrNotFound
		}
		return Tournament{}, fmt.Errorf("tournaments: update: %w", err)
	}
	return updated, nil
}
