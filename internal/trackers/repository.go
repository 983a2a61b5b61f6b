package trackers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the tracker does not exist.
	ErrNotFound = errors.New("trackers: not found")
	// ErrDuplicate indicates the platform identity is already linked.
	ErrDuplicate = errors.New("trackers: already linked")
)

// RepositoryPort defines data access for trackers.
type RepositoryPort interface {
	ListByPlayer(ctx context.Context, playerID int64) ([]Tracker, error)
	Create(ctx context.Context, t Tracker) (Tracker, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

func (r *repository) ListByPlayer(ctx context.Context, playerID int64) ([]Tracker, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, player_id, platform, external_id, created_at FROM trackers
		 WHERE player_id = $1 ORDER BY platform, external_id`, playerID)
	if err != nil {
		return nil, fmt.Errorf("trackers: list: %w", err)
	}
	defer rows.Close()

	var trackers []Tracker
	for rows.Next() {
		var t Tracker
		if err := rows.Scan(&t.ID, &t.PlayerID, &t.Platform, &t.ExternalID, &t.CreatedAt); err != nil {
			return nil, err
		}
		trackers = append(trackers, t)
	}
	return trackers, rows.Err()
}

func (r *repository) Create(ctx context.Context, t Tracker) (Tracker, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO trackers (player_id, platform, external_id, created_at)
		 VALUES ($1, $2, $3, NOW())
		 RETURNING id, created_at`,
		t.PlayerID, t.Platform, t.ExternalID,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Tracker{}, ErrDuplicate
		}
		return Tracker{}, fmt.Errorf("trackers: create: %w", err)
	}
	return t, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trackers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("trackers: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
