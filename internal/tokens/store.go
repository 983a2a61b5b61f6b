// Package tokens stores Discord OAuth access tokens for human principals.
// Token refresh happens in the bot's OAuth flow outside this service; here a
// token is either currently valid or treated as absent.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides postgres-backed access to stored OAuth tokens.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store backed by the provided pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ValidAccessToken returns the principal's access token when one is stored
// and unexpired, or "" otherwise. An expired token is indistinguishable from
// no token: refreshing is not this service's job.
func (s *Store) ValidAccessToken(ctx context.Context, userID string) (string, error) {
	var (
		token     string
		expiresAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT access_token, expires_at FROM discord_tokens WHERE user_id = $1`,
		userID,
	).Scan(&token, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("tokens: select token: %w", err)
	}
	if !expiresAt.After(time.Now()) {
		return "", nil
	}
	return token, nil
}

// Upsert stores or replaces a principal's access token.
func (s *Store) Upsert(ctx context.Context, userID, accessToken string, expiresAt time.Time) error {
	if userID == "" || accessToken == "" {
		return errors.New("tokens: user id and access token required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO discord_tokens (user_id, access_token, expires_at, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET access_token = $2, expires_at = $3, updated_at = NOW()`,
		userID, accessToken, expiresAt)
	if err != nil {
		return fmt.Errorf("tokens: upsert token: %w", err)
	}
	return nil
}
