// Package auth resolves the acting principal for each request: humans by
// Redis-backed bearer session, services by shared key.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound indicates an unknown or expired session token.
var ErrSessionNotFound = errors.New("auth: session not found")

type sessionPayload struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Sessions issues and resolves bearer session tokens. Sessions are created
// by the bot after completing the Discord OAuth flow on a user's behalf.
type Sessions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessions constructs a session store.
func NewSessions(client *redis.Client, ttl time.Duration) *Sessions {
	return &Sessions{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Create issues a new session token for a user.
func (s *Sessions) Create(ctx context.Context, userID, displayName string) (string, error) {
	if userID == "" {
		return "", errors.New("auth: user id required")
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	data, err := json.Marshal(sessionPayload{UserID: userID, DisplayName: displayName})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, sessionKey(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store session: %w", err)
	}
	return token, nil
}

// Lookup resolves a session token to its user.
func (s *Sessions) Lookup(ctx context.Context, token string) (userID, displayName string, err error) {
	if token == "" {
		return "", "", ErrSessionNotFound
	}
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", ErrSessionNotFound
		}
		return "", "", fmt.Errorf("auth: load session: %w", err)
	}
	var payload sessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", "", fmt.Errorf("auth: decode session: %w", err)
	}
	return payload.UserID, payload.DisplayName, nil
}

// Revoke deletes a session token.
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("auth: revoke session: %w", err)
	}
	return nil
}
