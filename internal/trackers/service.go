package trackers

import (
	"context"
	"errors"
	"strings"
)

// Service handles tracker link logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListByPlayer returns every tracker linked to a player.
func (s *Service) ListByPlayer(ctx context.Context, playerID int64) ([]Tracker, error) {
	return s.repo.ListByPlayer(ctx, playerID)
}

// Link attaches an external platform identity to a player.
func (s *Service) Link(ctx context.Context, playerID int64, platform Platform, externalID string) (Tracker, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return Tracker{}, errors.New("trackers: external id required")
	}
	if !KnownPlatform(platform) {
		return Tracker{}, errors.New("trackers: unknown platform")
	}
	return s.repo.Create(ctx, Tracker{PlayerID: playerID, Platform: platform, ExternalID: externalID})
}

// Unlink removes a tracker.
func (s *Service) Unlink(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
