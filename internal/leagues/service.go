package leagues

import (
	"context"
	"errors"
	"strings"
)

// Service handles league business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns every league on a guild.
func (s *Service) List(ctx context.Context, guildID string) ([]League, error) {
	return s.repo.List(ctx, guildID)
}

// Get returns one league.
func (s *Service) Get(ctx context.Context, id int64) (League, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new active league on a guild.
func (s *Service) Create(ctx context.Context, guildID, name, game string) (League, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return League{}, errors.New("leagues: name required")
	}
	return s.repo.Create(ctx, League{
		GuildID: guildID,
		Name:    name,
		Game:    strings.TrimSpace(game),
		Status:  StatusActive,
	})
}

// Rename updates a league's name and game.
func (s *Service) Rename(ctx context.Context, id int64, name, game string) (League, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return League{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return League{}, errors.New("leagues: name required")
	}
	l.Name = name
	if game = strings.TrimSpace(game); game != "" {
		l.Game = game
	}
	return s.repo.Update(ctx, l)
}

// Archive retires a league. Archiving is idempotent.
func (s *Service) Archive(ctx context.Context, id int64) (League, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return League{}, err
	}
	if l.Status == StatusArchived {
		return l, nil
	}
	l.Status = StatusArchived
	return s.repo.Update(ctx, l)
}
