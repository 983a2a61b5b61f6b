package players

import (
	"context"
	"errors"
	"strings"
)

// Service handles player registration logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns every player registered on a guild.
func (s *Service) List(ctx context.Context, guildID string) ([]Player, error) {
	return s.repo.List(ctx, guildID)
}

// Get returns one player.
func (s *Service) Get(ctx context.Context, id int64) (Player, error) {
	return s.repo.Get(ctx, id)
}

// FindByDiscordUser resolves a player from a Discord user id.
func (s *Service) FindByDiscordUser(ctx context.Context, guildID, discordUserID string) (Player, error) {
	return s.repo.FindByDiscordUser(ctx, guildID, discordUserID)
}

// Register creates a player for a Discord user on a guild.
func (s *Service) Register(ctx context.Context, guildID, discordUserID, displayName string) (Player, error) {
	displayName = strings.TrimSpace(displayName)
	if guildID == "" || discordUserID == "" {
		return Player{}, errors.New("players: guild and discord user required")
	}
	if displayName == "" {
		return Player{}, errors.New("players: display name required")
	}
	return s.repo.Create(ctx, Player{
		GuildID:       guildID,
		DiscordUserID: discordUserID,
		DisplayName:   displayName,
		SearchName:    NormalizeName(displayName),
	})
}

// Rename updates a player's display name.
func (s *Service) Rename(ctx context.Context, id int64, displayName string) (Player, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return Player{}, errors.New("players: display name required")
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Player{}, err
	}
	p.DisplayName = displayName
	p.SearchName = NormalizeName(displayName)
	return s.repo.Update(ctx, p)
}

// Remove deletes a player registration.
func (s *Service) Remove(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
