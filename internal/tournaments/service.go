package tournaments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBadTransition indicates an illegal lifecycle change.
var ErrBadTransition = errors.New("tournaments: illegal status transition")

// Service handles tournament business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListByLeague returns a league's tournaments, newest first.
func (s *Service) ListByLeague(ctx context.Context, leagueID int64) ([]Tournament, error) {
	return s.repo.ListByLeague(ctx, leagueID)
}

// Get returns one tournament.
func (s *Service) Get(ctx context.Context, id int64) (Tournament, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a draft tournament in a league.
func (s *Service) Create(ctx context.Context, leagueID int64, guildID, name string, startsAt time.Time) (Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tournament{}, errors.New("tournaments: name required")
	}
	if startsAt.IsZero() {
		startsAt = time.Now().UTC()
	}
	return s.repo.Create(ctx, Tournament{
		LeagueID: leagueID,
		GuildID:  guildID,
		Name:     name,
		Status:   StatusDraft,
		StartsAt: startsAt,
	})
}

// Advance moves a tournament along its lifecycle: draft → open → running →
// completed. Skipping states or moving backwards is rejected.
func (s *Service) Advance(ctx context.Context, id int64, to Status) (Tournament, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Tournament{}, err
	}
	if !CanTransition(t.Status, to) {
		return Tournament{}, fmt.Errorf("%w: %s -> %s", ErrBadTransition, t.Status, to)
	}
	t.Status = to
	return s.repo.Update(ctx, t)
}
