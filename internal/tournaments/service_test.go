package tournaments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	nextID      int64
	tournaments map[int64]Tournament
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, tournaments: map[int64]Tournament{}}
}

func (m *memoryRepo) ListByLeague(ctx context.Context, leagueID int64) ([]Tournament, error) {
	var out []Tournament
	for _, t := range m.tournaments {
		if t.LeagueID == leagueID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Tournament, error) {
	t, ok := m.tournaments[id]
	if !ok {
		return Tournament{}, ErrNotFound
	}
	return t, nil
}

func (m *memoryRepo) Create(ctx context.Context, t Tournament) (Tournament, error) {
	t.ID = m.nextID
	m.nextID++
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.tournaments[t.ID] = t
	return t, nil
}

func (m *memoryRepo) Update(ctx context.Context, t Tournament) (Tournament, error) {
	if _, ok := m.tournaments[t.ID]; !ok {
		return Tournament{}, ErrNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	m.tournaments[t.ID] = t
	return t, nil
}

func TestCreateStartsAsDraft(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), 1, "guild-1", "  Summer Open  ", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, created.Status)
	assert.Equal(t, "Summer Open", created.Name)
	assert.False(t, created.StartsAt.IsZero())
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), 1, "guild-1", "   ", time.Time{})
	require.Error(t, err)
}

func TestAdvanceWalksLifecycleInOrder(t *testing.T) {
	svc := NewService(newMemoryRepo())
	created, err := svc.Create(context.Background(), 1, "guild-1", "Summer Open", time.Time{})
	require.NoError(t, err)

	for _, next := range []Status{StatusOpen, StatusRunning, StatusCompleted} {
		advanced, err := svc.Advance(context.Background(), created.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, advanced.Status)
	}
}

func TestAdvanceRejectsIllegalTransitions(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
	}{
		{"skip ahead", StatusDraft, StatusRunning},
		{"straight to completed", StatusDraft, StatusCompleted},
		{"backwards", StatusRunning, StatusOpen},
		{"completed is terminal", StatusCompleted, StatusRunning},
		{"self transition", StatusOpen, StatusOpen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemoryRepo()
			svc := NewService(repo)
			seeded, err := repo.Create(context.Background(), Tournament{LeagueID: 1, GuildID: "guild-1", Name: "Seeded", Status: tc.from})
			require.NoError(t, err)

			_, err = svc.Advance(context.Background(), seeded.ID, tc.to)
			require.ErrorIs(t, err, ErrBadTransition)
		})
	}
}

func TestAdvanceUnknownTournament(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Advance(context.Background(), 42, StatusOpen)
	require.ErrorIs(t, err, ErrNotFound)
}
