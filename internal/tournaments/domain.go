package tournaments

import "time"

// Status enumerates tournament lifecycle states.
type Status string

const (
	// StatusDraft marks a tournament still being configured.
	StatusDraft Status = "draft"
	// StatusOpen marks a tournament accepting signups.
	StatusOpen Status = "open"
	// StatusRunning marks a tournament in play.
	StatusRunning Status = "running"
	// StatusCompleted marks a finished tournament.
	StatusCompleted Status = "completed"
)

// allowedTransitions encodes the legal lifecycle edges.
var allowedTransitions = map[Status]Status{
	StatusDraft:   StatusOpen,
	StatusOpen:    StatusRunning,
	StatusRunning: StatusCompleted,
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from] == to
}

// Tournament is a competition within a league.
type Tournament struct {
	ID        int64     `json:"id"`
	LeagueID  int64     `json:"league_id"`
	GuildID   string    `json:"guild_id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	StartsAt  time.Time `json:"starts_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
