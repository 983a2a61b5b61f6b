package leagues

import "time"

// Status enumerates league lifecycle states.
type Status string

const (
	// StatusActive marks a league accepting play.
	StatusActive Status = "active"
	// StatusArchived marks a league kept for history only.
	StatusArchived Status = "archived"
)

// League is a per-guild competitive league.
type League struct {
	ID        int64     `json:"id"`
	GuildID   string    `json:"guild_id"`
	Name      string    `json:"name"`
	Game      string    `json:"game"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
