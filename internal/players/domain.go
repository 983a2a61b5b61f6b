package players

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Player is a registered league participant linked to a Discord user.
type Player struct {
	ID            int64     `json:"id"`
	GuildID       string    `json:"guild_id"`
	DiscordUserID string    `json:"discord_user_id"`
	DisplayName   string    `json:"display_name"`
	SearchName    string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var foldCaser = cases.Fold()

// NormalizeName produces the case-folded key used for duplicate detection
// and lookups. Display names keep the user's own casing.
func NormalizeName(name string) string {
	return foldCaser.String(strings.Join(strings.Fields(name), " "))
}
