package trackers

import "time"

// Platform enumerates supported tracker platforms.
type Platform string

const (
	// PlatformSteam links a Steam account.
	PlatformSteam Platform = "steam"
	// PlatformEpic links an Epic Games account.
	PlatformEpic Platform = "epic"
	// PlatformPSN links a PlayStation Network account.
	PlatformPSN Platform = "psn"
	// PlatformXbox links an Xbox Live account.
	PlatformXbox Platform = "xbl"
)

// KnownPlatform reports whether p is a supported platform tag.
func KnownPlatform(p Platform) bool {
	switch p {
	case PlatformSteam, PlatformEpic, PlatformPSN, PlatformXbox:
		return true
	}
	return false
}

// Tracker links a player to an external stat-tracking identity.
type Tracker struct {
	ID         int64     `json:"id"`
	PlayerID   int64     `json:"player_id"`
	Platform   Platform  `json:"platform"`
	ExternalID string    `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
}
