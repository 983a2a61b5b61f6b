package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskMembershipSync refreshes local membership snapshots from Discord.
	TaskMembershipSync = "guild:membership_sync"
	// TaskAuditRetention purges audit events past the retention window.
	TaskAuditRetention = "audit:retention"
	// TaskCacheWarm pre-fills role/channel caches for known guilds.
	TaskCacheWarm = "discord:cache_warm"
)

// MembershipSyncPayload selects which guild to sync. An empty GuildID syncs
// every guild with stored settings.
type MembershipSyncPayload struct {
	GuildID string `json:"guild_id,omitempty"`
}

// NewMembershipSyncTask constructs a membership sync task.
func NewMembershipSyncTask(payload MembershipSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMembershipSync, data), nil
}

// NewAuditRetentionTask constructs an audit retention task.
func NewAuditRetentionTask() *asynq.Task {
	return asynq.NewTask(TaskAuditRetention, nil)
}

// NewCacheWarmTask constructs a cache warm task.
func NewCacheWarmTask() *asynq.Task {
	return asynq.NewTask(TaskCacheWarm, nil)
}
