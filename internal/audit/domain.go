// Package audit durably records authorization decisions and other
// privileged activity for forensic review. Recording is observability, not
// a correctness gate: a failed audit write never surfaces to the operation
// that triggered it.
package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category tags audit events for storage-side filtering.
type Category string

const (
	// CategoryAdminCheck marks guild administrator permission checks.
	CategoryAdminCheck Category = "admin_check"
	// CategoryOwnershipCheck marks resource-ownership checks.
	CategoryOwnershipCheck Category = "ownership_check"
	// CategoryMemberCheck marks member-level permission checks.
	CategoryMemberCheck Category = "member_check"
	// CategoryActivity is the catch-all for unclassified actions.
	CategoryActivity Category = "activity"
)

// Entry is the caller-facing projection of a decision or activity to record.
type Entry struct {
	ActorID   string
	ActorType string
	GuildID   string
	EntityRef string
	Action    string
	Result    string
	Reason    string
	Meta      map[string]any
}

// Event is the persisted, append-only audit record.
type Event struct {
	ID        uuid.UUID
	Category  Category
	ActorID   string
	ActorType string
	GuildID   string
	EntityRef string
	Action    string
	Result    string
	Reason    string
	Meta      map[string]any
	CreatedAt time.Time
}

// Classify maps an action name onto a category. Unrecognized actions fall
// into the generic activity bucket rather than erroring.
func Classify(action string) Category {
	switch {
	case strings.HasPrefix(action, "admin."), strings.HasSuffix(action, ".admin"):
		return CategoryAdminCheck
	case strings.Contains(action, ".owner"):
		return CategoryOwnershipCheck
	case strings.Contains(action, ".member"):
		return CategoryMemberCheck
	default:
		return CategoryActivity
	}
}
