package models

import "time"

// AccountDeletionRequest states. A processing request that fails mid-cascade
// reverts to pending so the next scheduled run retries it.
const (
	DeletionStatusPending    = "pending"
	DeletionStatusProcessing = "processing"
	DeletionStatusCompleted  = "completed"
	DeletionStatusCancelled  = "cancelled"
)

// AccountDeletionRequest tracks a grace-period account deletion. At most one
// pending request may exist per agent at any time.
type AccountDeletionRequest struct {
	BaseModel

	AgentID string `gorm:"type:uuid;index;not null" json:"agent_id"`
	Status  string `gorm:"index;not null;default:pending" json:"status"`
	Reason  string `json:"reason,omitempty"`

	ScheduledFor       time.Time  `gorm:"index;not null" json:"scheduled_for"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}
