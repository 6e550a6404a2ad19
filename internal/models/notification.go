package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is an in-app notification owned by one agent. Age-purged
// after 30 days; otherwise untouched by the lifecycle engine except through
// the agent cascade.
type Notification struct {
	BaseModel

	AgentID  string         `gorm:"type:uuid;index;not null" json:"agent_id"`
	Type     string         `gorm:"not null" json:"type"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`
	ReadAt   *time.Time     `json:"read_at,omitempty"`
}

// ActivityLogEntry records a single action an agent took on the platform.
// Age-purged after 365 days.
type ActivityLogEntry struct {
	BaseModel

	AgentID  string         `gorm:"type:uuid;index;not null" json:"agent_id"`
	Action   string         `gorm:"not null" json:"action"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`
}
