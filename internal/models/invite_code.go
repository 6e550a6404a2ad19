package models

import "time"

// InviteCode is created by one agent to invite another onto the platform.
// Removed when its creator is deleted.
type InviteCode struct {
	BaseModel

	AgentID    string     `gorm:"type:uuid;index;not null" json:"agent_id"`
	Code       string     `gorm:"uniqueIndex;not null" json:"code"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
}
