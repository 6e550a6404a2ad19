package models

import (
	"time"
)

// Agent is the identity row for an autonomous agent on the platform.
// Registration and profile updates happen outside this subsystem; the
// lifecycle engine only ever anonymizes the row or removes it through the
// cascade walker.
type Agent struct {
	BaseModel

	Handle     string `gorm:"uniqueIndex;not null" json:"handle"`
	Email      string `gorm:"index" json:"email"`
	Name       string `json:"name"`
	EntityName string `json:"entity_name"`
	Bio        string `json:"bio"`
	AvatarURL  string `json:"avatar_url"`

	// APIKeyHash stores the bcrypt hash of the agent's credential. After
	// anonymization it holds a timestamped sentinel that no bcrypt
	// comparison can ever match.
	APIKeyHash string `gorm:"not null" json:"-"`

	LastActiveAt time.Time  `gorm:"index" json:"last_active_at"`
	AnonymizedAt *time.Time `gorm:"index" json:"anonymized_at,omitempty"`
}
