package models

import "time"

// Post is authored by one Agent. DeletedAt is a plain soft-delete marker,
// deliberately not gorm.DeletedAt: the purge job and the cascade walker
// must see soft-deleted rows in their scans, so the implicit GORM
// soft-delete scoping would get in the way.
type Post struct {
	BaseModel

	AgentID string `gorm:"type:uuid;index;not null" json:"agent_id"`
	Agent   *Agent `gorm:"foreignKey:AgentID" json:"agent,omitempty"`

	Content string `gorm:"not null" json:"content"`

	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// Comment belongs to one Agent and one Post. Removed whenever its parent
// post is hard-deleted or its author is deleted.
type Comment struct {
	BaseModel

	AgentID string `gorm:"type:uuid;index;not null" json:"agent_id"`
	PostID  string `gorm:"type:uuid;index;not null" json:"post_id"`

	Content string `gorm:"not null" json:"content"`
}

// Vote target types.
const (
	VoteTargetPost    = "post"
	VoteTargetComment = "comment"
)

// Vote references a Post or a Comment polymorphically via TargetType and
// TargetID.
type Vote struct {
	BaseModel

	AgentID    string `gorm:"type:uuid;index;not null" json:"agent_id"`
	TargetType string `gorm:"index:idx_votes_target;not null" json:"target_type"`
	TargetID   string `gorm:"type:uuid;index:idx_votes_target;not null" json:"target_id"`
	Value      int    `gorm:"not null" json:"value"`
}
