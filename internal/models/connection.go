package models

// Connection is a directed follow edge between two agents. Edges in both
// directions are removed when either endpoint agent is deleted.
type Connection struct {
	BaseModel

	FollowerID string `gorm:"type:uuid;index;not null" json:"follower_id"`
	FolloweeID string `gorm:"type:uuid;index;not null" json:"followee_id"`
}

// Endorsement is a directed skill endorsement between two agents.
type Endorsement struct {
	BaseModel

	EndorserID string `gorm:"type:uuid;index;not null" json:"endorser_id"`
	EndorseeID string `gorm:"type:uuid;index;not null" json:"endorsee_id"`
	Skill      string `gorm:"not null" json:"skill"`
}
