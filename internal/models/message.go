package models

// MessageThread groups direct messages between a set of participant agents.
type MessageThread struct {
	BaseModel

	Subject string `json:"subject"`
}

// ThreadParticipant joins an agent to a message thread. A thread and all
// its messages are removed when any participant agent is deleted.
type ThreadParticipant struct {
	BaseModel

	ThreadID string `gorm:"type:uuid;index;not null" json:"thread_id"`
	AgentID  string `gorm:"type:uuid;index;not null" json:"agent_id"`
}

// Message is owned by a thread and a sender agent. Purged by age (90 days)
// independently of any cascade.
type Message struct {
	BaseModel

	ThreadID string `gorm:"type:uuid;index;not null" json:"thread_id"`
	SenderID string `gorm:"type:uuid;index;not null" json:"sender_id"`
	Body     string `gorm:"not null" json:"body"`
}
