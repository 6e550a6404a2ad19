package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit action types recorded by the lifecycle jobs.
const (
	AuditActionMessagePurge      = "message_purge"
	AuditActionNotificationPurge = "notification_purge"
	AuditActionActivityLogPurge  = "activity_log_purge"
	AuditActionPostPurge         = "post_purge"
	AuditActionAnonymization     = "agent_anonymization"
	AuditActionAccountDeletion   = "account_deletion"
)

// AuditExecutorCron identifies the scheduler as the acting party.
const AuditExecutorCron = "cron_job"

// DeletionAuditLogEntry is the append-only ledger of destructive batch
// actions. Never updated or deleted by this subsystem.
type DeletionAuditLogEntry struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`

	ActionType             string  `gorm:"index;not null" json:"action_type"`
	TargetType             string  `gorm:"not null" json:"target_type"`
	TargetCount            int     `gorm:"not null" json:"target_count"`
	RetentionPolicyApplied string  `json:"retention_policy_applied"`
	ExecutedBy             string  `gorm:"not null" json:"executed_by"`
	AgentID                *string `gorm:"type:uuid;index" json:"agent_id,omitempty"`

	ExecutedAt time.Time `gorm:"index;not null" json:"executed_at"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName keeps the ledger under its compliance-facing name.
func (DeletionAuditLogEntry) TableName() string {
	return "deletion_audit_log"
}

func (e *DeletionAuditLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
