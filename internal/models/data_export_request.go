package models

import (
	"time"

	"gorm.io/datatypes"
)

// DataExportRequest states.
const (
	ExportStatusPending    = "pending"
	ExportStatusProcessing = "processing"
	ExportStatusCompleted  = "completed"
	ExportStatusFailed     = "failed"
	ExportStatusExpired    = "expired"
)

// DataExportRequest tracks an agent's request for a copy of its data. The
// expiry job clears the heavy payload and flips the status to expired,
// leaving the row as a historical marker.
type DataExportRequest struct {
	BaseModel

	AgentID string `gorm:"type:uuid;index;not null" json:"agent_id"`
	Status  string `gorm:"index;not null;default:pending" json:"status"`

	Payload   datatypes.JSON `json:"-"`
	ExpiresAt *time.Time     `gorm:"index" json:"expires_at,omitempty"`
}
