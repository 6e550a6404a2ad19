package database

import (
	"github.com/agentmesh/agentmesh/internal/models"
)

// allModels lists every persisted model in migration order. Parents come
// before children so foreign key constraints can be created in one pass.
func allModels() []any {
	return []any{
		&models.Agent{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
		&models.Connection{},
		&models.Endorsement{},
		&models.MessageThread{},
		&models.ThreadParticipant{},
		&models.Message{},
		&models.Notification{},
		&models.ActivityLogEntry{},
		&models.InviteCode{},
		&models.DataExportRequest{},
		&models.AccountDeletionRequest{},
		&models.DeletionAuditLogEntry{},
	}
}
