package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/agentmesh/agentmesh/internal/models"
)

// AuditEntry captures a single destructive batch action to persist.
type AuditEntry struct {
	ActionType             string
	TargetType             string
	TargetCount            int
	RetentionPolicyApplied string
	AgentID                *string
}

// AuditWindow filters compliance queries by execution time.
type AuditWindow struct {
	Since *time.Time
	Until *time.Time
	Limit int
}

// DeletionAuditService appends to and reads the deletion audit ledger.
// The ledger is append-only: there is deliberately no update or delete API.
type DeletionAuditService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDeletionAuditService constructs a DeletionAuditService.
func NewDeletionAuditService(db *gorm.DB) (*DeletionAuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &DeletionAuditService{db: db, now: time.Now}, nil
}

// Record appends one ledger entry for a destructive batch action.
func (s *DeletionAuditService) Record(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.ActionType) == "" {
		return errors.New("audit service: action type is required")
	}
	if strings.TrimSpace(entry.TargetType) == "" {
		return errors.New("audit service: target type is required")
	}
	if entry.TargetCount < 0 {
		return errors.New("audit service: target count must not be negative")
	}

	row := models.DeletionAuditLogEntry{
		ActionType:             strings.TrimSpace(entry.ActionType),
		TargetType:             strings.TrimSpace(entry.TargetType),
		TargetCount:            entry.TargetCount,
		RetentionPolicyApplied: strings.TrimSpace(entry.RetentionPolicyApplied),
		ExecutedBy:             models.AuditExecutorCron,
		ExecutedAt:             s.now().UTC(),
	}

	if entry.AgentID != nil && strings.TrimSpace(*entry.AgentID) != "" {
		id := strings.TrimSpace(*entry.AgentID)
		row.AgentID = &id
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("audit service: record entry: %w", err)
	}
	return nil
}

// ListForAgent returns ledger entries referencing the supplied agent,
// newest first.
func (s *DeletionAuditService) ListForAgent(ctx context.Context, agentID string, limit int) ([]models.DeletionAuditLogEntry, error) {
	ctx = ensureContext(ctx)

	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, errors.New("audit service: agent id is required")
	}

	var rows []models.DeletionAuditLogEntry
	if err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("executed_at DESC").
		Limit(normaliseLimit(limit)).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("audit service: list for agent: %w", err)
	}
	return rows, nil
}

// List returns ledger entries inside the supplied execution window, newest
// first.
func (s *DeletionAuditService) List(ctx context.Context, window AuditWindow) ([]models.DeletionAuditLogEntry, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.DeletionAuditLogEntry{})
	if window.Since != nil {
		query = query.Where("executed_at >= ?", *window.Since)
	}
	if window.Until != nil {
		query = query.Where("executed_at <= ?", *window.Until)
	}

	var rows []models.DeletionAuditLogEntry
	if err := query.
		Order("executed_at DESC").
		Limit(normaliseLimit(window.Limit)).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("audit service: list entries: %w", err)
	}
	return rows, nil
}

func normaliseLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
