package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agentmesh/agentmesh/internal/models"
	"github.com/agentmesh/agentmesh/pkg/logger"
)

// RequestDeletionResult is returned to the compliance layer when a deletion
// request is accepted.
type RequestDeletionResult struct {
	RequestID             string    `json:"request_id"`
	ScheduledDeletionDate time.Time `json:"scheduled_deletion_date"`
	Message               string    `json:"message"`
}

// CancelDeletionResult confirms a cancelled request.
type CancelDeletionResult struct {
	Message string `json:"message"`
}

// DeletionStatus reports the agent's pending request, if any, plus recent
// request history.
type DeletionStatus struct {
	PendingDeletion *models.AccountDeletionRequest  `json:"pending_deletion,omitempty"`
	RecentRequests  []models.AccountDeletionRequest `json:"recent_requests"`
}

// ProcessResult summarises one scheduled processing run.
type ProcessResult struct {
	ProcessedCount int    `json:"processed_count"`
	Message        string `json:"message"`
}

// DeletionRequestConfig wires the retention policy and an optional clock
// override.
type DeletionRequestConfig struct {
	Policy RetentionPolicy
	Clock  func() time.Time
}

// DeletionRequestService manages the grace-period account deletion state
// machine: pending -> cancelled, or pending -> processing -> completed. A
// processing request that fails mid-cascade reverts to pending so the next
// scheduled run retries it; the cascade walker's idempotence makes those
// retries converge.
type DeletionRequestService struct {
	db      *gorm.DB
	audit   *DeletionAuditService
	cascade *CascadeService
	policy  RetentionPolicy
	now     func() time.Time
	log     *zap.Logger
}

// NewDeletionRequestService constructs a DeletionRequestService.
func NewDeletionRequestService(db *gorm.DB, audit *DeletionAuditService, cascade *CascadeService, cfg DeletionRequestConfig) (*DeletionRequestService, error) {
	if db == nil {
		return nil, errors.New("deletion service: db is required")
	}
	if audit == nil {
		return nil, errors.New("deletion service: audit service is required")
	}
	if cascade == nil {
		return nil, errors.New("deletion service: cascade service is required")
	}
	return &DeletionRequestService{
		db:      db,
		audit:   audit,
		cascade: cascade,
		policy:  cfg.Policy,
		now:     ensureClock(cfg.Clock),
		log:     logger.WithModule("deletion"),
	}, nil
}

// Request registers a deletion request for the agent, scheduled for
// execution after the grace period. At most one pending request may exist
// per agent; a duplicate is rejected with no state change.
func (s *DeletionRequestService) Request(ctx context.Context, agentID, reason string) (*RequestDeletionResult, error) {
	ctx = ensureContext(ctx)

	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, errors.New("deletion service: agent id is required")
	}

	now := s.now()
	request := &models.AccountDeletionRequest{
		AgentID:      agentID,
		Status:       models.DeletionStatusPending,
		Reason:       strings.TrimSpace(reason),
		ScheduledFor: now.Add(s.policy.DeletionGracePeriod),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var agent models.Agent
		if err := tx.First(&agent, "id = ?", agentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAgentNotFound
			}
			return fmt.Errorf("deletion service: load agent: %w", err)
		}

		var pending int64
		if err := tx.Model(&models.AccountDeletionRequest{}).
			Where("agent_id = ? AND status = ?", agentID, models.DeletionStatusPending).
			Count(&pending).Error; err != nil {
			return fmt.Errorf("deletion service: check pending requests: %w", err)
		}
		if pending > 0 {
			return ErrDeletionAlreadyPending
		}

		if err := tx.Create(request).Error; err != nil {
			return fmt.Errorf("deletion service: create request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &RequestDeletionResult{
		RequestID:             request.ID,
		ScheduledDeletionDate: request.ScheduledFor,
		Message:               fmt.Sprintf("account deletion scheduled for %s; cancel any time before then", request.ScheduledFor.UTC().Format(time.RFC3339)),
	}, nil
}

// Cancel aborts the agent's pending request. Only a pending request can be
// cancelled; no other data is touched.
func (s *DeletionRequestService) Cancel(ctx context.Context, agentID, reason string) (*CancelDeletionResult, error) {
	ctx = ensureContext(ctx)

	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, errors.New("deletion service: agent id is required")
	}

	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&models.AccountDeletionRequest{}).
		Where("agent_id = ? AND status = ?", agentID, models.DeletionStatusPending).
		Updates(map[string]any{
			"status":              models.DeletionStatusCancelled,
			"cancelled_at":        now,
			"cancellation_reason": strings.TrimSpace(reason),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("deletion service: cancel request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNoPendingDeletion
	}

	return &CancelDeletionResult{Message: "account deletion request cancelled"}, nil
}

// Status returns the agent's pending request, if any, and its most recent
// request history.
func (s *DeletionRequestService) Status(ctx context.Context, agentID string) (*DeletionStatus, error) {
	ctx = ensureContext(ctx)

	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, errors.New("deletion service: agent id is required")
	}

	var recent []models.AccountDeletionRequest
	if err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Limit(10).
		Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("deletion service: list requests: %w", err)
	}

	status := &DeletionStatus{RecentRequests: recent}
	for i := range recent {
		if recent[i].Status == models.DeletionStatusPending {
			status.PendingDeletion = &recent[i]
			break
		}
	}
	return status, nil
}

// ProcessDue executes every pending request whose grace period has elapsed.
// A request whose agent is already gone (a previous partial run removed it)
// completes immediately. Any error during the cascade reverts the request
// to pending for automatic retry on the next scheduled run.
func (s *DeletionRequestService) ProcessDue(ctx context.Context) (ProcessResult, error) {
	ctx = ensureContext(ctx)
	now := s.now()

	var due []models.AccountDeletionRequest
	if err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", models.DeletionStatusPending, now).
		Order("scheduled_for ASC").
		Limit(BatchSize).
		Find(&due).Error; err != nil {
		return ProcessResult{}, fmt.Errorf("deletion service: scan due requests: %w", err)
	}

	if len(due) == 0 {
		return ProcessResult{Message: "no deletion requests due"}, nil
	}

	processed := 0
	for _, request := range due {
		claimed := s.db.WithContext(ctx).
			Model(&models.AccountDeletionRequest{}).
			Where("id = ? AND status = ?", request.ID, models.DeletionStatusPending).
			Update("status", models.DeletionStatusProcessing)
		if claimed.Error != nil {
			return ProcessResult{}, fmt.Errorf("deletion service: claim request %s: %w", request.ID, claimed.Error)
		}
		if claimed.RowsAffected == 0 {
			continue
		}

		if err := s.executeRequest(ctx, request); err != nil {
			s.log.Warn("deletion cascade failed; request reverted to pending",
				zap.String("request_id", request.ID),
				zap.String("agent_id", request.AgentID),
				zap.Error(err))
			s.revertToPending(ctx, request.ID)
			continue
		}
		processed++
	}

	return ProcessResult{
		ProcessedCount: processed,
		Message:        fmt.Sprintf("processed %d account deletions", processed),
	}, nil
}

func (s *DeletionRequestService) executeRequest(ctx context.Context, request models.AccountDeletionRequest) error {
	var agent models.Agent
	err := s.db.WithContext(ctx).First(&agent, "id = ?", request.AgentID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// A previous partial run already removed the agent; the request
		// just needs closing.
		return s.markCompleted(ctx, request.ID)
	case err != nil:
		return fmt.Errorf("deletion service: load agent %s: %w", request.AgentID, err)
	}

	if err := s.cascade.DeleteAgentTree(ctx, agent.ID); err != nil {
		return err
	}

	if err := s.markCompleted(ctx, request.ID); err != nil {
		return err
	}

	agentID := agent.ID
	if err := s.audit.Record(ctx, AuditEntry{
		ActionType:             models.AuditActionAccountDeletion,
		TargetType:             "agent",
		TargetCount:            1,
		RetentionPolicyApplied: policyLabel(s.policy.DeletionGracePeriod),
		AgentID:                &agentID,
	}); err != nil {
		s.log.Warn("audit record failed", zap.String("agent_id", agentID), zap.Error(err))
	}
	return nil
}

func (s *DeletionRequestService) markCompleted(ctx context.Context, requestID string) error {
	now := s.now()
	if err := s.db.WithContext(ctx).
		Model(&models.AccountDeletionRequest{}).
		Where("id = ? AND status = ?", requestID, models.DeletionStatusProcessing).
		Updates(map[string]any{
			"status":       models.DeletionStatusCompleted,
			"completed_at": now,
		}).Error; err != nil {
		return fmt.Errorf("deletion service: complete request %s: %w", requestID, err)
	}
	return nil
}

// revertToPending is best effort: if the revert itself fails the row stays
// in processing and is surfaced by Status until a later run or operator
// intervention.
func (s *DeletionRequestService) revertToPending(ctx context.Context, requestID string) {
	if err := s.db.WithContext(ctx).
		Model(&models.AccountDeletionRequest{}).
		Where("id = ? AND status = ?", requestID, models.DeletionStatusProcessing).
		Update("status", models.DeletionStatusPending).Error; err != nil {
		s.log.Error("failed to revert request to pending", zap.String("request_id", requestID), zap.Error(err))
	}
}
