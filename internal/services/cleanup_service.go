package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agentmesh/agentmesh/internal/models"
	"github.com/agentmesh/agentmesh/pkg/logger"
)

// CleanupResult summarises one purge invocation.
type CleanupResult struct {
	DeletedCount int    `json:"deleted_count"`
	Message      string `json:"message"`
}

// ExpireResult summarises one export-expiry invocation.
type ExpireResult struct {
	ExpiredCount int    `json:"expired_count"`
	Message      string `json:"message"`
}

// CleanupConfig wires the retention policy and an optional clock override.
type CleanupConfig struct {
	Policy RetentionPolicy
	Clock  func() time.Time
}

// CleanupService runs the age-window batch purges. Each invocation removes
// at most BatchSize rows, oldest first, one row per store call, and appends
// one audit entry per non-empty batch. A run that finds nothing to do is a
// normal no-op and leaves no audit trace.
type CleanupService struct {
	db      *gorm.DB
	audit   *DeletionAuditService
	cascade *CascadeService
	policy  RetentionPolicy
	now     func() time.Time
	log     *zap.Logger
}

// NewCleanupService constructs a CleanupService.
func NewCleanupService(db *gorm.DB, audit *DeletionAuditService, cascade *CascadeService, cfg CleanupConfig) (*CleanupService, error) {
	if db == nil {
		return nil, errors.New("cleanup service: db is required")
	}
	if audit == nil {
		return nil, errors.New("cleanup service: audit service is required")
	}
	if cascade == nil {
		return nil, errors.New("cleanup service: cascade service is required")
	}
	return &CleanupService{
		db:      db,
		audit:   audit,
		cascade: cascade,
		policy:  cfg.Policy,
		now:     ensureClock(cfg.Clock),
		log:     logger.WithModule("cleanup"),
	}, nil
}

// PurgeMessages removes direct messages older than the message retention
// window.
func (s *CleanupService) PurgeMessages(ctx context.Context) (CleanupResult, error) {
	return s.purgeByAge(ctx, &models.Message{}, purgeSpec{
		entity:     "message",
		actionType: models.AuditActionMessagePurge,
		ttl:        s.policy.MessageTTL,
	})
}

// PurgeNotifications removes notifications older than the notification
// retention window.
func (s *CleanupService) PurgeNotifications(ctx context.Context) (CleanupResult, error) {
	return s.purgeByAge(ctx, &models.Notification{}, purgeSpec{
		entity:     "notification",
		actionType: models.AuditActionNotificationPurge,
		ttl:        s.policy.NotificationTTL,
	})
}

// PurgeActivityLogs removes activity log entries older than the activity
// retention window.
func (s *CleanupService) PurgeActivityLogs(ctx context.Context) (CleanupResult, error) {
	return s.purgeByAge(ctx, &models.ActivityLogEntry{}, purgeSpec{
		entity:     "activity_log",
		actionType: models.AuditActionActivityLogPurge,
		ttl:        s.policy.ActivityLogTTL,
	})
}

// PurgeSoftDeletedPosts hard-deletes posts whose soft-delete marker is past
// the grace period, cascading through each post's comments and votes. The
// returned count is posts permanently removed, not total rows touched.
func (s *CleanupService) PurgeSoftDeletedPosts(ctx context.Context) (CleanupResult, error) {
	ctx = ensureContext(ctx)
	cutoff := s.now().Add(-s.policy.PostGracePeriod)

	var postIDs []string
	if err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Order("deleted_at ASC").
		Limit(BatchSize).
		Pluck("id", &postIDs).Error; err != nil {
		return CleanupResult{}, fmt.Errorf("cleanup: scan soft-deleted posts: %w", err)
	}

	if len(postIDs) == 0 {
		return CleanupResult{Message: "no soft-deleted posts past the grace period"}, nil
	}

	for _, postID := range postIDs {
		if err := s.cascade.DeletePostTree(ctx, postID); err != nil {
			return CleanupResult{}, fmt.Errorf("cleanup: purge post %s: %w", postID, err)
		}
	}

	s.recordAudit(ctx, AuditEntry{
		ActionType:             models.AuditActionPostPurge,
		TargetType:             "post",
		TargetCount:            len(postIDs),
		RetentionPolicyApplied: policyLabel(s.policy.PostGracePeriod),
	})

	return CleanupResult{
		DeletedCount: len(postIDs),
		Message:      fmt.Sprintf("permanently removed %d soft-deleted posts", len(postIDs)),
	}, nil
}

// ExpireDataExports marks export requests past their expiry as expired and
// clears the heavy payload, keeping the row as a historical marker. Low
// sensitivity, high volume: no audit entry.
func (s *CleanupService) ExpireDataExports(ctx context.Context) (ExpireResult, error) {
	ctx = ensureContext(ctx)
	now := s.now()

	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.DataExportRequest{}).
		Where("expires_at IS NOT NULL AND expires_at < ? AND status <> ?", now, models.ExportStatusExpired).
		Order("expires_at ASC").
		Limit(BatchSize).
		Pluck("id", &ids).Error; err != nil {
		return ExpireResult{}, fmt.Errorf("cleanup: scan export requests: %w", err)
	}

	if len(ids) == 0 {
		return ExpireResult{Message: "no export requests past expiry"}, nil
	}

	for _, id := range ids {
		if err := s.db.WithContext(ctx).
			Model(&models.DataExportRequest{}).
			Where("id = ? AND status <> ?", id, models.ExportStatusExpired).
			Updates(map[string]any{
				"status":  models.ExportStatusExpired,
				"payload": nil,
			}).Error; err != nil {
			return ExpireResult{}, fmt.Errorf("cleanup: expire export %s: %w", id, err)
		}
	}

	return ExpireResult{
		ExpiredCount: len(ids),
		Message:      fmt.Sprintf("expired %d export requests", len(ids)),
	}, nil
}

type purgeSpec struct {
	entity     string
	actionType string
	ttl        time.Duration
}

// purgeByAge implements the shared single-collection purge contract: scan
// for rows strictly older than the cutoff, take at most BatchSize oldest
// first, delete them one row per call, audit the batch.
func (s *CleanupService) purgeByAge(ctx context.Context, model any, spec purgeSpec) (CleanupResult, error) {
	ctx = ensureContext(ctx)
	cutoff := s.now().Add(-spec.ttl)

	var ids []string
	if err := s.db.WithContext(ctx).
		Model(model).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(BatchSize).
		Pluck("id", &ids).Error; err != nil {
		return CleanupResult{}, fmt.Errorf("cleanup: scan %ss: %w", spec.entity, err)
	}

	if len(ids) == 0 {
		return CleanupResult{Message: fmt.Sprintf("no %ss past retention", spec.entity)}, nil
	}

	for _, id := range ids {
		if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(model).Error; err != nil {
			return CleanupResult{}, fmt.Errorf("cleanup: delete %s %s: %w", spec.entity, id, err)
		}
	}

	s.recordAudit(ctx, AuditEntry{
		ActionType:             spec.actionType,
		TargetType:             spec.entity,
		TargetCount:            len(ids),
		RetentionPolicyApplied: policyLabel(spec.ttl),
	})

	return CleanupResult{
		DeletedCount: len(ids),
		Message:      fmt.Sprintf("deleted %d %ss past retention", len(ids), spec.entity),
	}, nil
}

// recordAudit appends the batch summary, tolerating audit failures: a
// missed audit entry under-counts the ledger but never blocks or reverts
// the already-applied deletions.
func (s *CleanupService) recordAudit(ctx context.Context, entry AuditEntry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn("audit record failed",
			zap.String("action_type", entry.ActionType),
			zap.Int("target_count", entry.TargetCount),
			zap.Error(err))
	}
}
