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

// AnonymizeResult summarises one anonymization invocation.
type AnonymizeResult struct {
	AnonymizedCount int    `json:"anonymized_count"`
	Message         string `json:"message"`
}

// AnonymizationConfig wires the retention policy and an optional clock
// override.
type AnonymizationConfig struct {
	Policy RetentionPolicy
	Clock  func() time.Time
}

// AnonymizationService scrubs PII from agents dormant past the inactivity
// window. The row and all its historical relationships stay intact: this
// removes identity, not existence. Placeholder values derive from the row's
// own id suffix, so uniqueness needs no coordination, and the anonymized_at
// filter keeps every run idempotent.
type AnonymizationService struct {
	db     *gorm.DB
	audit  *DeletionAuditService
	policy RetentionPolicy
	now    func() time.Time
	log    *zap.Logger
}

// NewAnonymizationService constructs an AnonymizationService.
func NewAnonymizationService(db *gorm.DB, audit *DeletionAuditService, cfg AnonymizationConfig) (*AnonymizationService, error) {
	if db == nil {
		return nil, errors.New("anonymization service: db is required")
	}
	if audit == nil {
		return nil, errors.New("anonymization service: audit service is required")
	}
	return &AnonymizationService{
		db:     db,
		audit:  audit,
		policy: cfg.Policy,
		now:    ensureClock(cfg.Clock),
		log:    logger.WithModule("anonymization"),
	}, nil
}

// AnonymizeInactive scrubs at most BatchSize dormant agents and invalidates
// their credentials.
func (s *AnonymizationService) AnonymizeInactive(ctx context.Context) (AnonymizeResult, error) {
	ctx = ensureContext(ctx)
	now := s.now()
	cutoff := now.Add(-s.policy.InactiveWindow)

	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.Agent{}).
		Where("last_active_at < ? AND anonymized_at IS NULL", cutoff).
		Order("last_active_at ASC").
		Limit(BatchSize).
		Pluck("id", &ids).Error; err != nil {
		return AnonymizeResult{}, fmt.Errorf("anonymization: scan inactive agents: %w", err)
	}

	if len(ids) == 0 {
		return AnonymizeResult{Message: "no inactive agents past the retention window"}, nil
	}

	anonymized := 0
	for _, id := range ids {
		suffix := idSuffix(id)

		// The anonymized_at guard makes the overwrite safe to re-run:
		// a row already processed by a crashed prior batch is skipped.
		result := s.db.WithContext(ctx).
			Model(&models.Agent{}).
			Where("id = ? AND anonymized_at IS NULL", id).
			Updates(map[string]any{
				"handle":      fmt.Sprintf("deleted_%s", suffix),
				"email":       fmt.Sprintf("agent_%s@anonymized.invalid", suffix),
				"name":        fmt.Sprintf("Deleted Agent %s", suffix),
				"entity_name": fmt.Sprintf("deleted_entity_%s", suffix),
				"bio":         "",
				"avatar_url":  "",
				// Not a bcrypt hash, so no credential can ever verify
				// against it again.
				"api_key_hash":  fmt.Sprintf("ANONYMIZED_%d_%s", now.UnixMilli(), suffix),
				"anonymized_at": now,
			})
		if result.Error != nil {
			return AnonymizeResult{}, fmt.Errorf("anonymization: scrub agent %s: %w", id, result.Error)
		}
		if result.RowsAffected > 0 {
			anonymized++
		}
	}

	if anonymized > 0 {
		if err := s.audit.Record(ctx, AuditEntry{
			ActionType:             models.AuditActionAnonymization,
			TargetType:             "agent",
			TargetCount:            anonymized,
			RetentionPolicyApplied: policyLabel(s.policy.InactiveWindow),
		}); err != nil {
			s.log.Warn("audit record failed", zap.Int("target_count", anonymized), zap.Error(err))
		}
	}

	return AnonymizeResult{
		AnonymizedCount: anonymized,
		Message:         fmt.Sprintf("anonymized %d inactive agents", anonymized),
	}, nil
}
