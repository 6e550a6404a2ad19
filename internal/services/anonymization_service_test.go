package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agentmesh/agentmesh/internal/database/testutil"
	"github.com/agentmesh/agentmesh/internal/models"
	"github.com/agentmesh/agentmesh/pkg/crypto"
)

func newAnonymizationService(t *testing.T, db *gorm.DB, clock *fixedClock) *AnonymizationService {
	t.Helper()

	svc, err := NewAnonymizationService(db, newAuditService(t, db), AnonymizationConfig{
		Policy: DefaultRetentionPolicy(),
		Clock:  clock.Now,
	})
	require.NoError(t, err)
	return svc
}

func setLastActive(t *testing.T, db *gorm.DB, agentID string, ts time.Time) {
	t.Helper()
	require.NoError(t, db.Model(&models.Agent{}).Where("id = ?", agentID).Update("last_active_at", ts).Error)
}

func TestAnonymizeInactiveScrubsDormantAgent(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clock := testClock()
	svc := newAnonymizationService(t, db, clock)

	dormant := seedAgent(t, db, "dormant")
	setLastActive(t, db, dormant.ID, clock.Now().Add(-731*day))

	active := seedAgent(t, db, "active")
	setLastActive(t, db, active.ID, clock.Now().Add(-729*day))

	result, err := svc.AnonymizeInactive(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.AnonymizedCount)

	var scrubbed models.Agent
	require.NoError(t, db.First(&scrubbed, "id = ?", dormant.ID).Error)
	require.Contains(t, scrubbed.Handle, "deleted_")
	require.Contains(t, scrubbed.Email, "@anonymized.invalid")
	require.Contains(t, scrubbed.Name, "Deleted Agent")
	require.Contains(t, scrubbed.EntityName, "deleted_entity_")
	require.Empty(t, scrubbed.Bio)
	require.Empty(t, scrubbed.AvatarURL)
	require.Contains(t, scrubbed.APIKeyHash, "ANONYMIZED_")
	require.NotNil(t, scrubbed.AnonymizedAt)

	// The original credential can never verify against the sentinel value.
	require.False(t, crypto.VerifyAPIKey(scrubbed.APIKeyHash, "sk-dormant"))

	var untouched models.Agent
	require.NoError(t, db.First(&untouched, "id = ?", active.ID).Error)
	require.Equal(t, "active", untouched.Handle)
	require.Nil(t, untouched.AnonymizedAt)

	require.Equal(t, int64(1), countRows(t, db, &models.DeletionAuditLogEntry{}, "action_type = ?", models.AuditActionAnonymization))
}

func TestAnonymizeInactivePreservesRelationships(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clock := testClock()
	svc := newAnonymizationService(t, db, clock)

	dormant := seedAgent(t, db, "ghost")
	setLastActive(t, db, dormant.ID, clock.Now().Add(-800*day))

	post := seedPost(t, db, dormant.ID, "written long ago")
	seedComment(t, db, dormant.ID, post.ID)

	result, err := svc.AnonymizeInactive(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.AnonymizedCount)

	// Anonymization removes identity, not content.
	require.Equal(t, int64(1), countRows(t, db, &models.Agent{}, "id = ?", dormant.ID))
	require.Equal(t, int64(1), countRows(t, db, &models.Post{}, "agent_id = ?", dormant.ID))
	require.Equal(t, int64(1), countRows(t, db, &models.Comment{}, "agent_id = ?", dormant.ID))
}

func TestAnonymizeInactiveSecondRunIsNoOp(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clock := testClock()
	svc := newAnonymizationService(t, db, clock)

	dormant := seedAgent(t, db, "once")
	setLastActive(t, db, dormant.ID, clock.Now().Add(-900*day))

	first, err := svc.AnonymizeInactive(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.AnonymizedCount)

	second, err := svc.AnonymizeInactive(context.Background())
	require.NoError(t, err)
	require.Zero(t, second.AnonymizedCount)

	// No second audit entry for an empty run.
	require.Equal(t, int64(1), countRows(t, db, &models.DeletionAuditLogEntry{}, "action_type = ?", models.AuditActionAnonymization))
}

func TestAnonymizeInactiveSkipsAlreadyAnonymizedRows(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clock := testClock()
	svc := newAnonymizationService(t, db, clock)

	done := seedAgent(t, db, "prior")
	earlier := clock.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Agent{}).Where("id = ?", done.ID).Updates(map[string]any{
		"last_active_at": clock.Now().Add(-800 * day),
		"anonymized_at":  earlier,
		"handle":         "deleted_prior123",
	}).Error)

	result, err := svc.AnonymizeInactive(context.Background())
	require.NoError(t, err)
	require.Zero(t, result.AnonymizedCount)

	var reloaded models.Agent
	require.NoError(t, db.First(&reloaded, "id = ?", done.ID).Error)
	require.Equal(t, "deleted_prior123", reloaded.Handle)
	require.True(t, reloaded.AnonymizedAt.Equal(earlier))
}
