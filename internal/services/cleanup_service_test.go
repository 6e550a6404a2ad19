package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agentmesh/agentmesh/internal/database/testutil"
	"github.com/agentmesh/agentmesh/internal/models"
)

func newCleanupService(t *testing.T, db *gorm.DB, clock *fixedClock) *CleanupService {
	t.Helper()

	svc, err := NewCleanupService(db, newAuditService(t, db), newCascadeService(t, db), CleanupConfig{
		Policy: DefaultRetentionPolicy(),
		Clock:  clock.Now,
	})
	require.NoError(t, err)
	return svc
}

func backdate(t *testing.T, db *gorm.DB, model any, id string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, db.Model(model).Where("id = ?", id).Update("created_at", createdAt).Error)
}

func TestPurgeMessagesDeletesOnlyExpiredRows(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clock := testClock()
	svc := newCleanupService(t, db, clock)

	sender := seedAgent(t, db, "sender")
	thread := &models.MessageThread{Subject: "ops"}
	require.NoError(t, db.Create(thread).Error)

	old := &models.Message{ThreadID: thread.ID, SenderID: sender.ID, Body: "stale"}
	require.NoError(t, db.Create(old).Error)
	backdate(t, db, &models.Message{}, old.ID, clock.Now().Add(-91*day))

	fresh := &models.Message{ThreadID: thread.ID, SenderID: sender.ID, Body: "recent"}
	require.NoError(t, db.Create(fresh).Error)
	backdate(t, db, &models.Message{}, fresh.ID, clock.Now().Add(-89*day))

	result, err := svc.PurgeMessages(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.DeletedCount)

	require.Zero(t, countRows(t, db, &models.Message{}, "id = ?", old.ID))
	require.Equal(t, int64(1), countRows(t, db, &models.Message{}, "id = ?", fresh.ID))

	// The thread itself is untouched by the age purge.
	require.Equal(t, int64(1), countRows(t, db, &models.MessageThread{}, "id = ?", thread.ID))

	// One audit entry summarises the batch.
	require.Equal(t, int64(1), countRows(t, db, &models.DeletionAuditLogEntry{}, "action_type = ?", models.AuditActionMessagePurge))
}

func TestPurgeIsIdempotentAndSkipsAuditWhenEmpty(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clock := testClock()
	svc := newCleanupService(t, db, clock)

	agent := seedAgent(t, db, "quiet")
	n := &models.Notification{AgentID: agent.ID, Type: "mention"}
	require.NoError(t, db.Create(n).Error)
	backdate(t, db, &models.Notification{}, n.ID, clock.Now().Add(-31*day))

	first, err := svc.PurgeNotifications(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.DeletedCount)

	second, err := svc.PurgeNotifications(context.Background())
	require.NoError(t, err)
	require.Zero(t, second.DeletedCount)

	// A no-op run is distinguishable from a real action by audit absence.
	require.Equal(t, int64(1), countRows(t, db, &models.DeletionAuditLogEntry{}, "action_type = ?", models.AuditActionNotificationPurge))
}

func TestPurgeActivityLogsBoundedByBatchSize(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clock := testClock()
	svc := newCleanupService(t, db, clock)

	agent := seedAgent(t, db, "chatty")
	for i := 0; i < BatchSize+5; i++ {
		entry := &models.ActivityLogEntry{AgentID: agent.ID, Action: fmt.Sprintf("action.%d", i)}
		require.NoError(t, db.Create(entry).Error)
		backdate(t, db, &models.ActivityLogEntry{}, entry.ID, clock.Now().Add(-400*day))
	}

	result, err := svc.PurgeActivityLogs(context.Background())
	require.NoError(t, err)
	require.Equal(t, BatchSize, result.DeletedCount)
	require.Equal(t, int64(5), countRows(t, db, &models.ActivityLogEntry{}, ""))

	// The backlog drains on the next run.
	result, err = svc.PurgeActivityLogs(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, result.DeletedCount)
	require.Zero(t, countRows(t, db, &models.ActivityLogEntry{}, ""))
}

func TestPurgeSoftDeletedPostsCascadesCommentsAndVotes(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clock := testClock()
	svc := newCleanupService(t, db, clock)

	agent := seedAgent(t, db, "poster")
	peer := seedAgent(t, db, "reader")

	post := seedPost(t, db, agent.ID, "soft deleted long ago")
	c1 := seedComment(t, db, peer.ID, post.ID)
	c2 := seedComment(t, db, agent.ID, post.ID)
	seedVote(t, db, peer.ID, models.VoteTargetPost, post.ID)
	seedVote(t, db, peer.ID, models.VoteTargetComment, c1.ID)
	seedVote(t, db, agent.ID, models.VoteTargetComment, c2.ID)

	deletedAt := clock.Now().Add(-31 * day)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Update("deleted_at", deletedAt).Error)

	result, err := svc.PurgeSoftDeletedPosts(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.DeletedCount)

	require.Zero(t, countRows(t, db, &models.Post{}, "id = ?", post.ID))
	require.Zero(t, countRows(t, db, &models.Comment{}, "post_id = ?", post.ID))
	require.Zero(t, countRows(t, db, &models.Vote{}, ""))

	var audit models.DeletionAuditLogEntry
	require.NoError(t, db.Where("action_type = ?", models.AuditActionPostPurge).First(&audit).Error)
	require.Equal(t, 1, audit.TargetCount)
	require.Equal(t, "post", audit.TargetType)
	require.Equal(t, models.AuditExecutorCron, audit.ExecutedBy)
}

func TestPurgeSoftDeletedPostsHonoursGracePeriod(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clock := testClock()
	svc := newCleanupService(t, db, clock)

	agent := seedAgent(t, db, "grace")
	post := seedPost(t, db, agent.ID, "recently soft deleted")
	deletedAt := clock.Now().Add(-29 * day)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Update("deleted_at", deletedAt).Error)

	live := seedPost(t, db, agent.ID, "still live")

	result, err := svc.PurgeSoftDeletedPosts(context.Background())
	require.NoError(t, err)
	require.Zero(t, result.DeletedCount)

	require.Equal(t, int64(1), countRows(t, db, &models.Post{}, "id = ?", post.ID))
	require.Equal(t, int64(1), countRows(t, db, &models.Post{}, "id = ?", live.ID))
	require.Zero(t, countRows(t, db, &models.DeletionAuditLogEntry{}, ""))
}

func TestExpireDataExportsClearsPayload(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clock := testClock()
	svc := newCleanupService(t, db, clock)

	agent := seedAgent(t, db, "exporter")

	expired := clock.Now().Add(-time.Hour)
	doneReq := &models.DataExportRequest{
		AgentID:   agent.ID,
		Status:    models.ExportStatusCompleted,
		Payload:   []byte(`{"posts":[{"content":"big"}]}`),
		ExpiresAt: &expired,
	}
	require.NoError(t, db.Create(doneReq).Error)

	future := clock.Now().Add(time.Hour)
	liveReq := &models.DataExportRequest{
		AgentID:   agent.ID,
		Status:    models.ExportStatusCompleted,
		Payload:   []byte(`{"posts":[]}`),
		ExpiresAt: &future,
	}
	require.NoError(t, db.Create(liveReq).Error)

	result, err := svc.ExpireDataExports(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.ExpiredCount)

	var reloaded models.DataExportRequest
	require.NoError(t, db.First(&reloaded, "id = ?", doneReq.ID).Error)
	require.Equal(t, models.ExportStatusExpired, reloaded.Status)
	require.Empty(t, reloaded.Payload)

	reloaded = models.DataExportRequest{}
	require.NoError(t, db.First(&reloaded, "id = ?", liveReq.ID).Error)
	require.Equal(t, models.ExportStatusCompleted, reloaded.Status)
	require.NotEmpty(t, reloaded.Payload)

	// Export expiry is deliberately unaudited.
	require.Zero(t, countRows(t, db, &models.DeletionAuditLogEntry{}, ""))

	// A second run finds nothing.
	result, err = svc.ExpireDataExports(context.Background())
	require.NoError(t, err)
	require.Zero(t, result.ExpiredCount)
}
