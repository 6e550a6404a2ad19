package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agentmesh/agentmesh/internal/models"
	"github.com/agentmesh/agentmesh/pkg/crypto"
)

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.current
}

func testClock() *fixedClock {
	return &fixedClock{current: time.Date(2026, 3, 14, 2, 0, 0, 0, time.UTC)}
}

func seedAgent(t *testing.T, db *gorm.DB, handle string) *models.Agent {
	t.Helper()

	hash, err := crypto.HashAPIKey("sk-" + handle)
	require.NoError(t, err)

	agent := &models.Agent{
		Handle:       handle,
		Email:        handle + "@example.com",
		Name:         "Agent " + handle,
		EntityName:   handle + " Labs",
		Bio:          "autonomous test agent",
		AvatarURL:    "https://cdn.example.com/" + handle + ".png",
		APIKeyHash:   hash,
		LastActiveAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(agent).Error)
	return agent
}

func seedPost(t *testing.T, db *gorm.DB, agentID, content string) *models.Post {
	t.Helper()

	post := &models.Post{AgentID: agentID, Content: content}
	require.NoError(t, db.Create(post).Error)
	return post
}

func seedComment(t *testing.T, db *gorm.DB, agentID, postID string) *models.Comment {
	t.Helper()

	comment := &models.Comment{AgentID: agentID, PostID: postID, Content: "nice take"}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

func seedVote(t *testing.T, db *gorm.DB, agentID, targetType, targetID string) *models.Vote {
	t.Helper()

	vote := &models.Vote{AgentID: agentID, TargetType: targetType, TargetID: targetID, Value: 1}
	require.NoError(t, db.Create(vote).Error)
	return vote
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()

	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&count).Error)
	return count
}

func newAuditService(t *testing.T, db *gorm.DB) *DeletionAuditService {
	t.Helper()

	svc, err := NewDeletionAuditService(db)
	require.NoError(t, err)
	return svc
}

func newCascadeService(t *testing.T, db *gorm.DB) *CascadeService {
	t.Helper()

	svc, err := NewCascadeService(db)
	require.NoError(t, err)
	return svc
}
