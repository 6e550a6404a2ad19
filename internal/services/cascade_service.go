package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/agentmesh/agentmesh/internal/models"
)

// CascadeService deletes a root row together with every row that references
// it, in dependency order. The underlying store has no foreign-key cascade,
// so the dependency graph is walked programmatically: children first, the
// root last, every step an indexed delete scoped to the root id.
//
// The walk is not wrapped in a cross-collection transaction. Each step is
// individually idempotent (it either finds nothing or finds residual rows
// still scoped to the same root), so an interrupted walk is retried by
// simply re-running it from the top.
type CascadeService struct {
	db *gorm.DB
}

// NewCascadeService constructs a CascadeService.
func NewCascadeService(db *gorm.DB) (*CascadeService, error) {
	if db == nil {
		return nil, errors.New("cascade service: db is required")
	}
	return &CascadeService{db: db}, nil
}

// DeletePostTree hard-deletes a post: first the votes on its comments, then
// the comments, then the post's own votes, then the post row itself.
func (s *CascadeService) DeletePostTree(ctx context.Context, postID string) error {
	ctx = ensureContext(ctx)

	var commentIDs []string
	if err := s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Pluck("id", &commentIDs).Error; err != nil {
		return fmt.Errorf("cascade: load comment ids for post %s: %w", postID, err)
	}

	if len(commentIDs) > 0 {
		if err := s.db.WithContext(ctx).
			Where("target_type = ? AND target_id IN ?", models.VoteTargetComment, commentIDs).
			Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("cascade: delete comment votes for post %s: %w", postID, err)
		}
	}

	if err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("cascade: delete comments for post %s: %w", postID, err)
	}

	if err := s.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", models.VoteTargetPost, postID).
		Delete(&models.Vote{}).Error; err != nil {
		return fmt.Errorf("cascade: delete post votes for post %s: %w", postID, err)
	}

	if err := s.db.WithContext(ctx).
		Where("id = ?", postID).
		Delete(&models.Post{}).Error; err != nil {
		return fmt.Errorf("cascade: delete post %s: %w", postID, err)
	}

	return nil
}

// DeleteAgentTree removes every row referencing the agent, then the agent
// row itself. The agent's posts cascade through DeletePostTree; the
// remaining collections are mutually independent and are cleared by
// indexed deletes.
func (s *CascadeService) DeleteAgentTree(ctx context.Context, agentID string) error {
	ctx = ensureContext(ctx)

	var postIDs []string
	if err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("agent_id = ?", agentID).
		Pluck("id", &postIDs).Error; err != nil {
		return fmt.Errorf("cascade: load post ids for agent %s: %w", agentID, err)
	}
	for _, postID := range postIDs {
		if err := s.DeletePostTree(ctx, postID); err != nil {
			return err
		}
	}

	// Comments the agent left on other agents' posts, with their votes.
	var commentIDs []string
	if err := s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("agent_id = ?", agentID).
		Pluck("id", &commentIDs).Error; err != nil {
		return fmt.Errorf("cascade: load comment ids for agent %s: %w", agentID, err)
	}
	if len(commentIDs) > 0 {
		if err := s.db.WithContext(ctx).
			Where("target_type = ? AND target_id IN ?", models.VoteTargetComment, commentIDs).
			Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("cascade: delete votes on agent %s comments: %w", agentID, err)
		}
		if err := s.db.WithContext(ctx).
			Where("agent_id = ?", agentID).
			Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("cascade: delete comments by agent %s: %w", agentID, err)
		}
	}

	if err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Delete(&models.Vote{}).Error; err != nil {
		return fmt.Errorf("cascade: delete votes by agent %s: %w", agentID, err)
	}

	if err := s.db.WithContext(ctx).
		Where("follower_id = ? OR followee_id = ?", agentID, agentID).
		Delete(&models.Connection{}).Error; err != nil {
		return fmt.Errorf("cascade: delete connections for agent %s: %w", agentID, err)
	}

	if err := s.db.WithContext(ctx).
		Where("endorser_id = ? OR endorsee_id = ?", agentID, agentID).
		Delete(&models.Endorsement{}).Error; err != nil {
		return fmt.Errorf("cascade: delete endorsements for agent %s: %w", agentID, err)
	}

	if err := s.deleteThreads(ctx, agentID); err != nil {
		return err
	}

	// Messages the agent sent into threads it no longer participates in.
	if err := s.db.WithContext(ctx).
		Where("sender_id = ?", agentID).
		Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("cascade: delete sent messages for agent %s: %w", agentID, err)
	}

	if err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Delete(&models.Notification{}).Error; err != nil {
		return fmt.Errorf("cascade: delete notifications for agent %s: %w", agentID, err)
	}

	if err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Delete(&models.ActivityLogEntry{}).Error; err != nil {
		return fmt.Errorf("cascade: delete activity log for agent %s: %w", agentID, err)
	}

	if err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Delete(&models.InviteCode{}).Error; err != nil {
		return fmt.Errorf("cascade: delete invite codes for agent %s: %w", agentID, err)
	}

	if err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Delete(&models.DataExportRequest{}).Error; err != nil {
		return fmt.Errorf("cascade: delete export requests for agent %s: %w", agentID, err)
	}

	if err := s.db.WithContext(ctx).
		Where("id = ?", agentID).
		Delete(&models.Agent{}).Error; err != nil {
		return fmt.Errorf("cascade: delete agent %s: %w", agentID, err)
	}

	return nil
}

// deleteThreads removes every thread the agent participates in, together
// with all messages and participant rows of those threads.
func (s *CascadeService) deleteThreads(ctx context.Context, agentID string) error {
	var threadIDs []string
	if err := s.db.WithContext(ctx).
		Model(&models.ThreadParticipant{}).
		Where("agent_id = ?", agentID).
		Pluck("thread_id", &threadIDs).Error; err != nil {
		return fmt.Errorf("cascade: load thread ids for agent %s: %w", agentID, err)
	}
	if len(threadIDs) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).
		Where("thread_id IN ?", threadIDs).
		Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("cascade: delete thread messages for agent %s: %w", agentID, err)
	}

	if err := s.db.WithContext(ctx).
		Where("thread_id IN ?", threadIDs).
		Delete(&models.ThreadParticipant{}).Error; err != nil {
		return fmt.Errorf("cascade: delete thread participants for agent %s: %w", agentID, err)
	}

	if err := s.db.WithContext(ctx).
		Where("id IN ?", threadIDs).
		Delete(&models.MessageThread{}).Error; err != nil {
		return fmt.Errorf("cascade: delete threads for agent %s: %w", agentID, err)
	}

	return nil
}
