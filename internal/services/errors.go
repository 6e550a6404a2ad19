package services

import (
	"net/http"

	apperrors "github.com/agentmesh/agentmesh/pkg/errors"
)

var (
	// ErrAgentNotFound indicates the referenced agent does not exist.
	ErrAgentNotFound = apperrors.New("AGENT_NOT_FOUND", "Agent not found", http.StatusNotFound)

	// ErrDeletionAlreadyPending rejects a second deletion request while one
	// is still pending for the same agent.
	ErrDeletionAlreadyPending = apperrors.New("DELETION_ALREADY_PENDING", "A deletion request is already pending for this agent", http.StatusConflict)

	// ErrNoPendingDeletion indicates a cancel was attempted with no pending
	// request to act on.
	ErrNoPendingDeletion = apperrors.New("DELETION_NOT_PENDING", "No pending deletion request exists for this agent", http.StatusNotFound)
)
