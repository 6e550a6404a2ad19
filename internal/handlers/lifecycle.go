package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/agentmesh/agentmesh/internal/middleware"
	"github.com/agentmesh/agentmesh/internal/services"
	"github.com/agentmesh/agentmesh/pkg/errors"
	"github.com/agentmesh/agentmesh/pkg/response"
)

// LifecycleHandler exposes the account deletion state machine and the
// deletion audit ledger.
type LifecycleHandler struct {
	deletions *services.DeletionRequestService
	audit     *services.DeletionAuditService
}

// NewLifecycleHandler constructs the handler with its backing services.
func NewLifecycleHandler(db *gorm.DB, deletions *services.DeletionRequestService) (*LifecycleHandler, error) {
	audit, err := services.NewDeletionAuditService(db)
	if err != nil {
		return nil, err
	}
	return &LifecycleHandler{deletions: deletions, audit: audit}, nil
}

type deletionRequestPayload struct {
	Reason string `json:"reason" validate:"max=500"`
}

// POST /api/lifecycle/deletion-request
func (h *LifecycleHandler) RequestDeletion(c *gin.Context) {
	agentID := middleware.AgentID(c)

	var payload deletionRequestPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	result, err := h.deletions.Request(requestContext(c), agentID, payload.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// DELETE /api/lifecycle/deletion-request
func (h *LifecycleHandler) CancelDeletion(c *gin.Context) {
	agentID := middleware.AgentID(c)

	reason := c.Query("reason")
	result, err := h.deletions.Cancel(requestContext(c), agentID, reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GET /api/lifecycle/deletion-request
func (h *LifecycleHandler) DeletionStatus(c *gin.Context) {
	agentID := middleware.AgentID(c)

	status, err := h.deletions.Status(requestContext(c), agentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, status)
}

// GET /api/lifecycle/audit
func (h *LifecycleHandler) ListAudit(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)

	if agentID := c.Query("agent_id"); agentID != "" {
		rows, err := h.audit.ListForAgent(requestContext(c), agentID, limit)
		if err != nil {
			response.Error(c, errors.ErrInternalServer)
			return
		}
		response.Success(c, http.StatusOK, rows)
		return
	}

	window := services.AuditWindow{Limit: limit}
	if s := c.Query("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			response.Error(c, errors.NewBadRequest("since must be an RFC3339 timestamp"))
			return
		}
		window.Since = &t
	}
	if u := c.Query("until"); u != "" {
		t, err := time.Parse(time.RFC3339, u)
		if err != nil {
			response.Error(c, errors.NewBadRequest("until must be an RFC3339 timestamp"))
			return
		}
		window.Until = &t
	}

	rows, err := h.audit.List(requestContext(c), window)
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, rows)
}
