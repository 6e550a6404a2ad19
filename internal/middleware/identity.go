package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agentmesh/agentmesh/pkg/errors"
	"github.com/agentmesh/agentmesh/pkg/response"
)

const (
	// CtxAgentIDKey is the gin context key carrying the caller's agent id.
	CtxAgentIDKey = "agentID"

	// AgentIDHeader carries the authenticated agent identity, injected by
	// the platform's edge gateway after API key verification.
	AgentIDHeader = "X-Agent-ID"
)

// AgentIdentity extracts the caller's agent id from the gateway-supplied
// header and propagates it into the request context. Requests without a
// well-formed agent id are rejected.
func AgentIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(AgentIDHeader))
		if id == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, err := uuid.Parse(id); err != nil {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxAgentIDKey, id)
		c.Next()
	}
}

// AgentID returns the authenticated agent id from the gin context.
func AgentID(c *gin.Context) string {
	id, _ := c.Get(CtxAgentIDKey)
	s, _ := id.(string)
	return s
}
