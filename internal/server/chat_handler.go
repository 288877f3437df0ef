package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskman/internal/agent"
	"taskman/internal/logging"
)

// ChatHandler forwards chat requests to an external agent platform and
// relays the reply verbatim. It never inspects or persists the
// conversation id and never retries; upstream failures surface as a
// generic 502.
type ChatHandler struct {
	timeout time.Duration
	logger  logging.Logger
}

func NewChatHandler(timeout time.Duration, logger logging.Logger) *ChatHandler {
	return &ChatHandler{timeout: timeout, logger: logging.OrNop(logger)}
}

// ChatWith returns the handler for one agent's chat route.
func (h *ChatHandler) ChatWith(a agent.Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: fmt.Sprintf("invalid request body: %v", err),
			})
			return
		}
		if req.Message == "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "message is required",
				Field: "message",
			})
			return
		}

		// An upstream call that never returns must not hang the request.
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		reply, err := a.Send(ctx, req.Message, req.ConversationID)
		if err != nil {
			// The adapters wrap their own failures; anything else from an
			// agent is still an upstream failure to the caller.
			var upstreamErr *agent.UpstreamError
			if !errors.As(err, &upstreamErr) {
				err = &agent.UpstreamError{Agent: a.Name(), Err: err}
			}
			respondError(c, h.logger, err)
			return
		}

		c.JSON(http.StatusOK, reply)
	}
}
