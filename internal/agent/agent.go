// Package agent holds the capability interface for the external chat
// platforms and the HTTP clients that speak to them. The server layer
// depends only on the Agent interface, never on a platform's protocol.
package agent

import (
	"context"
	"errors"
	"fmt"
)

// Reply is what an agent platform hands back for one message. The
// conversation id is owned and interpreted solely by the platform; this
// service threads it through as an opaque token.
type Reply struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversation_id"`
}

// Agent is a single-operation capability: send one user message,
// optionally continuing a prior conversation, and get the reply.
type Agent interface {
	Name() string
	Send(ctx context.Context, message, conversationID string) (*Reply, error)
}

// ErrNotConfigured marks an adapter whose platform credentials are
// missing. CRUD endpoints keep working; only the chat route degrades.
var ErrNotConfigured = errors.New("agent not configured")

// UpstreamError wraps any failure from an agent platform (error status,
// timeout, malformed reply). Internal detail stays out of API responses.
type UpstreamError struct {
	Agent string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("agent %s: %v", e.Agent, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
