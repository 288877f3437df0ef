package agent

import "context"

// Mock implements the Agent interface for testing. It records the last
// Send call and returns canned output or an injected error.
type Mock struct {
	AgentName      string
	ReplyText      string
	ConversationID string
	Err            error

	LastMessage        string
	LastConversationID string
}

func (m *Mock) Name() string {
	if m.AgentName == "" {
		return "mock"
	}
	return m.AgentName
}

func (m *Mock) Send(ctx context.Context, message, conversationID string) (*Reply, error) {
	m.LastMessage = message
	m.LastConversationID = conversationID

	if m.Err != nil {
		return nil, m.Err
	}

	return &Reply{
		Reply:          m.ReplyText,
		ConversationID: m.ConversationID,
	}, nil
}
