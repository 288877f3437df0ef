package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskman/internal/config"
	"taskman/internal/logging"
)

const (
	graphAgentName   = "graph"
	graphThreadsPath = "/threads"
	graphAPIKeyHdr   = "X-Api-Key"
)

// GraphClient talks to a graph-orchestration server (LangGraph-platform
// style API): threads hold conversation state server-side, a blocking
// runs/wait call executes the assistant graph for one message.
//
// Caller-facing conversation ids are decoupled from server thread ids
// through an in-memory map, so the ids this service hands out stay
// opaque even if the platform changes its own id scheme.
type GraphClient struct {
	baseURL     string
	apiKey      string
	assistantID string
	httpClient  *http.Client
	logger      logging.Logger

	mu      sync.Mutex
	threads map[string]string // conversation id -> server thread id
}

func NewGraphClient(cfg config.GraphConfig, timeout time.Duration, logger logging.Logger) *GraphClient {
	return &GraphClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		assistantID: cfg.AssistantID,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logging.OrNop(logger),
		threads:     make(map[string]string),
	}
}

func (c *GraphClient) Name() string {
	return graphAgentName
}

// Send runs the assistant graph for one message and returns the final
// assistant reply together with the conversation id to continue with.
func (c *GraphClient) Send(ctx context.Context, message, conversationID string) (*Reply, error) {
	if c.baseURL == "" {
		return nil, &UpstreamError{Agent: graphAgentName, Err: ErrNotConfigured}
	}

	conversationID, threadID, err := c.resolveThread(ctx, conversationID)
	if err != nil {
		return nil, &UpstreamError{Agent: graphAgentName, Err: err}
	}

	reply, err := c.runWait(ctx, threadID, message)
	if err != nil {
		return nil, &UpstreamError{Agent: graphAgentName, Err: err}
	}

	return &Reply{Reply: reply, ConversationID: conversationID}, nil
}

// resolveThread maps the conversation id to a server thread, creating
// both when the caller starts a new conversation.
func (c *GraphClient) resolveThread(ctx context.Context, conversationID string) (string, string, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	c.mu.Lock()
	threadID, known := c.threads[conversationID]
	c.mu.Unlock()
	if known {
		return conversationID, threadID, nil
	}

	threadID, err := c.createThread(ctx)
	if err != nil {
		return "", "", err
	}
	c.logger.Debug("conversation %s mapped to thread %s", conversationID, threadID)

	c.mu.Lock()
	c.threads[conversationID] = threadID
	c.mu.Unlock()

	return conversationID, threadID, nil
}

type graphThread struct {
	ThreadID string `json:"thread_id"`
}

type graphRunResult struct {
	Messages []struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	} `json:"messages"`
}

func (c *GraphClient) createThread(ctx context.Context) (string, error) {
	var thread graphThread
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+graphThreadsPath, map[string]any{}, &thread); err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	if thread.ThreadID == "" {
		return "", fmt.Errorf("create thread: empty thread id in response")
	}
	return thread.ThreadID, nil
}

func (c *GraphClient) runWait(ctx context.Context, threadID, message string) (string, error) {
	payload := map[string]any{
		"assistant_id": c.assistantID,
		"input": map[string]any{
			"messages": []map[string]string{
				{"role": "user", "content": message},
			},
		},
	}
	url := fmt.Sprintf("%s%s/%s/runs/wait", c.baseURL, graphThreadsPath, threadID)

	var result graphRunResult
	if err := c.doJSON(ctx, http.MethodPost, url, payload, &result); err != nil {
		return "", fmt.Errorf("run: %w", err)
	}

	// The final state carries the whole message history; the reply is the
	// newest assistant message.
	for i := len(result.Messages) - 1; i >= 0; i-- {
		msg := result.Messages[i]
		if msg.Type == "ai" || msg.Type == "assistant" {
			return msg.Content, nil
		}
	}

	return "", fmt.Errorf("no assistant message in run result")
}

func (c *GraphClient) doJSON(ctx context.Context, method, url string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(graphAPIKeyHdr, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("%s %s -> %d: %s", method, url, resp.StatusCode, snippet)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
