package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskman/internal/config"
	"taskman/internal/logging"
)

const (
	foundryAgentName     = "foundry"
	foundryThreadsPath   = "/threads"
	foundryContentType   = "application/json"
	foundryPollInterval  = 500 * time.Millisecond
	foundryMessagesOrder = "desc"
)

// Terminal run states on the managed agent service.
var foundryTerminalStatuses = map[string]bool{
	"completed": true,
	"failed":    true,
	"cancelled": true,
	"expired":   true,
}

// FoundryClient talks to a managed agent service over its REST surface:
// create a thread, post the user message, start a run against the
// configured agent, poll the run to completion and read the newest
// assistant message back. The thread id doubles as the conversation id.
type FoundryClient struct {
	endpoint   string
	apiKey     string
	agentID    string
	apiVersion string
	httpClient *http.Client
	logger     logging.Logger
}

func NewFoundryClient(cfg config.FoundryConfig, timeout time.Duration, logger logging.Logger) *FoundryClient {
	return &FoundryClient{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		agentID:    cfg.AgentID,
		apiVersion: cfg.APIVersion,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.OrNop(logger),
	}
}

func (c *FoundryClient) Name() string {
	return foundryAgentName
}

// Send forwards one user message. An empty or unknown conversation id
// starts a fresh thread on the platform.
func (c *FoundryClient) Send(ctx context.Context, message, conversationID string) (*Reply, error) {
	if c.endpoint == "" || c.agentID == "" {
		return nil, &UpstreamError{Agent: foundryAgentName, Err: ErrNotConfigured}
	}

	threadID := conversationID
	if threadID == "" {
		id, err := c.createThread(ctx)
		if err != nil {
			return nil, &UpstreamError{Agent: foundryAgentName, Err: err}
		}
		threadID = id
		c.logger.Debug("created thread %s", threadID)
	}

	if err := c.postMessage(ctx, threadID, message); err != nil {
		// A conversation id the platform no longer knows (expired thread,
		// process restart on its side) starts a fresh thread instead of
		// failing the request.
		if conversationID == "" || !isStatus(err, http.StatusNotFound) {
			return nil, &UpstreamError{Agent: foundryAgentName, Err: err}
		}
		id, err := c.createThread(ctx)
		if err != nil {
			return nil, &UpstreamError{Agent: foundryAgentName, Err: err}
		}
		c.logger.Debug("conversation %s unknown upstream, started thread %s", conversationID, id)
		threadID = id
		if err := c.postMessage(ctx, threadID, message); err != nil {
			return nil, &UpstreamError{Agent: foundryAgentName, Err: err}
		}
	}

	runID, err := c.createRun(ctx, threadID)
	if err != nil {
		return nil, &UpstreamError{Agent: foundryAgentName, Err: err}
	}

	status, err := c.waitForRun(ctx, threadID, runID)
	if err != nil {
		return nil, &UpstreamError{Agent: foundryAgentName, Err: err}
	}
	if status != "completed" {
		return nil, &UpstreamError{Agent: foundryAgentName, Err: fmt.Errorf("run ended with status %q", status)}
	}

	reply, err := c.latestAssistantText(ctx, threadID)
	if err != nil {
		return nil, &UpstreamError{Agent: foundryAgentName, Err: err}
	}

	return &Reply{Reply: reply, ConversationID: threadID}, nil
}

type foundryThread struct {
	ID string `json:"id"`
}

type foundryRun struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

type foundryMessageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

func (c *FoundryClient) createThread(ctx context.Context) (string, error) {
	var thread foundryThread
	err := c.doJSON(ctx, http.MethodPost, c.url(foundryThreadsPath), map[string]any{}, &thread)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	if thread.ID == "" {
		return "", fmt.Errorf("create thread: empty thread id in response")
	}
	return thread.ID, nil
}

func (c *FoundryClient) postMessage(ctx context.Context, threadID, message string) error {
	payload := map[string]any{
		"role":    "user",
		"content": message,
	}
	path := fmt.Sprintf("%s/%s/messages", foundryThreadsPath, threadID)
	if err := c.doJSON(ctx, http.MethodPost, c.url(path), payload, nil); err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}

func (c *FoundryClient) createRun(ctx context.Context, threadID string) (string, error) {
	payload := map[string]any{
		"assistant_id": c.agentID,
	}
	path := fmt.Sprintf("%s/%s/runs", foundryThreadsPath, threadID)

	var run foundryRun
	if err := c.doJSON(ctx, http.MethodPost, c.url(path), payload, &run); err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	if run.ID == "" {
		return "", fmt.Errorf("create run: empty run id in response")
	}
	return run.ID, nil
}

func (c *FoundryClient) waitForRun(ctx context.Context, threadID, runID string) (string, error) {
	path := fmt.Sprintf("%s/%s/runs/%s", foundryThreadsPath, threadID, runID)
	for {
		var run foundryRun
		if err := c.doJSON(ctx, http.MethodGet, c.url(path), nil, &run); err != nil {
			return "", fmt.Errorf("poll run: %w", err)
		}
		if foundryTerminalStatuses[run.Status] {
			if run.Status == "failed" && run.LastError != nil {
				c.logger.Warn("run %s failed: %s", runID, run.LastError.Code)
			}
			return run.Status, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(foundryPollInterval):
		}
	}
}

func (c *FoundryClient) latestAssistantText(ctx context.Context, threadID string) (string, error) {
	path := fmt.Sprintf("%s/%s/messages", foundryThreadsPath, threadID)
	url := c.url(path) + "&order=" + foundryMessagesOrder

	var list foundryMessageList
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &list); err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	for _, msg := range list.Data {
		if msg.Role != "assistant" {
			continue
		}
		var text strings.Builder
		for _, part := range msg.Content {
			if part.Type == "text" {
				text.WriteString(part.Text.Value)
			}
		}
		if text.Len() > 0 {
			return text.String(), nil
		}
	}

	return "", fmt.Errorf("no assistant message in thread")
}

func (c *FoundryClient) url(path string) string {
	return fmt.Sprintf("%s%s?api-version=%s", c.endpoint, path, c.apiVersion)
}

func (c *FoundryClient) doJSON(ctx context.Context, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", foundryContentType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("%s %s -> %d: %s", method, url, resp.StatusCode, snippet)
		return &statusError{status: resp.StatusCode}
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

// statusError carries a non-2xx platform status so callers can react to
// specific codes without parsing error strings.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}

func isStatus(err error, status int) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == status
}
