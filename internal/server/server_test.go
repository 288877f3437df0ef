package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskman/internal/agent"
	"taskman/internal/config"
	"taskman/internal/logging"
	"taskman/internal/store"
	"taskman/internal/task"
)

type testServer struct {
	srv    *Server
	agentA *agent.Mock
	agentB *agent.Mock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	taskStore, err := store.Open(filepath.Join(t.TempDir(), "tasks.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = taskStore.Close() })

	agentA := &agent.Mock{AgentName: "agent-a"}
	agentB := &agent.Mock{AgentName: "agent-b"}

	cfg := &config.Config{
		Port:         0,
		LogLevel:     "error",
		AgentTimeout: 2 * time.Second,
	}
	srv := New(cfg, task.NewService(taskStore), agentA, agentB, logging.Nop())

	return &testServer{srv: srv, agentA: agentA, agentB: agentB}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, health.Uptime)
}

func TestRejectsNonJSONContentType(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader("title=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestOpenAPIDocument(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/openapi.json", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]map[string]struct {
			OperationID string `json:"operationId"`
		} `json:"paths"`
		Components struct {
			Schemas map[string]json.RawMessage `json:"schemas"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))

	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Equal(t, "Task Manager API", doc.Info.Title)

	require.Contains(t, doc.Paths, "/tasks")
	require.Contains(t, doc.Paths, "/tasks/{id}")
	assert.Equal(t, "getAllTasks", doc.Paths["/tasks"]["get"].OperationID)
	assert.Equal(t, "createTask", doc.Paths["/tasks"]["post"].OperationID)
	assert.Equal(t, "getTaskById", doc.Paths["/tasks/{id}"]["get"].OperationID)
	assert.Equal(t, "updateTask", doc.Paths["/tasks/{id}"]["put"].OperationID)
	assert.Equal(t, "deleteTask", doc.Paths["/tasks/{id}"]["delete"].OperationID)

	// Chat routes are served but kept out of the schema, matching the
	// agent-integration contract (agents discover only the task surface).
	assert.NotContains(t, doc.Paths, "/chat/agent-a")
	assert.NotContains(t, doc.Paths, "/chat/agent-b")

	for _, schema := range []string{"Task", "TaskCreateRequest", "TaskUpdateRequest", "Error"} {
		assert.Contains(t, doc.Components.Schemas, schema)
	}
}
