package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskman/internal/agent"
	"taskman/internal/config"
	"taskman/internal/logging"
	"taskman/internal/task"
)

func decodeTask(t *testing.T, body []byte) task.Task {
	t.Helper()
	var got task.Task
	require.NoError(t, json.Unmarshal(body, &got))
	return got
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)

	// Create.
	rr := ts.do(t, http.MethodPost, "/tasks", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decodeTask(t, rr.Body.Bytes())
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.False(t, created.Completed)

	// Read back.
	rr = ts.do(t, http.MethodGet, "/tasks/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created, decodeTask(t, rr.Body.Bytes()))

	// Partial update.
	rr = ts.do(t, http.MethodPatch, "/tasks/1", `{"completed":true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decodeTask(t, rr.Body.Bytes())
	assert.True(t, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Title)

	// Delete.
	rr = ts.do(t, http.MethodDelete, "/tasks/1", "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	// Gone.
	rr = ts.do(t, http.MethodGet, "/tasks/1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetMissingTaskOnEmptyStore(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/tasks/999", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateRejectsBlankTitles(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{`{"title":""}`, `{"title":"   "}`, `{}`} {
		rr := ts.do(t, http.MethodPost, "/tasks", body)
		require.Equal(t, http.StatusBadRequest, rr.Code, "body %s", body)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
		assert.Equal(t, "title", errResp.Field, "body %s", body)
	}

	// Nothing was persisted.
	rr := ts.do(t, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestCreateWithAllFields(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/tasks", `{"title":"Walk dog","description":"around the block","completed":true}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	created := decodeTask(t, rr.Body.Bytes())
	assert.Equal(t, "Walk dog", created.Title)
	assert.Equal(t, "around the block", created.Description)
	assert.True(t, created.Completed)
}

func TestListKeepsInsertionOrder(t *testing.T) {
	ts := newTestServer(t)

	for _, title := range []string{"A", "B", "C"} {
		rr := ts.do(t, http.MethodPost, "/tasks", fmt.Sprintf(`{"title":%q}`, title))
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	// Updating out of order must not affect list order.
	rr := ts.do(t, http.MethodPut, "/tasks/3", `{"completed":true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.do(t, http.MethodPut, "/tasks/1", `{"completed":true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(t, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var tasks []task.Task
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tasks))
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{tasks[0].Title, tasks[1].Title, tasks[2].Title})
}

func TestUpdateRejectsBlankTitle(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/tasks", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(t, http.MethodPut, "/tasks/1", `{"title":"  "}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// The stored title is untouched.
	rr = ts.do(t, http.MethodGet, "/tasks/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Buy milk", decodeTask(t, rr.Body.Bytes()).Title)
}

func TestUpdateMissingTask(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPatch, "/tasks/41", `{"completed":true}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteMissingTask(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodDelete, "/tasks/41", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNonIntegerTaskID(t *testing.T) {
	ts := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rr := ts.do(t, method, "/tasks/abc", "")
		require.Equal(t, http.StatusBadRequest, rr.Code, "method %s", method)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
		assert.Equal(t, "id", errResp.Field)
	}
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/tasks", `{"title": 12}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// failingStore fails every operation the way the sqlite store does when
// the database is unreachable.
type failingStore struct{}

func (failingStore) fail(op string) error {
	return &task.StorageError{Op: op, Err: errors.New("disk I/O error: /data/tasks.db")}
}

func (s failingStore) Insert(ctx context.Context, title, description string, completed bool) (*task.Task, error) {
	return nil, s.fail("insert")
}

func (s failingStore) Get(ctx context.Context, id int64) (*task.Task, error) {
	return nil, s.fail("get")
}

func (s failingStore) List(ctx context.Context) ([]task.Task, error) {
	return nil, s.fail("list")
}

func (s failingStore) Update(ctx context.Context, id int64, patch task.Patch) (*task.Task, error) {
	return nil, s.fail("update")
}

func (s failingStore) Delete(ctx context.Context, id int64) error {
	return s.fail("delete")
}

func TestStoreFailureReturnsGenericError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{LogLevel: "error", AgentTimeout: time.Second}
	srv := New(cfg, task.NewService(failingStore{}), &agent.Mock{}, &agent.Mock{}, logging.Nop())
	ts := &testServer{srv: srv}

	requests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/tasks", ""},
		{http.MethodPost, "/tasks", `{"title":"Buy milk"}`},
		{http.MethodGet, "/tasks/1", ""},
		{http.MethodPatch, "/tasks/1", `{"completed":true}`},
		{http.MethodDelete, "/tasks/1", ""},
	}
	for _, r := range requests {
		rr := ts.do(t, r.method, r.path, r.body)
		require.Equal(t, http.StatusInternalServerError, rr.Code, "%s %s", r.method, r.path)

		// Storage detail stays out of the response body.
		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp), "%s %s", r.method, r.path)
		assert.Equal(t, "internal error", errResp.Error)
		assert.NotContains(t, rr.Body.String(), "tasks.db")
	}
}
