package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskman/internal/agent"
	"taskman/internal/logging"
	"taskman/internal/task"
)

// TaskHandler exposes the task service over HTTP. Shape validation
// happens here; business validation stays in the service.
type TaskHandler struct {
	service *task.Service
	logger  logging.Logger
}

func NewTaskHandler(service *task.Service, logger logging.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logging.OrNop(logger)}
}

// ListTasks handles GET /tasks.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}

	created, err := h.service.Create(c.Request.Context(), req.Title, req.Description, req.Completed)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetTask handles GET /tasks/:id.
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	found, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// UpdateTask handles PUT and PATCH /tasks/:id. Both apply a partial
// update; fields absent from the body keep their stored value.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, task.Patch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteTask handles DELETE /tasks/:id.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "task id must be an integer",
			Field: "id",
		})
		return 0, false
	}
	return id, true
}

// respondError translates service and adapter errors into HTTP once, at
// this boundary. No partial-success responses, nothing swallowed.
func (h *TaskHandler) respondError(c *gin.Context, err error) {
	respondError(c, h.logger, err)
}

func respondError(c *gin.Context, logger logging.Logger, err error) {
	var validationErr *task.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: validationErr.Error(),
			Field: validationErr.Field,
		})
		return
	}

	if errors.Is(err, task.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "task not found"})
		return
	}

	var upstreamErr *agent.UpstreamError
	if errors.As(err, &upstreamErr) {
		logger.Error("upstream agent failure: %v", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "agent request failed"})
		return
	}

	logger.Error("request failed: %v", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
