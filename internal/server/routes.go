package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// responseDef describes one documented response of a route.
type responseDef struct {
	status      int
	description string
	schema      string // component schema name, "" for an empty body
	isArray     bool
}

// routeDef binds a handler to a path and carries the metadata the
// OpenAPI document is built from, so the served schema can never drift
// from the registered routes.
type routeDef struct {
	method      string
	path        string // gin syntax, e.g. /tasks/:id
	operationID string
	summary     string
	handler     gin.HandlerFunc
	requestBody string // component schema name, "" when the route takes no body
	responses   []responseDef
	hidden      bool // registered but excluded from the schema
}

// routes assembles the full route table. Operation ids are part of the
// public surface (tooling addresses operations by them), so they stay
// stable.
func (s *Server) routes() []routeDef {
	taskHandler := NewTaskHandler(s.service, s.logger)
	chatHandler := NewChatHandler(s.agentTimeout, s.logger)

	return []routeDef{
		{
			method:      http.MethodGet,
			path:        "/tasks",
			operationID: "getAllTasks",
			summary:     "Retrieve all tasks in the task list.",
			handler:     taskHandler.ListTasks,
			responses: []responseDef{
				{status: http.StatusOK, description: "All tasks in ascending id order", schema: "Task", isArray: true},
			},
		},
		{
			method:      http.MethodPost,
			path:        "/tasks",
			operationID: "createTask",
			summary:     "Create a new task with a title, optional description and completion status.",
			handler:     taskHandler.CreateTask,
			requestBody: "TaskCreateRequest",
			responses: []responseDef{
				{status: http.StatusCreated, description: "The created task", schema: "Task"},
				{status: http.StatusBadRequest, description: "Validation failure", schema: "Error"},
			},
		},
		{
			method:      http.MethodGet,
			path:        "/tasks/:id",
			operationID: "getTaskById",
			summary:     "Retrieve a task by its unique ID.",
			handler:     taskHandler.GetTask,
			responses: []responseDef{
				{status: http.StatusOK, description: "The task", schema: "Task"},
				{status: http.StatusNotFound, description: "No task with that id", schema: "Error"},
			},
		},
		{
			method:      http.MethodPut,
			path:        "/tasks/:id",
			operationID: "updateTask",
			summary:     "Update a task's title, description or completion status by its ID.",
			handler:     taskHandler.UpdateTask,
			requestBody: "TaskUpdateRequest",
			responses: []responseDef{
				{status: http.StatusOK, description: "The updated task", schema: "Task"},
				{status: http.StatusBadRequest, description: "Validation failure", schema: "Error"},
				{status: http.StatusNotFound, description: "No task with that id", schema: "Error"},
			},
		},
		{
			method:      http.MethodPatch,
			path:        "/tasks/:id",
			operationID: "patchTask",
			summary:     "Partially update a task by its ID.",
			handler:     taskHandler.UpdateTask,
			requestBody: "TaskUpdateRequest",
			responses: []responseDef{
				{status: http.StatusOK, description: "The updated task", schema: "Task"},
				{status: http.StatusBadRequest, description: "Validation failure", schema: "Error"},
				{status: http.StatusNotFound, description: "No task with that id", schema: "Error"},
			},
		},
		{
			method:      http.MethodDelete,
			path:        "/tasks/:id",
			operationID: "deleteTask",
			summary:     "Delete a task by its unique ID.",
			handler:     taskHandler.DeleteTask,
			responses: []responseDef{
				{status: http.StatusNoContent, description: "Task deleted"},
				{status: http.StatusNotFound, description: "No task with that id", schema: "Error"},
			},
		},
		{
			method:      http.MethodPost,
			path:        "/chat/agent-a",
			operationID: "chatWithAgentA",
			summary:     "Process a chat message using the managed agent service.",
			handler:     chatHandler.ChatWith(s.agentA),
			requestBody: "ChatRequest",
			responses: []responseDef{
				{status: http.StatusOK, description: "The agent's reply", schema: "ChatReply"},
				{status: http.StatusBadRequest, description: "Missing message", schema: "Error"},
				{status: http.StatusBadGateway, description: "Agent platform failure", schema: "Error"},
			},
			hidden: true,
		},
		{
			method:      http.MethodPost,
			path:        "/chat/agent-b",
			operationID: "chatWithAgentB",
			summary:     "Process a chat message using the graph-orchestration agent.",
			handler:     chatHandler.ChatWith(s.agentB),
			requestBody: "ChatRequest",
			responses: []responseDef{
				{status: http.StatusOK, description: "The agent's reply", schema: "ChatReply"},
				{status: http.StatusBadRequest, description: "Missing message", schema: "Error"},
				{status: http.StatusBadGateway, description: "Agent platform failure", schema: "Error"},
			},
			hidden: true,
		},
		{
			method:      http.MethodGet,
			path:        "/health",
			operationID: "getHealth",
			summary:     "Report process liveness.",
			handler:     s.handleHealth,
			responses: []responseDef{
				{status: http.StatusOK, description: "Process is up", schema: "Health"},
			},
		},
	}
}
