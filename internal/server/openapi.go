package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const openAPIVersion = "3.0.3"

// componentSchemas mirrors the request/response types in types.go and
// the task model. The route table references these by name.
var componentSchemas = gin.H{
	"Task": gin.H{
		"type":     "object",
		"required": []string{"id", "title", "completed"},
		"properties": gin.H{
			"id":          gin.H{"type": "integer", "format": "int64", "readOnly": true},
			"title":       gin.H{"type": "string"},
			"description": gin.H{"type": "string"},
			"completed":   gin.H{"type": "boolean"},
		},
	},
	"TaskCreateRequest": gin.H{
		"type":     "object",
		"required": []string{"title"},
		"properties": gin.H{
			"title":       gin.H{"type": "string", "minLength": 1},
			"description": gin.H{"type": "string"},
			"completed":   gin.H{"type": "boolean", "default": false},
		},
	},
	"TaskUpdateRequest": gin.H{
		"type": "object",
		"properties": gin.H{
			"title":       gin.H{"type": "string", "minLength": 1},
			"description": gin.H{"type": "string"},
			"completed":   gin.H{"type": "boolean"},
		},
	},
	"ChatRequest": gin.H{
		"type":     "object",
		"required": []string{"message"},
		"properties": gin.H{
			"message":         gin.H{"type": "string", "minLength": 1},
			"conversation_id": gin.H{"type": "string"},
		},
	},
	"ChatReply": gin.H{
		"type":     "object",
		"required": []string{"reply", "conversation_id"},
		"properties": gin.H{
			"reply":           gin.H{"type": "string"},
			"conversation_id": gin.H{"type": "string"},
		},
	},
	"Error": gin.H{
		"type":     "object",
		"required": []string{"error"},
		"properties": gin.H{
			"error": gin.H{"type": "string"},
			"field": gin.H{"type": "string"},
		},
	},
	"Health": gin.H{
		"type": "object",
		"properties": gin.H{
			"status":    gin.H{"type": "string"},
			"timestamp": gin.H{"type": "string", "format": "date-time"},
			"uptime":    gin.H{"type": "string"},
		},
	},
}

// buildOpenAPIDocument assembles the schema from the same route table
// the router registers. Hidden routes are registered but not documented.
func buildOpenAPIDocument(routes []routeDef) gin.H {
	paths := gin.H{}

	for _, route := range routes {
		if route.hidden {
			continue
		}

		docPath, params := openAPIPath(route.path)
		operation := gin.H{
			"operationId": route.operationID,
			"summary":     route.summary,
			"responses":   openAPIResponses(route.responses),
		}
		if len(params) > 0 {
			operation["parameters"] = params
		}
		if route.requestBody != "" {
			operation["requestBody"] = gin.H{
				"required": true,
				"content": gin.H{
					"application/json": gin.H{
						"schema": schemaRef(route.requestBody),
					},
				},
			}
		}

		methods, ok := paths[docPath].(gin.H)
		if !ok {
			methods = gin.H{}
			paths[docPath] = methods
		}
		methods[strings.ToLower(route.method)] = operation
	}

	return gin.H{
		"openapi": openAPIVersion,
		"info": gin.H{
			"title":       "Task Manager API",
			"version":     "1.0.0",
			"description": "A simple task management API with chat delegation to external agent platforms",
		},
		"paths": paths,
		"components": gin.H{
			"schemas": componentSchemas,
		},
	}
}

// openAPIPath converts gin path syntax to OpenAPI syntax and emits the
// matching path parameters.
func openAPIPath(path string) (string, []gin.H) {
	var params []gin.H
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			continue
		}
		name := strings.TrimPrefix(segment, ":")
		segments[i] = "{" + name + "}"
		params = append(params, gin.H{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   gin.H{"type": "integer", "format": "int64"},
		})
	}
	return strings.Join(segments, "/"), params
}

func openAPIResponses(defs []responseDef) gin.H {
	responses := gin.H{}
	for _, def := range defs {
		response := gin.H{"description": def.description}
		if def.schema != "" {
			var schema gin.H
			if def.isArray {
				schema = gin.H{"type": "array", "items": schemaRef(def.schema)}
			} else {
				schema = schemaRef(def.schema)
			}
			response["content"] = gin.H{
				"application/json": gin.H{"schema": schema},
			}
		}
		responses[fmt.Sprintf("%d", def.status)] = response
	}
	return responses
}

func schemaRef(name string) gin.H {
	return gin.H{"$ref": "#/components/schemas/" + name}
}

func (s *Server) handleOpenAPI(c *gin.Context) {
	c.JSON(http.StatusOK, s.openAPIDoc)
}
