package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// SwaggerInfo describes the API for the /swagger UI.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "klipperwatch API",
	Description:      "Start and stop print watches for chat conversations and query the printer once.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the OpenAPI document and UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

const docTemplate = `{
  "swagger": "2.0",
  "schemes": {{ marshal .Schemes }},
  "info": {
    "title": "{{.Title}}",
    "description": "{{escape .Description}}",
    "version": "{{.Version}}"
  },
  "basePath": "{{.BasePath}}",
  "paths": {
    "/monitors": {
      "get": {
        "summary": "List active watches",
        "produces": ["application/json"],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.MonitorsResponse"}}}
      }
    },
    "/monitors/{conversationID}": {
      "parameters": [{"name": "conversationID", "in": "path", "required": true, "type": "string"}],
      "get": {
        "summary": "Show one watch",
        "produces": ["application/json"],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Monitor"}},
          "404": {"description": "No active watch", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
        }
      },
      "post": {
        "summary": "Start watching the current print",
        "produces": ["application/json"],
        "responses": {
          "201": {"description": "Started", "schema": {"$ref": "#/definitions/types.MonitorResponse"}},
          "200": {"description": "Already active", "schema": {"$ref": "#/definitions/types.MonitorResponse"}},
          "400": {"description": "Blank conversation", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
          "503": {"description": "Shutting down", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
        }
      },
      "delete": {
        "summary": "Stop watching",
        "produces": ["application/json"],
        "responses": {"200": {"description": "stopped or not_active", "schema": {"$ref": "#/definitions/types.MonitorResponse"}}}
      }
    },
    "/printer/status": {
      "get": {
        "summary": "One-shot status report",
        "produces": ["application/json"],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusReportResponse"}},
          "502": {"description": "Printer unreachable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
          "504": {"description": "Printer too slow", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
        }
      }
    }
  },
  "definitions": {
    "types.Monitor": {
      "type": "object",
      "properties": {
        "id": {"type": "string"},
        "conversation_id": {"type": "string", "example": "123456789"},
        "created_at": {"type": "string", "format": "date-time"},
        "ticks": {"type": "integer", "example": 3}
      }
    },
    "types.MonitorsResponse": {
      "type": "object",
      "properties": {"monitors": {"type": "array", "items": {"$ref": "#/definitions/types.Monitor"}}}
    },
    "types.MonitorResponse": {
      "type": "object",
      "properties": {
        "result": {"type": "string", "enum": ["started", "already_active", "stopped", "not_active"]},
        "watch_id": {"type": "string"}
      }
    },
    "types.StatusReportResponse": {
      "type": "object",
      "properties": {"report": {"type": "string"}}
    },
    "types.ErrorResponse": {
      "type": "object",
      "properties": {
        "error": {"type": "string", "example": "printer is powered off or offline (status 530)"},
        "code": {"type": "integer", "example": 502}
      }
    }
  }
}`
