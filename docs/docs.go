// Package docs is generated by swaggo/swag from the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/registrations": {
            "get": {
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "List registrations",
                "parameters": [
                    {"type": "string", "description": "Unsubmitted, Unconfirmed, Valid or Cancelled", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Registration"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Start a registration",
                "parameters": [
                    {"description": "Registration details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.CreateRegistrationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Registration"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/registrations/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Count registrations by status",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}}
                }
            }
        },
        "/registrations/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Get a registration by ID",
                "parameters": [{"type": "string", "description": "Registration ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Registration"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/registrations/{id}/submit": {
            "post": {
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Submit a registration",
                "parameters": [{"type": "string", "description": "Registration ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Registration"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/registrations/{id}/confirm": {
            "post": {
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Confirm a registration",
                "parameters": [{"type": "string", "description": "Registration ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Registration"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/tasks/registration-purge": {
            "post": {
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Run the registration purge task",
                "parameters": [
                    {"type": "boolean", "description": "Only count what would change", "name": "dry_run", "in": "query"},
                    {"type": "boolean", "description": "Enqueue for the purge worker instead of running inline", "name": "async", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/purge.Result"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/models.TaskTrigger"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "models.CreateRegistrationRequest": {
            "type": "object",
            "required": ["email", "event_id", "name"],
            "properties": {
                "email": {"type": "string", "example": "jane@example.com"},
                "event_id": {"type": "string", "example": "summer-fair-2026"},
                "name": {"type": "string", "example": "Jane Doe"}
            }
        },
        "models.Registration": {
            "type": "object",
            "properties": {
                "created": {"type": "string"},
                "email": {"type": "string"},
                "event_id": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "status": {"type": "string", "enum": ["Unsubmitted", "Unconfirmed", "Valid", "Cancelled"]},
                "updated": {"type": "string"}
            }
        },
        "models.TaskTrigger": {
            "type": "object",
            "properties": {
                "correlation_id": {"type": "string"},
                "dry_run": {"type": "boolean"},
                "requested_at": {"type": "string"},
                "task": {"type": "string"},
                "trigger_id": {"type": "string"}
            }
        },
        "purge.Result": {
            "type": "object",
            "properties": {
                "cancelled": {"type": "integer"},
                "deleted": {"type": "integer"},
                "dry_run": {"type": "boolean"},
                "duration": {"type": "string"},
                "started_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Registripe API",
	Description:      "Event registrations and the scheduled purge of stale Unsubmitted and Unconfirmed registrations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
