package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Twin Gateway API",
        "description": "Local gateway for Digital Twin academic synchronization",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Academic", "description": "Coordinator state, refresh and full sync"},
        {"name": "Drive", "description": "Drive folder picker session"},
        {"name": "Gmail", "description": "Inbox scan trigger"},
        {"name": "Moodle", "description": "Moodle account connection"},
        {"name": "Materials", "description": "Inbox material previews"},
        {"name": "Session", "description": "Local identity store"},
        {"name": "Exports", "description": "Digest export jobs"}
    ],
    "paths": {
        "/academic": {
            "get": {
                "tags": ["Academic"],
                "summary": "Current academic state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academic/refresh": {
            "post": {
                "tags": ["Academic"],
                "summary": "Re-fetch courses and inbox materials",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academic/sync": {
            "post": {
                "tags": ["Academic"],
                "summary": "Trigger a full backend sync",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/drive/session": {
            "post": {
                "tags": ["Drive"],
                "summary": "Open a folder-picker session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Drive"],
                "summary": "Read the picker state",
                "parameters": [
                    {"name": "tab", "in": "query", "type": "string", "enum": ["add", "manage"]},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Drive"],
                "summary": "Close the picker session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/drive/session/toggle": {
            "post": {
                "tags": ["Drive"],
                "summary": "Toggle a folder in the selection set",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DriveToggleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/drive/session/sync": {
            "post": {
                "tags": ["Drive"],
                "summary": "Start syncing the selected folders",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/drive/session/unsync": {
            "post": {
                "tags": ["Drive"],
                "summary": "Stop syncing folders",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DriveUnsyncRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "428": {"description": "Confirmation required"}
                }
            }
        },
        "/drive/session/refresh": {
            "post": {
                "tags": ["Drive"],
                "summary": "Re-fetch the synced folder set",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gmail/scan": {
            "post": {
                "tags": ["Gmail"],
                "summary": "Trigger an inbox scan",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Gmail"],
                "summary": "Read the scan flow status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/moodle/connect": {
            "post": {
                "tags": ["Moodle"],
                "summary": "Connect a Moodle account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoodleConnectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Moodle"],
                "summary": "Read the connection flow status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/materials/{id}/preview": {
            "get": {
                "tags": ["Materials"],
                "summary": "Preview an inbox material",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/session": {
            "get": {
                "tags": ["Session"],
                "summary": "Read the stored identity",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Session"],
                "summary": "Store the identity the gateway acts for",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SessionPutRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Session"],
                "summary": "Drop the stored identity",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a digest export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Read an export job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a rendered digest",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
        "DriveToggleRequest": {
            "type": "object",
            "required": ["folder_id"],
            "properties": {
                "folder_id": {"type": "string"}
            }
        },
        "DriveUnsyncRequest": {
            "type": "object",
            "properties": {
                "folder_ids": {"type": "array", "items": {"type": "string"}},
                "all": {"type": "boolean"},
                "confirmed": {"type": "boolean"}
            }
        },
        "MoodleConnectRequest": {
            "type": "object",
            "required": ["moodle_url", "moodle_token"],
            "properties": {
                "moodle_url": {"type": "string"},
                "moodle_token": {"type": "string"}
            }
        },
        "SessionPutRequest": {
            "type": "object",
            "required": ["email", "user_id"],
            "properties": {
                "email": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["kind", "format"],
            "properties": {
                "kind": {"type": "string", "enum": ["courses", "inbox"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
