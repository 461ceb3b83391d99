package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "HR Discipline API",
        "description": "Tardiness classification and disciplinary escalation engine",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Attendance", "description": "Event ingestion and manual review"},
        {"name": "Accumulations", "description": "Per-employee monthly tardiness ledger"},
        {"name": "Rules", "description": "Classification and escalation rule catalog"},
        {"name": "Disciplinary", "description": "Disciplinary records and approvals"}
    ],
    "paths": {
        "/attendance/events": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Ingest a single attendance event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttendanceEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/events/bulk": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Ingest a batch of attendance events asynchronously",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/review-queue": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List manual-review queue entries",
                "parameters": [
                    {"name": "employee_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/review-queue/{id}/resolve": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Resolve a manual-review entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/accumulations": {
            "get": {
                "tags": ["Accumulations"],
                "summary": "List accumulation ledger rows",
                "parameters": [
                    {"name": "employee_id", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/accumulations/{employee_id}/{year}/{month}": {
            "get": {
                "tags": ["Accumulations"],
                "summary": "Get one employee-month ledger row",
                "parameters": [
                    {"name": "employee_id", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"},
                    {"name": "month", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Accumulations"],
                "summary": "Delete an employee-month ledger row",
                "parameters": [
                    {"name": "employee_id", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"},
                    {"name": "month", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/accumulations/{employee_id}/summary": {
            "get": {
                "tags": ["Accumulations"],
                "summary": "Employee accumulation summary",
                "parameters": [
                    {"name": "employee_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rules/tardiness": {
            "get": {
                "tags": ["Rules"],
                "summary": "List tardiness classification rules",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Rules"],
                "summary": "Create a tardiness classification rule",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rules/disciplinary": {
            "get": {
                "tags": ["Rules"],
                "summary": "List disciplinary action rules",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Rules"],
                "summary": "Create a disciplinary action rule",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rules/reload": {
            "post": {
                "tags": ["Rules"],
                "summary": "Rebuild the serving rule snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/disciplinary-records": {
            "get": {
                "tags": ["Disciplinary"],
                "summary": "List disciplinary records",
                "parameters": [
                    {"name": "employee_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/disciplinary-records/{id}/approve": {
            "post": {
                "tags": ["Disciplinary"],
                "summary": "Approve a pending disciplinary record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AttendanceEventRequest": {
            "type": "object",
            "required": ["employee_id", "date", "expected_start", "source_id"],
            "properties": {
                "employee_id": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "check_in": {"type": "string", "format": "date-time"},
                "expected_start": {"type": "string", "format": "date-time"},
                "source_id": {"type": "string"}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
