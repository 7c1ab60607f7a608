package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Grade Calculator API",
        "description": "Course grade calculation with optimal drop rules and weighted assignment groups",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Grades", "description": "Course grade calculation"},
        {"name": "Ops", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Result cache unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/grades/calculate": {
            "post": {
                "tags": ["Grades"],
                "summary": "Calculate a course grade",
                "description": "Applies eligibility, optimal drop rules and group weighting to the supplied assignment groups.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalculateGradeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Too many assignment groups", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/calculate/batch": {
            "post": {
                "tags": ["Grades"],
                "summary": "Calculate many course grades concurrently",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchCalculateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Too many items", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/course": {
            "post": {
                "tags": ["Grades"],
                "summary": "Calculate current and final course grades",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalculateGradeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/cache": {
            "delete": {
                "tags": ["Grades"],
                "summary": "Purge cached grade calculations",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Purged"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Submission": {
            "type": "object",
            "properties": {
                "score": {"type": "number"},
                "posted_at": {"type": "string", "format": "date-time"},
                "excused": {"type": "boolean"}
            }
        },
        "Assignment": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "points_possible": {"type": "number"},
                "submission": {"$ref": "#/definitions/Submission"}
            }
        },
        "DropRule": {
            "type": "object",
            "properties": {
                "drop_lowest": {"type": "integer"},
                "drop_highest": {"type": "integer"},
                "never_drop": {"type": "array", "items": {"type": "string"}}
            }
        },
        "AssignmentGroup": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "weight": {"type": "number"},
                "rules": {"$ref": "#/definitions/DropRule"},
                "assignments": {"type": "array", "items": {"$ref": "#/definitions/Assignment"}}
            }
        },
        "CalculateGradeRequest": {
            "type": "object",
            "properties": {
                "assignment_groups": {"type": "array", "items": {"$ref": "#/definitions/AssignmentGroup"}},
                "what_if_scores": {"type": "object", "additionalProperties": {"type": "number"}},
                "apply_group_weights": {"type": "boolean"},
                "only_graded": {"type": "boolean"}
            }
        },
        "BatchCalculateItem": {
            "type": "object",
            "required": ["key"],
            "properties": {
                "key": {"type": "string"},
                "assignment_groups": {"type": "array", "items": {"$ref": "#/definitions/AssignmentGroup"}},
                "what_if_scores": {"type": "object", "additionalProperties": {"type": "number"}},
                "apply_group_weights": {"type": "boolean"},
                "only_graded": {"type": "boolean"}
            }
        },
        "BatchCalculateRequest": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/BatchCalculateItem"}}
            }
        },
        "GroupGrade": {
            "type": "object",
            "properties": {
                "group_id": {"type": "string"},
                "name": {"type": "string"},
                "percentage": {"type": "number"},
                "score": {"type": "number"},
                "points_possible": {"type": "number"},
                "weight": {"type": "number"},
                "effective_weight": {"type": "number"},
                "contributing": {"type": "boolean"},
                "kept": {"type": "array", "items": {"type": "string"}},
                "dropped_lowest": {"type": "array", "items": {"type": "string"}},
                "dropped_highest": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CourseGrade": {
            "type": "object",
            "properties": {
                "percentage": {"type": "number"},
                "mode": {"type": "string", "enum": ["CURRENT", "FINAL"]},
                "apply_group_weights": {"type": "boolean"},
                "groups": {"type": "array", "items": {"$ref": "#/definitions/GroupGrade"}}
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
