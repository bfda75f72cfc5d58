package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Timetable API",
        "description": "Student and teacher timetables, lesson scheduling and grid export",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetables", "description": "Date by timeslot grids for students and teachers"},
        {"name": "Lessons", "description": "Scheduling lessons into classrooms"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/api/v1/timetables/students/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Student timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "type": "string", "format": "date"},
                    {"name": "end", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TimetableEnvelope"}},
                    "400": {"description": "Invalid interval", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Inconsistent schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/teachers/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Teacher timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "type": "string", "format": "date"},
                    {"name": "end", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TimetableEnvelope"}},
                    "400": {"description": "Invalid interval", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Inconsistent schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/students/{id}/export": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Export student timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "type": "string", "format": "date"},
                    {"name": "end", "in": "query", "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File download", "schema": {"type": "file"}},
                    "400": {"description": "Invalid interval or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/teachers/{id}/export": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Export teacher timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "type": "string", "format": "date"},
                    {"name": "end", "in": "query", "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File download", "schema": {"type": "file"}},
                    "400": {"description": "Invalid interval or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/lessons": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Schedule a lesson",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Classroom already booked or missing reference", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/lessons/options": {
            "get": {
                "tags": ["Lessons"],
                "summary": "Lesson form options",
                "parameters": [
                    {"name": "teacherId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing teacher", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/lessons/{id}": {
            "get": {
                "tags": ["Lessons"],
                "summary": "Get lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Lessons"],
                "summary": "Reschedule a lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LessonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Classroom already booked or missing reference", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Lessons"],
                "summary": "Delete lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        }
    },
    "definitions": {
        "LessonRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date"},
                "timeslot_id": {"type": "string"},
                "course_id": {"type": "string"},
                "classroom_id": {"type": "string"}
            },
            "required": ["date", "timeslot_id", "course_id", "classroom_id"]
        },
        "FormattedCell": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["empty", "lesson", "unavailable", "overlap"]},
                "lesson_id": {"type": "string"},
                "course_name": {"type": "string"},
                "teacher_name": {"type": "string"},
                "classroom_number": {"type": "string"},
                "text": {"type": "string"},
                "lessons": {"type": "array", "items": {"$ref": "#/definitions/FormattedCell"}}
            }
        },
        "FormattedRow": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date"},
                "cells": {"type": "array", "items": {"$ref": "#/definitions/FormattedCell"}}
            }
        },
        "FormattedTimetable": {
            "type": "object",
            "properties": {
                "subject": {
                    "type": "object",
                    "properties": {
                        "kind": {"type": "string", "enum": ["student", "teacher"]},
                        "id": {"type": "string"}
                    }
                },
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "columns": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "id": {"type": "string"},
                            "label": {"type": "string"}
                        }
                    }
                },
                "rows": {"type": "array", "items": {"$ref": "#/definitions/FormattedRow"}},
                "lesson_count": {"type": "integer"},
                "degraded_cells": {"type": "integer"},
                "overlap_cells": {"type": "integer"}
            }
        },
        "TimetableEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/FormattedTimetable"},
                "meta": {"type": "object"}
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
