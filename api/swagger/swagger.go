package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Grade Service API",
        "description": "Grade calculation and ranking engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Assessments", "description": "Assessment type catalog"},
        {"name": "Configs", "description": "Grading configuration resolution"},
        {"name": "Schedules", "description": "Semester exam schedules"},
        {"name": "Grades", "description": "Grade entry store"},
        {"name": "Rankings", "description": "Class rankings"},
        {"name": "Summaries", "description": "Student and class report views"}
    ],
    "paths": {
        "/assessment-types": {
            "get": {
                "tags": ["Assessments"],
                "summary": "List assessment types",
                "parameters": [
                    {"name": "category", "in": "query", "type": "string", "enum": ["MONTHLY_EXAM", "SEMESTER_EXAM"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Assessments"],
                "summary": "Create assessment type (admin)",
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/assessment-types/{id}": {
            "get": {
                "tags": ["Assessments"],
                "summary": "Get assessment type",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Assessments"],
                "summary": "Update assessment type (admin)",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/grade-configs/resolve": {
            "get": {
                "tags": ["Configs"],
                "summary": "Resolve effective grading config",
                "parameters": [
                    {"name": "classId", "in": "query", "required": true, "type": "string"},
                    {"name": "subjectId", "in": "query", "required": true, "type": "string"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "academicYear", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/grade-configs": {
            "get": {
                "tags": ["Configs"],
                "summary": "List stored grading configs for a scope",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Configs"],
                "summary": "Create or replace a grading config",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Weights must sum to 100.00"}
                }
            }
        },
        "/schedules/resolve": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Resolve effective semester schedule",
                "parameters": [
                    {"name": "academicYear", "in": "query", "required": true, "type": "string"},
                    {"name": "semesterExamCode", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/schedules": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Create or replace a semester schedule",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "List grade entries",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Grades"],
                "summary": "Create a grade entry",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate grade"}
                }
            }
        },
        "/grades/bulk": {
            "post": {
                "tags": ["Grades"],
                "summary": "Create grades for many students",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/grades/monthly": {
            "post": {
                "tags": ["Grades"],
                "summary": "Enter a monthly grade sheet",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/grades/semester-exam": {
            "post": {
                "tags": ["Grades"],
                "summary": "Enter semester exam grades",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/grades/{id}": {
            "get": {
                "tags": ["Grades"],
                "summary": "Get grade entry",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Grades"],
                "summary": "Update grade entry (owner only)",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not the entering teacher"}}
            },
            "delete": {
                "tags": ["Grades"],
                "summary": "Delete grade entry (owner only)",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not the entering teacher"}}
            }
        },
        "/classes/{id}/ranking": {
            "get": {
                "tags": ["Rankings"],
                "summary": "Rank a class for a subject and semester",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "subjectId", "in": "query", "required": true, "type": "string"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "academicYear", "in": "query", "required": true, "type": "string"},
                    {"name": "priorSemester", "in": "query", "type": "integer"},
                    {"name": "priorAcademicYear", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/classes/{id}/summary": {
            "get": {
                "tags": ["Summaries"],
                "summary": "Class summary for a subject and semester",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/classes/{id}/summary/export": {
            "get": {
                "tags": ["Summaries"],
                "summary": "Download a class summary report (csv or pdf)",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "produces": ["text/csv", "application/pdf"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}/semester-summary": {
            "get": {
                "tags": ["Summaries"],
                "summary": "Student semester summary across subjects",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
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
                "pagination": {"type": "object"},
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
