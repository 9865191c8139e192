package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Gradebook API",
        "description": "Per-course gradebooks for a tutoring center: score columns, weighted totals, ranks and five-tier percentile statistics",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Gradebooks", "description": "Score columns, scores and total score settings"},
        {"name": "Reports", "description": "Totals, ranks, percentile bands and exports"},
        {"name": "System", "description": "Runtime metrics"}
    ],
    "paths": {
        "/gradebooks/{courseKey}": {
            "get": {
                "tags": ["Gradebooks"],
                "summary": "Get course gradebook",
                "description": "A course without a stored gradebook returns defaults seeded from the roster.",
                "parameters": [{"$ref": "#/parameters/CourseKey"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Gradebooks"],
                "summary": "Replace course gradebook",
                "parameters": [
                    {"$ref": "#/parameters/CourseKey"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Gradebook"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Inconsistent columns or scores", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Gradebooks"],
                "summary": "Delete course gradebook",
                "parameters": [{"$ref": "#/parameters/CourseKey"}],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/gradebooks/{courseKey}/columns": {
            "post": {
                "tags": ["Gradebooks"],
                "summary": "Append a score column",
                "parameters": [
                    {"$ref": "#/parameters/CourseKey"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddColumnRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{courseKey}/columns/{index}": {
            "patch": {
                "tags": ["Gradebooks"],
                "summary": "Update score column metadata",
                "parameters": [
                    {"$ref": "#/parameters/CourseKey"},
                    {"$ref": "#/parameters/ColumnIndex"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateColumnRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Column index out of range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Gradebooks"],
                "summary": "Remove a score column",
                "description": "Later columns shift down by one and keep their scores.",
                "parameters": [
                    {"$ref": "#/parameters/CourseKey"},
                    {"$ref": "#/parameters/ColumnIndex"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Column index out of range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{courseKey}/columns/{index}/report": {
            "get": {
                "tags": ["Reports"],
                "summary": "Statistics and ranks for one column",
                "parameters": [
                    {"$ref": "#/parameters/CourseKey"},
                    {"$ref": "#/parameters/ColumnIndex"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{courseKey}/scores": {
            "put": {
                "tags": ["Gradebooks"],
                "summary": "Record or clear scores",
                "description": "Every entry is applied or none. A null score clears the entry.",
                "parameters": [
                    {"$ref": "#/parameters/CourseKey"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScoresRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{courseKey}/students/{studentId}": {
            "patch": {
                "tags": ["Gradebooks"],
                "summary": "Update manual adjustment or remark",
                "parameters": [
                    {"$ref": "#/parameters/CourseKey"},
                    {"$ref": "#/parameters/StudentID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{courseKey}/students/{studentId}/report": {
            "get": {
                "tags": ["Reports"],
                "summary": "One student's scores with ranks and class statistics",
                "parameters": [
                    {"$ref": "#/parameters/CourseKey"},
                    {"$ref": "#/parameters/StudentID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not in gradebook", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{courseKey}/settings": {
            "put": {
                "tags": ["Gradebooks"],
                "summary": "Replace total score setting",
                "description": "Inconsistent weights are accepted and reported in meta.warnings.",
                "parameters": [
                    {"$ref": "#/parameters/CourseKey"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSettingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{courseKey}/roster/sync": {
            "post": {
                "tags": ["Gradebooks"],
                "summary": "Add newly enrolled students",
                "parameters": [{"$ref": "#/parameters/CourseKey"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{courseKey}/totals": {
            "get": {
                "tags": ["Reports"],
                "summary": "Total scores with ranks",
                "parameters": [{"$ref": "#/parameters/CourseKey"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{courseKey}/periodic/{name}/report": {
            "get": {
                "tags": ["Reports"],
                "summary": "Statistics and ranks for one periodic exam",
                "parameters": [
                    {"$ref": "#/parameters/CourseKey"},
                    {"name": "name", "in": "path", "required": true, "type": "string", "enum": ["FIRST", "SECOND", "FINAL"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{courseKey}/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download total scores",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"$ref": "#/parameters/CourseKey"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Runtime metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "CourseKey": {"name": "courseKey", "in": "path", "required": true, "type": "string", "description": "Course key, e.g. Algebra(MA101)"},
        "ColumnIndex": {"name": "index", "in": "path", "required": true, "type": "integer", "minimum": 0},
        "StudentID": {"name": "studentId", "in": "path", "required": true, "type": "string"}
    },
    "definitions": {
        "ScoreColumn": {
            "type": "object",
            "properties": {
                "index": {"type": "integer"},
                "category": {"type": "string", "enum": ["QUIZ", "HOMEWORK", "ATTITUDE"]},
                "label": {"type": "string"},
                "exam_date": {"type": "string", "format": "date-time", "x-nullable": true}
            }
        },
        "StudentGradeRow": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "name": {"type": "string"},
                "regular_scores": {"type": "object", "additionalProperties": {"type": "number"}},
                "periodic_scores": {"type": "object", "additionalProperties": {"type": "number"}},
                "manual_adjust": {"type": "integer", "minimum": -5, "maximum": 5},
                "remark": {"type": "string"}
            }
        },
        "CategorySetting": {
            "type": "object",
            "properties": {
                "percent": {"type": "number"},
                "calc_method": {"type": "string", "enum": ["ALL", "BEST_N"]},
                "n": {"type": "integer", "x-nullable": true}
            }
        },
        "TotalScoreSetting": {
            "type": "object",
            "properties": {
                "regular_percent": {"type": "number"},
                "periodic_percent": {"type": "number"},
                "manual_adjust_default": {"type": "integer"},
                "categories": {"type": "object", "additionalProperties": {"$ref": "#/definitions/CategorySetting"}},
                "periodic_enabled": {"type": "object", "additionalProperties": {"type": "boolean"}}
            }
        },
        "Gradebook": {
            "type": "object",
            "properties": {
                "course_key": {"type": "string"},
                "columns": {"type": "array", "items": {"$ref": "#/definitions/ScoreColumn"}},
                "students": {"type": "array", "items": {"$ref": "#/definitions/StudentGradeRow"}},
                "total_setting": {"$ref": "#/definitions/TotalScoreSetting"},
                "periodic_scores": {"type": "array", "items": {"type": "string"}}
            }
        },
        "AddColumnRequest": {
            "type": "object",
            "required": ["category", "label"],
            "properties": {
                "category": {"type": "string", "enum": ["QUIZ", "HOMEWORK", "ATTITUDE"]},
                "label": {"type": "string"},
                "exam_date": {"type": "string", "format": "date-time", "x-nullable": true}
            }
        },
        "UpdateColumnRequest": {
            "type": "object",
            "properties": {
                "category": {"type": "string", "enum": ["QUIZ", "HOMEWORK", "ATTITUDE"]},
                "label": {"type": "string"},
                "exam_date": {"type": "string", "format": "date-time", "x-nullable": true},
                "clear_exam_date": {"type": "boolean"}
            }
        },
        "ScoreEntry": {
            "type": "object",
            "required": ["student_id"],
            "properties": {
                "student_id": {"type": "string"},
                "column_index": {"type": "integer", "x-nullable": true},
                "periodic": {"type": "string", "enum": ["FIRST", "SECOND", "FINAL"]},
                "score": {"type": "number", "x-nullable": true}
            }
        },
        "UpdateScoresRequest": {
            "type": "object",
            "required": ["items"],
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/ScoreEntry"}}
            }
        },
        "UpdateStudentRequest": {
            "type": "object",
            "properties": {
                "manual_adjust": {"type": "integer"},
                "remark": {"type": "string"}
            }
        },
        "UpdateSettingsRequest": {
            "type": "object",
            "required": ["categories"],
            "properties": {
                "periodic_percent": {"type": "number"},
                "manual_adjust_default": {"type": "integer"},
                "categories": {"type": "object", "additionalProperties": {"$ref": "#/definitions/CategorySetting"}},
                "periodic_enabled": {"type": "object", "additionalProperties": {"type": "boolean"}}
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
