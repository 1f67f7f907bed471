package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Automatic weekly timetable generation for schools.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Workload",
            "description": "Teaching loads, settings and time slots"
        },
        {
            "name": "Schedules",
            "description": "Timetable generation and lifecycle"
        },
        {
            "name": "Observability",
            "description": "Metrics and probes"
        }
    ],
    "paths": {
        "/workload": {
            "get": {
                "tags": [
                    "Workload"
                ],
                "summary": "Workload-ready data for schedule generation",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "institution_id",
                        "in": "query",
                        "type": "string",
                        "description": "Defaults to the caller's institution"
                    },
                    {
                        "name": "academic_year_id",
                        "in": "query",
                        "type": "string",
                        "description": "Defaults to the active academic year"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/workload/validation": {
            "get": {
                "tags": [
                    "Workload"
                ],
                "summary": "Validate the workload of an academic year",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "institution_id",
                        "in": "query",
                        "type": "string",
                        "description": "Defaults to the caller's institution"
                    },
                    {
                        "name": "academic_year_id",
                        "in": "query",
                        "type": "string",
                        "description": "Defaults to the active academic year"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/workload/statistics": {
            "get": {
                "tags": [
                    "Workload"
                ],
                "summary": "Workload statistics",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "institution_id",
                        "in": "query",
                        "type": "string",
                        "description": "Defaults to the caller's institution"
                    },
                    {
                        "name": "academic_year_id",
                        "in": "query",
                        "type": "string",
                        "description": "Defaults to the active academic year"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/workload/time-slots": {
            "get": {
                "tags": [
                    "Workload"
                ],
                "summary": "Daily time-slot template of the active settings",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "institution_id",
                        "in": "query",
                        "type": "string",
                        "description": "Defaults to the caller's institution"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "No active generation settings",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/workload/status": {
            "get": {
                "tags": [
                    "Workload"
                ],
                "summary": "Scheduling progress of an institution's teaching loads",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "institution_id",
                        "in": "query",
                        "type": "string",
                        "description": "Defaults to the caller's institution"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/workload/settings/validate": {
            "post": {
                "tags": [
                    "Workload"
                ],
                "summary": "Validate a generation settings payload",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GenerationSettings"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/workload/loads/ready": {
            "post": {
                "tags": [
                    "Workload"
                ],
                "summary": "Mark teaching loads ready for generation",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/TeachingLoadIDsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/workload/loads/reset": {
            "post": {
                "tags": [
                    "Workload"
                ],
                "summary": "Reset the scheduling status of teaching loads",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/TeachingLoadIDsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules/generate": {
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Generate and store a weekly timetable",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GenerateScheduleRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "A generation is already running for the institution",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "No active generation settings",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Invalid workload",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules/generate/async": {
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Queue a timetable generation",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GenerateScheduleRequest"
                        }
                    }
                ],
                "responses": {
                    "202": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules/jobs/{id}": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Status of a queued generation",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "List generated schedules",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "institution_id",
                        "in": "query",
                        "type": "string",
                        "description": "Defaults to the caller's institution"
                    },
                    {
                        "name": "academic_year_id",
                        "in": "query",
                        "type": "string",
                        "description": "Defaults to the active academic year"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string",
                        "description": "draft, published or archived"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "page_size",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Get a schedule",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Delete a draft schedule",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "409": {
                        "description": "Schedule is not a draft",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules/{id}/sessions": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Lessons of a schedule",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules/{id}/conflicts": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Conflict report of a schedule",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules/{id}/export": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Download a schedule as CSV or PDF",
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "description": "csv (default) or pdf"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Timetable file",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules/{id}/publish": {
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Publish a draft schedule",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Critical conflicts remain",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": [
                    "Observability"
                ],
                "summary": "Aggregated service metrics",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "GenerationSettings": {
            "type": "object",
            "properties": {
                "working_days": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                },
                "daily_periods": {
                    "type": "integer"
                },
                "period_duration": {
                    "type": "integer"
                },
                "break_periods": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                },
                "lunch_break_period": {
                    "type": "integer"
                },
                "first_period_start": {
                    "type": "string",
                    "example": "08:00"
                },
                "break_duration": {
                    "type": "integer"
                },
                "lunch_duration": {
                    "type": "integer"
                }
            }
        },
        "TeachingLoadIDsRequest": {
            "type": "object",
            "properties": {
                "institution_id": {
                    "type": "string"
                },
                "teaching_load_ids": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            },
            "required": [
                "teaching_load_ids"
            ]
        },
        "GenerationPreferences": {
            "type": "object",
            "properties": {
                "prioritize_teacher_preferences": {
                    "type": "boolean"
                },
                "minimize_gaps": {
                    "type": "boolean"
                },
                "balance_daily_load": {
                    "type": "boolean"
                },
                "avoid_late_periods": {
                    "type": "boolean"
                },
                "prefer_morning_core_subjects": {
                    "type": "boolean"
                },
                "max_consecutive_same_subject": {
                    "type": "integer"
                },
                "min_break_between_same_subject": {
                    "type": "integer"
                },
                "room_optimization": {
                    "type": "boolean"
                },
                "conflict_resolution_strategy": {
                    "type": "string",
                    "enum": [
                        "teacher_priority",
                        "class_priority",
                        "balanced"
                    ]
                }
            }
        },
        "GenerateScheduleRequest": {
            "type": "object",
            "properties": {
                "institution_id": {
                    "type": "string"
                },
                "academic_year_id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "generation_preferences": {
                    "$ref": "#/definitions/GenerationPreferences"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
