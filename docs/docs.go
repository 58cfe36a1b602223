// Package docs registers the OpenAPI description served at /swagger.
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
        "/catalog": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Catalog"],
                "summary": "Package catalog",
                "parameters": [
                    {"type": "string", "description": "GYM or MMA", "name": "category", "in": "query"},
                    {"type": "string", "description": "SINGLE or COUPLE", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Login staff member",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/auth/heartbeat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Auth"],
                "summary": "Session heartbeat",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Auth"],
                "summary": "Logout",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Auth"],
                "summary": "Current user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/members": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Members"],
                "summary": "List members",
                "parameters": [
                    {"type": "string", "default": "ALL", "description": "Tab", "name": "tab", "in": "query"},
                    {"type": "string", "description": "Name or phone search", "name": "q", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["Members"],
                "summary": "Enroll member",
                "parameters": [
                    {"description": "Enrollment form", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.MemberForm"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/members/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Members"],
                "summary": "Get member",
                "parameters": [{"type": "string", "description": "Member ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["Members"],
                "summary": "Update member",
                "parameters": [
                    {"type": "string", "description": "Member ID", "name": "id", "in": "path", "required": true},
                    {"description": "Edit form", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.MemberForm"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/members/{id}/welcome": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Alerts"],
                "summary": "Send welcome message",
                "parameters": [{"type": "string", "description": "Member ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/members/{id}/reminders/expiry": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Alerts"],
                "summary": "Send expiry reminder",
                "parameters": [{"type": "string", "description": "Member ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/members/{id}/reminders/pending": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Alerts"],
                "summary": "Send pending fee reminder",
                "parameters": [{"type": "string", "description": "Member ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/members/{id}/birthday-wish": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Alerts"],
                "summary": "Send birthday wish",
                "parameters": [{"type": "string", "description": "Member ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/alerts/birthdays": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Alerts"], "summary": "Birthday worklist",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/alerts/renewals": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Alerts"], "summary": "Renewal worklist",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/alerts/pending": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Alerts"], "summary": "Pending fees worklist",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/dashboard": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Dashboard"], "summary": "Dashboard",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Logs"],
                "summary": "Audit log",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page", "name": "page", "in": "query"},
                    {"type": "integer", "default": 50, "description": "Rows per page", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/logs/daily": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Logs"], "summary": "Audit log by day",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/sessions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Sessions"], "summary": "Open sessions",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/feed": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Feed"],
                "summary": "Change feed (long-poll)",
                "parameters": [
                    {"type": "integer", "description": "Last seen sequence number", "name": "since", "in": "query"},
                    {"type": "integer", "description": "Seconds to wait (0 = return immediately)", "name": "wait", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/feed/stream": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["text/event-stream"], "tags": ["Feed"], "summary": "Change feed (stream)",
                "responses": {"200": {"description": "OK"}}}
        },
        "/admin/sessions/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Force logout",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/admin/sessions/logout-others": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Logout all other devices",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/admin/devices": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Authorized devices",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        },
        "/admin/devices/{phone}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Reset device binding",
                "parameters": [{"type": "string", "description": "Staff phone", "name": "phone", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/admin/secret": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Current login secret",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}}
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "error": {"type": "string"},
                "field": {"type": "string"},
                "code": {"type": "string"}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "properties": {
                "phone": {"type": "string"},
                "secret": {"type": "string"},
                "device_id": {"type": "string"}
            }
        },
        "domain.MemberForm": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "phone_number": {"type": "string"},
                "email": {"type": "string"},
                "membership_type": {"type": "string", "enum": ["SINGLE", "COUPLE"]},
                "service_category": {"type": "string", "enum": ["GYM", "MMA"]},
                "package_id": {"type": "string"},
                "joining_date": {"type": "string", "example": "2024-06-01"},
                "birthdate": {"type": "string"},
                "gender": {"type": "string", "enum": ["MALE", "FEMALE", "OTHER"]},
                "payment_received": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "CageDesk API",
	Description:      "Membership ledger, member alerts and staff sessions for the gym front desk",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
