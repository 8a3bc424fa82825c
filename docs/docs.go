// Package docs registers the OpenAPI description of the public HIS API.
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
    "securityDefinitions": {
        "SessionToken": {
            "type": "apiKey",
            "in": "header",
            "name": "Authorization",
            "description": "Session <token>"
        }
    },
    "paths": {
        "/session": {
            "post": {
                "tags": ["session"],
                "summary": "Log in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Session duration in minutes", "name": "duration", "in": "query"},
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Session"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "423": {"description": "Locked", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "get": {
                "security": [{"SessionToken": []}],
                "tags": ["session"],
                "summary": "List sessions",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Session"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/session/{token}": {
            "get": {
                "security": [{"SessionToken": []}],
                "tags": ["session"],
                "summary": "Get session",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Session token or !", "name": "token", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SessionSnapshot"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "put": {
                "security": [{"SessionToken": []}],
                "tags": ["session"],
                "summary": "Renew session",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Session token or !", "name": "token", "in": "path", "required": true},
                    {"type": "integer", "description": "Session duration in minutes", "name": "duration", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SessionSnapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "423": {"description": "Locked", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"SessionToken": []}],
                "tags": ["session"],
                "summary": "Close session",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Session token or !", "name": "token", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.closedResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/service/{name}": {
            "get": {
                "security": [{"SessionToken": []}],
                "tags": ["service"],
                "summary": "Check service authorization",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Service name", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.serviceResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/account-service": {
            "post": {
                "security": [{"SessionToken": []}],
                "tags": ["service"],
                "summary": "Grant service to account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"description": "Account and service", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.grantRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.grantResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/account-service/{account}/{service}": {
            "delete": {
                "security": [{"SessionToken": []}],
                "tags": ["service"],
                "summary": "Revoke service from account",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Account id", "name": "account", "in": "path", "required": true},
                    {"type": "string", "description": "Service name", "name": "service", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.grantResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Session": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "account": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "login": {"type": "boolean"}
            }
        },
        "domain.SessionSnapshot": {
            "type": "object",
            "properties": {
                "account": {"type": "string"},
                "token": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "login": {"type": "boolean"}
            }
        },
        "domain.Service": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "promote": {"type": "boolean"},
                "locked": {"type": "boolean"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "properties": {
                "account": {"type": "string"},
                "passwd": {"type": "string"}
            }
        },
        "handler.closedResponse": {
            "type": "object",
            "properties": {"closed": {"type": "string"}}
        },
        "handler.serviceResponse": {
            "type": "object",
            "properties": {
                "service": {"$ref": "#/definitions/domain.Service"},
                "authorized": {"type": "boolean"}
            }
        },
        "handler.grantRequest": {
            "type": "object",
            "required": ["account", "service"],
            "properties": {
                "account": {"type": "string"},
                "service": {"type": "string"}
            }
        },
        "handler.grantResponse": {
            "type": "object",
            "properties": {
                "account": {"type": "string"},
                "service": {"type": "string"},
                "granted": {"type": "boolean"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "HIS API",
	Description:      "Sessions and service entitlements of the HOMEINFO Integrated Services.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
