// OpenAPI document served under /docs. `swag init -g docs/swagger.go -o docs`
// regenerates the template from the handler annotations.

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
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a student or alumni account", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Sign in", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Alumni pending approval"}}}},
        "/auth/forgot-password": {"post": {"tags": ["auth"], "summary": "Mail a one-time password", "responses": {"200": {"description": "OK"}}}},
        "/auth/verify-otp": {"post": {"tags": ["auth"], "summary": "Check a one-time password", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/auth/reset-password": {"post": {"tags": ["auth"], "summary": "Set a new password with a one-time password", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/me": {"get": {"security": [{"Bearer": []}], "tags": ["profile"], "summary": "Current user", "responses": {"200": {"description": "OK"}}}},
        "/admin/dashboard": {"get": {"security": [{"Bearer": []}], "tags": ["admin"], "summary": "Counts and recent sign-ups", "responses": {"200": {"description": "OK"}}}},
        "/admin/pending-alumni": {"get": {"security": [{"Bearer": []}], "tags": ["admin"], "summary": "Alumni awaiting approval", "responses": {"200": {"description": "OK"}}}},
        "/mentorship/start": {"post": {"security": [{"Bearer": []}], "tags": ["mentorship"], "summary": "Take on students as mentees", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/mentorship/messages": {"get": {"security": [{"Bearer": []}], "tags": ["mentorship"], "summary": "Conversation history", "responses": {"200": {"description": "OK"}}}, "post": {"security": [{"Bearer": []}], "tags": ["mentorship"], "summary": "Send a message", "responses": {"201": {"description": "Created"}, "413": {"description": "Attachment too large"}}}}
    },
    "securityDefinitions": {
        "Bearer": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:3001",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Alumni Portal API",
	Description:      "Student and alumni accounts, admin moderation and one-to-one mentorship messaging.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
