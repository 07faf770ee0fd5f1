// Package docs registers the OpenAPI document served at /swagger in dev mode.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"Bearer": []}],
    "paths": {
        "/login": {
            "post": {"tags": ["auth"], "summary": "Issue a bearer token", "security": [], "responses": {"200": {"description": "token"}, "401": {"description": "invalid id or password"}}}
        },
        "/accounts": {
            "post": {"tags": ["auth"], "summary": "Create an account (admin)", "responses": {"201": {"description": "registered"}, "409": {"description": "id already exists"}}}
        },
        "/students/{student_id}/records/{date}": {
            "head": {"tags": ["records"], "summary": "Check that a live record exists", "responses": {"200": {"description": "exists"}, "404": {"description": "no record"}}},
            "post": {"tags": ["records"], "summary": "Get or create the record of a student for a day", "responses": {"200": {"description": "already existed"}, "201": {"description": "created"}}},
            "delete": {"tags": ["records"], "summary": "Soft-delete the record", "responses": {"204": {"description": "deleted"}, "404": {"description": "no record"}}}
        },
        "/students/{student_id}/records/{date}/open": {
            "post": {"tags": ["registration"], "summary": "Open the detail screen, saving attendance first when given", "responses": {"200": {"description": "record"}}}
        },
        "/records/{record_id}": {
            "get": {"tags": ["records"], "summary": "Read one record", "responses": {"200": {"description": "record"}, "404": {"description": "missing or deleted"}}},
            "put": {"tags": ["records"], "summary": "Replace the staff-editable fields", "responses": {"200": {"description": "record"}, "400": {"description": "invalid input"}}}
        },
        "/records/{record_id}/review": {
            "post": {"tags": ["review"], "summary": "Mark the record as reviewed by a guardian", "responses": {"200": {"description": "record"}, "404": {"description": "missing or deleted"}}}
        },
        "/classes": {
            "get": {"tags": ["classes"], "summary": "List classes", "responses": {"200": {"description": "classes"}}}
        },
        "/classes/{class_id}": {
            "put": {"tags": ["classes"], "summary": "Create or rename a class (admin)", "responses": {"200": {"description": "class"}}},
            "delete": {"tags": ["classes"], "summary": "Disable a class (admin)", "responses": {"204": {"description": "disabled"}}}
        },
        "/classes/{class_id}/students": {
            "get": {"tags": ["classes"], "summary": "Students enrolled in a class", "responses": {"200": {"description": "roster"}}},
            "post": {"tags": ["classes"], "summary": "Enroll students (admin)", "responses": {"204": {"description": "enrolled"}}}
        },
        "/classes/{class_id}/students/{student_id}": {
            "delete": {"tags": ["classes"], "summary": "Unenroll a student (admin)", "responses": {"204": {"description": "removed"}}}
        },
        "/holidays": {
            "post": {"tags": ["classes"], "summary": "Register a closing day (admin)", "responses": {"201": {"description": "holiday"}}}
        },
        "/classes/{class_id}/attendance/{date}": {
            "get": {"tags": ["attendance"], "summary": "Attendance of a class for a day", "responses": {"200": {"description": "attendance"}}},
            "put": {"tags": ["attendance"], "summary": "Save attendance marks", "responses": {"200": {"description": "attendance"}}}
        },
        "/classes/{class_id}/records/{date}/roster": {
            "get": {"tags": ["registration"], "summary": "Selectable students with presence and record flags", "responses": {"200": {"description": "roster"}}}
        },
        "/classes/{class_id}/records/{date}": {
            "post": {"tags": ["registration"], "summary": "Create records for present or selected students", "responses": {"200": {"description": "batch result"}}}
        },
        "/students/{student_id}/records": {
            "get": {"tags": ["history"], "summary": "Most recent records, or a date range with from/to", "responses": {"200": {"description": "records, newest first"}}}
        },
        "/students/{student_id}/records/export": {
            "get": {"tags": ["history"], "summary": "Export a date range as xlsx", "responses": {"200": {"description": "spreadsheet"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Carebook API",
	Description:      "Daily care records of a childcare center.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
