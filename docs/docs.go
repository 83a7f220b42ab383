// Package docs registers the OpenAPI document of the price history API.
// Regenerate with `swag init` after changing handler annotations.
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
        "/api/v1/listings/{id}/price-history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Paginated price intervals of a listing, newest first by default",
                "produces": ["application/json"],
                "tags": ["Price History"],
                "summary": "List price history",
                "parameters": [
                    {"type": "integer", "description": "Listing ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "SALE, LEASE or SEASONAL", "name": "type", "in": "query"},
                    {"type": "string", "description": "Only intervals starting on or after this date (YYYY-MM-DD)", "name": "start_after", "in": "query"},
                    {"type": "string", "description": "Only intervals ending on or before this date (YYYY-MM-DD)", "name": "end_before", "in": "query"},
                    {"type": "boolean", "description": "Only open intervals", "name": "current_only", "in": "query"},
                    {"type": "string", "description": "start_date, end_date, amount or created_at", "name": "sort_by", "in": "query"},
                    {"type": "string", "description": "asc or desc", "name": "sort_order", "in": "query"},
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Page size", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Retrieved", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Listing not found", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Without end_date the new price becomes current and the previous current interval is closed the day before",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Price History"],
                "summary": "Create price interval",
                "parameters": [
                    {"type": "integer", "description": "Listing ID", "name": "id", "in": "path", "required": true},
                    {"description": "Price interval payload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreatePriceIntervalRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Listing not found", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "422": {"description": "Validation failed or overlapping interval", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/listings/{id}/price-history/analysis": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Forward-filled price series over the last lookback_periods periods plus statistics over every interval",
                "produces": ["application/json"],
                "tags": ["Price History"],
                "summary": "Price analysis",
                "parameters": [
                    {"type": "integer", "description": "Listing ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "SALE, LEASE or SEASONAL", "name": "type", "in": "query", "required": true},
                    {"type": "string", "description": "MONTHLY, QUARTERLY or YEARLY", "name": "granularity", "in": "query"},
                    {"type": "integer", "description": "Number of periods ending with the current one", "name": "lookback_periods", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Analysis", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Listing not found", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "422": {"description": "Lookback out of range", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/listings/{id}/price-history/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["Price History"],
                "summary": "Export price history",
                "parameters": [
                    {"type": "integer", "description": "Listing ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Workbook", "schema": {"type": "file"}},
                    "400": {"description": "Invalid id", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Listing not found", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/listings/{id}/price-history/{historyId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Price History"],
                "summary": "Get price interval",
                "parameters": [
                    {"type": "integer", "description": "Listing ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Price interval ID", "name": "historyId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Retrieved", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Intervals that ended before today cannot be edited. clear_end_date reopens the interval.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Price History"],
                "summary": "Update price interval",
                "parameters": [
                    {"type": "integer", "description": "Listing ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Price interval ID", "name": "historyId", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdatePriceIntervalRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "422": {"description": "Validation failed, overlapping or immutable interval", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Deleting the current interval reopens its latest predecessor",
                "produces": ["application/json"],
                "tags": ["Price History"],
                "summary": "Delete price interval",
                "parameters": [
                    {"type": "integer", "description": "Listing ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Price interval ID", "name": "historyId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "error": {}
            }
        },
        "dto.CreatePriceIntervalRequest": {
            "type": "object",
            "required": ["type", "amount", "start_date", "reason"],
            "properties": {
                "type": {"type": "string", "enum": ["SALE", "LEASE", "SEASONAL"]},
                "amount": {"type": "string", "example": "1200.00"},
                "start_date": {"type": "string", "example": "2024-04-01"},
                "end_date": {"type": "string", "example": "2024-06-30"},
                "reason": {"type": "string", "maxLength": 255},
                "note": {"type": "string", "maxLength": 2000}
            }
        },
        "dto.UpdatePriceIntervalRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "clear_end_date": {"type": "boolean"},
                "reason": {"type": "string", "maxLength": 255},
                "note": {"type": "string", "maxLength": 2000}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Listing Price History API",
	Description:      "Temporal price history and analytics for property listings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
