// Package docs registers the Swagger spec served at /swagger.
// It covers the main storefront routes; `swag init -g cmd/api/main.go` regenerates the full spec
// from the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check endpoint",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/cart": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Get the caller's cart",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CartEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.StandardError"}}
                }
            }
        },
        "/cart/add": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Add a product to the cart",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AddToCartRequest"}},
                    {"type": "string", "name": "X-Request-ID", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CartEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.StandardError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.StandardError"}}
                }
            }
        },
        "/orders": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Place an order",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateOrderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.OrderEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.StandardError"}}
                }
            }
        },
        "/orders/{id}/verify": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Verify an order",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.OrderEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.StandardError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.StandardError"}}
                }
            }
        },
        "/orders/{id}/cancel": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Cancel an order",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/handlers.CancelOrderRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.OrderEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.StandardError"}}
                }
            }
        },
        "/catalogs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List catalog items",
                "parameters": [
                    {"type": "string", "name": "category", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CatalogListEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "errors.StandardError": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "handlers.AddToCartRequest": {
            "type": "object",
            "required": ["productId"],
            "properties": {
                "productId": {"type": "string"},
                "quantity": {"type": "integer", "default": 1},
                "selectedColor": {"type": "string"},
                "selectedSize": {"type": "string"}
            }
        },
        "handlers.CartEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "cart": {"type": "object"}
            }
        },
        "handlers.CreateOrderRequest": {
            "type": "object",
            "properties": {
                "customerName": {"type": "string"},
                "customerPhone": {"type": "string"},
                "items": {"type": "array", "items": {"type": "object"}}
            }
        },
        "handlers.CancelOrderRequest": {
            "type": "object",
            "properties": {
                "cancellationReason": {"type": "string"}
            }
        },
        "handlers.OrderEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "object"}
            }
        },
        "handlers.CatalogListEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "array", "items": {"type": "object"}},
                "pagination": {"type": "object"}
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
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Storefront Service API",
	Description:      "Carts, orders and stock reservation for the storefront catalog",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
