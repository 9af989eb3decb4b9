// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/guttosm/patchwork-service"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/patchwork": {
            "get": {
                "description": "Returns a JPEG grid of the user's top album covers. Cached images are served with X-Cache: HIT.",
                "produces": ["image/jpeg", "text/plain"],
                "tags": ["Patchwork"],
                "summary": "Generate a patchwork image",
                "parameters": [
                    {"type": "string", "description": "Provider username", "name": "username", "in": "query", "required": true},
                    {"type": "string", "default": "overall", "description": "Listening period", "name": "period", "in": "query"},
                    {"type": "integer", "default": 3, "description": "Grid rows (1-10)", "name": "rows", "in": "query"},
                    {"type": "integer", "default": 3, "description": "Grid columns (1-10)", "name": "cols", "in": "query"},
                    {"type": "integer", "default": 150, "description": "Tile size in pixels (50-300)", "name": "size", "in": "query"},
                    {"type": "string", "default": "normal", "description": "Tile separator (normal or none)", "name": "border", "in": "query"},
                    {"type": "string", "default": "lastfm", "description": "Statistics provider (lastfm or listenbrainz)", "name": "provider", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "JPEG image", "schema": {"type": "file"}},
                    "400": {"description": "Invalid request", "schema": {"type": "string"}},
                    "500": {"description": "Generation failed", "schema": {"type": "string"}}
                }
            }
        },
        "/cache-stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Cache statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.CacheStats"}},
                    "500": {"description": "Cache backend error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/cache-stats.json": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Cache statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.CacheStats"}},
                    "500": {"description": "Cache backend error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/cache/{key}": {
            "delete": {
                "description": "Removes the cached image stored under key. Deleting an absent key succeeds.",
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Delete a cache entry",
                "parameters": [
                    {"type": "string", "description": "Cache key (hex SHA-256)", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DeleteResponse"}},
                    "400": {"description": "Malformed key", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Cache backend error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/cache/cleanup": {
            "post": {
                "description": "Removes expired entries, then evicts by hit count and recency until the cache is within bounds.",
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Run a cache cleanup pass",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.CleanupResponse"}},
                    "500": {"description": "Cache backend error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "Service is alive"}}
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Service is ready"},
                    "503": {"description": "Service is not ready"}
                }
            }
        }
    },
    "definitions": {
        "model.CacheStats": {
            "type": "object",
            "properties": {
                "totalEntries": {"type": "integer", "example": 42},
                "totalSize": {"type": "integer", "example": 1048576},
                "totalSizeMB": {"type": "string", "example": "1.00"},
                "avgSize": {"type": "number", "example": 24966.1},
                "totalHits": {"type": "integer", "example": 310},
                "oldestEntry": {"type": "integer", "example": 1730000000000},
                "newestEntry": {"type": "integer", "example": 1730003600000}
            }
        },
        "dto.DeleteResponse": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "deleted": {"type": "boolean"}
            }
        },
        "dto.CleanupResponse": {
            "type": "object",
            "properties": {
                "expired": {"type": "integer"},
                "countEvicted": {"type": "integer"},
                "sizeEvicted": {"type": "integer"},
                "freedBytes": {"type": "integer"},
                "removed": {"type": "integer"},
                "durationMs": {"type": "integer"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid_request"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Patchwork Service API",
	Description:      "Renders album-cover grids from a user's top albums on Last.fm or ListenBrainz.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
