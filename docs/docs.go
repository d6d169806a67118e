// Package docs holds the OpenAPI description served under /swagger/. It is
// kept in the layout swag init produces from the handler annotations.
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
		"/sessions": {
			"post": {
				"tags": [
					"sessions"
				],
				"summary": "Create a session",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/session.View"
						}
					}
				}
			}
		},
		"/sessions/{id}": {
			"get": {
				"tags": [
					"sessions"
				],
				"summary": "Get a session",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/session.View"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			},
			"delete": {
				"tags": [
					"sessions"
				],
				"summary": "Delete a session",
				"produces": [
					"application/json"
				],
				"responses": {
					"204": {
						"description": "OK"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/sessions/{id}/org-units": {
			"put": {
				"tags": [
					"sessions"
				],
				"summary": "Load org units",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.LoadResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Org-unit load response",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/sessions/{id}/reports/{type}": {
			"put": {
				"tags": [
					"sessions"
				],
				"summary": "Load a report",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.LoadResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "type",
						"name": "type",
						"in": "path",
						"required": true
					},
					{
						"description": "Report load response",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/sessions/{id}/{level}/{unit}/toggle": {
			"post": {
				"tags": [
					"selection"
				],
				"summary": "Toggle an org unit",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "level",
						"name": "level",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "unit",
						"name": "unit",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/sessions/{id}/selection": {
			"get": {
				"tags": [
					"selection"
				],
				"summary": "Get the selection",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/sessions/{id}/report-type": {
			"put": {
				"tags": [
					"settings"
				],
				"summary": "Set the report type",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/session.View"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Report type",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/sessions/{id}/count-kind": {
			"put": {
				"tags": [
					"settings"
				],
				"summary": "Set the count kind",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/session.View"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Count kind",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/sessions/{id}/date-range": {
			"put": {
				"tags": [
					"settings"
				],
				"summary": "Set the date range",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/session.View"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Date range",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/sessions/{id}/sub-dimensions": {
			"put": {
				"tags": [
					"settings"
				],
				"summary": "Set the sub-dimensions",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.SubDimensionsResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Circulation type keys in series order",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/sessions/{id}/sub-dimensions/{key}/toggle": {
			"post": {
				"tags": [
					"settings"
				],
				"summary": "Toggle a sub-dimension",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.SubDimensionsResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "key",
						"name": "key",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/sessions/{id}/drill": {
			"post": {
				"tags": [
					"drill"
				],
				"summary": "Drill into a main class",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Main class index or code",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/sessions/{id}/back": {
			"post": {
				"tags": [
					"drill"
				],
				"summary": "Leave the drill-down",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/sessions/{id}/series": {
			"get": {
				"tags": [
					"reports"
				],
				"summary": "Get the chart series",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/sessions/{id}/export": {
			"get": {
				"tags": [
					"reports"
				],
				"summary": "Export the chart",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "id",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/exports": {
			"get": {
				"tags": [
					"reports"
				],
				"summary": "List exports",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/exports/{session}/{file}": {
			"get": {
				"tags": [
					"reports"
				],
				"summary": "Download an export",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "session",
						"name": "session",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "file",
						"name": "file",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/catalogs": {
			"get": {
				"tags": [
					"reports"
				],
				"summary": "Get catalogs",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		}
	},
	"definitions": {
		"handler.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				}
			}
		},
		"handler.LoadResponse": {
			"type": "object",
			"properties": {
				"changed": {
					"type": "boolean"
				},
				"loadedAt": {
					"type": "string"
				},
				"rows": {
					"type": "integer"
				}
			}
		},
		"handler.SubDimensionsResponse": {
			"type": "object",
			"properties": {
				"keys": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"session.View": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"createdAt": {
					"type": "string"
				},
				"orgUnitsLoadedAt": {
					"type": "string"
				},
				"selection": {
					"type": "object"
				},
				"selectedLibraries": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"reportType": {
					"type": "string"
				},
				"subDimensions": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"countKind": {
					"type": "string"
				},
				"dateRange": {
					"type": "object"
				},
				"drill": {
					"type": "object"
				},
				"datasets": {
					"type": "array",
					"items": {
						"type": "object"
					}
				},
				"pendingPath": {
					"type": "string"
				}
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Library Assessment API",
	Description:      "Org-unit selection, report aggregation, drill-down and CSV export for library assessment reports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
