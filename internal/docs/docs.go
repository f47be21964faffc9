// Package docs registers the OpenAPI document served at /api/swagger.
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
        "/rooms": {
            "get": {
                "description": "Returns every room with its hotspots",
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "List rooms",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/upload-panorama": {
            "post": {
                "description": "Stores the panorama, generates its cube tile pyramid and records the room",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create a room from a panorama",
                "parameters": [
                    {"type": "file", "description": "Equirectangular panorama (JPG, PNG or WEBP)", "name": "panorama", "in": "formData", "required": true},
                    {"type": "string", "description": "Room name", "name": "name", "in": "formData"},
                    {"type": "integer", "description": "Floor number", "name": "floor", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "Room created"},
                    "400": {"description": "Bad request"},
                    "500": {"description": "Tile generation failed"}
                }
            }
        },
        "/admin/rooms/{roomId}": {
            "delete": {
                "description": "Deletes the room, its tiles, panorama, media files and minimap markers",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Delete a room",
                "parameters": [{"type": "integer", "description": "Room ID", "name": "roomId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Room not found"}}
            }
        },
        "/sensors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sensors"],
                "summary": "List sensors",
                "parameters": [{"type": "integer", "description": "Only sensors of this room", "name": "roomId", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/tiles/{roomId}/{path}": {
            "get": {
                "description": "Looks the file up in memory, redis, local disk and object storage, in that order",
                "produces": ["image/jpeg", "application/json"],
                "tags": ["tiles"],
                "summary": "Fetch a tile or pyramid descriptor",
                "parameters": [
                    {"type": "integer", "description": "Room ID", "name": "roomId", "in": "path", "required": true},
                    {"type": "string", "description": "level/face/row/col.jpg or config.json", "name": "path", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Tile not found"}}
            }
        },
        "/real-data/combined": {
            "get": {
                "description": "Uses the room's config when roomId is given, else the global config. Falls back to mock data.",
                "produces": ["application/json"],
                "tags": ["real-data"],
                "summary": "Current weather and air quality",
                "parameters": [{"type": "integer", "description": "Room ID", "name": "roomId", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/events": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["events"],
                "summary": "Subscribe to room and sensor updates",
                "responses": {"200": {"description": "event stream"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Panorama Service API",
	Description:      "Virtual tour rooms, hotspots, tiles, sensors and live data.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
