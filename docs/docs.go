// Package docs registers the REST API description served under /swagger.
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
        "/api/tournaments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "List joinable tournaments",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "array",
                                "items": {"$ref": "#/definitions/models.TournamentDescription"}
                            }
                        }
                    },
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/api/users/{userID}/matches": {
            "get": {
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Match history",
                "parameters": [
                    {"type": "integer", "description": "User ID", "name": "userID", "in": "path", "required": true},
                    {"type": "integer", "description": "Maximum number of matches (1-100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "array",
                                "items": {"$ref": "#/definitions/models.MatchRecord"}
                            }
                        }
                    },
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/game.Stats"}},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "Upgrades to a websocket speaking the JSON event protocol. The first frame is ` + "`init`" + `.",
                "tags": ["game"],
                "summary": "Game websocket",
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "game.Stats": {
            "type": "object",
            "properties": {
                "connections": {"type": "integer"},
                "online_users": {"type": "integer"},
                "rooms": {"type": "integer"},
                "tournaments": {"type": "integer"},
                "waiting": {"type": "integer"}
            }
        },
        "models.MatchRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "tournament_id": {"type": "string"},
                "left_id": {"type": "integer"},
                "left_guest_name": {"type": "string"},
                "right_id": {"type": "integer"},
                "right_guest_name": {"type": "string"},
                "winner": {"type": "string", "enum": ["left", "right", "draw"]},
                "score_left": {"type": "integer"},
                "score_right": {"type": "integer"},
                "duration_ms": {"type": "integer"},
                "forfeit": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "models.TournamentDescription": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "creator_name": {"type": "string"},
                "accept_guests": {"type": "boolean"},
                "max_participants": {"type": "integer"},
                "participant_count": {"type": "integer"},
                "status": {"type": "string", "enum": ["creation", "waiting-ready", "started", "disposed"]},
                "created_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pong Arena API",
	Description:      "Tournament discovery, match history and health of the pong game server.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
