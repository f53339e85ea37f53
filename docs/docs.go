// Package docs registers the OpenAPI document served under /docs.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler
// annotations.
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
        "/webhooks/{platform}": {
            "post": {
                "description": "Verifies the signature of a platform webhook and folds its events into the tenant metrics",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Webhooks"],
                "summary": "Receive a webhook",
                "parameters": [
                    {"type": "string", "description": "facebook | instagram | twitter | linkedin | stripe | internal | any other source", "name": "platform", "in": "path", "required": true},
                    {"type": "string", "description": "Facebook and Instagram signature", "name": "X-Hub-Signature-256", "in": "header"},
                    {"type": "string", "description": "Stripe signature", "name": "Stripe-Signature", "in": "header"},
                    {"type": "string", "description": "Twitter signature", "name": "X-Twitter-Webhooks-Signature", "in": "header"},
                    {"type": "string", "description": "LinkedIn signature", "name": "X-LI-Signature", "in": "header"},
                    {"type": "string", "description": "Signature for internal and other sources", "name": "X-Webhook-Signature", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/webhooks.WebhookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/webhooks.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/webhooks.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/webhooks.ErrorResponse"}}
                }
            }
        },
        "/webhooks/facebook": {
            "get": {
                "description": "Echoes hub.challenge when hub.verify_token matches the configured token",
                "produces": ["text/plain"],
                "tags": ["Webhooks"],
                "summary": "Facebook and Instagram subscription handshake",
                "parameters": [
                    {"type": "string", "description": "Must be subscribe", "name": "hub.mode", "in": "query", "required": true},
                    {"type": "string", "description": "Verify token", "name": "hub.verify_token", "in": "query", "required": true},
                    {"type": "string", "description": "Challenge to echo", "name": "hub.challenge", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/webhooks.ErrorResponse"}}
                }
            }
        },
        "/webhooks/twitter": {
            "get": {
                "description": "Signs crc_token with the Twitter consumer secret",
                "produces": ["application/json"],
                "tags": ["Webhooks"],
                "summary": "Twitter challenge-response check",
                "parameters": [
                    {"type": "string", "description": "CRC token", "name": "crc_token", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/webhooks.CRCResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/webhooks.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/webhooks.ErrorResponse"}}
                }
            }
        },
        "/webhooks/stats": {
            "get": {
                "description": "Received, handled, ignored, rejected and failed counts per source since start",
                "produces": ["application/json"],
                "tags": ["Webhooks"],
                "summary": "Webhook processing counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/usecase.SourceStats"}}}
                }
            }
        },
        "/analytics/{tenantId}": {
            "get": {
                "description": "Aggregates stored metric buckets over a time range or a named period",
                "produces": ["application/json"],
                "tags": ["Analytics"],
                "summary": "Query tenant analytics",
                "parameters": [
                    {"type": "string", "description": "Tenant ID", "name": "tenantId", "in": "path", "required": true},
                    {"type": "string", "description": "Metric type: social | content | ai_agent | business", "name": "type", "in": "query", "required": true},
                    {"type": "integer", "description": "From unix timestamp (inclusive)", "name": "from", "in": "query"},
                    {"type": "integer", "description": "To unix timestamp (inclusive)", "name": "to", "in": "query"},
                    {"type": "string", "description": "Named period: week | month | quarter | year", "name": "period", "in": "query"},
                    {"type": "string", "description": "Bucket period: hourly | daily | weekly | monthly | yearly", "name": "granularity", "in": "query"},
                    {"type": "string", "description": "Group by: platform | period", "name": "group_by", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/analytics.RollupResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/analytics.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/analytics.ErrorResponse"}}
                }
            }
        },
        "/analytics/{tenantId}/panels/{panel}": {
            "get": {
                "description": "Runs a preset rollup: overview | platforms | content | ai_agents | roi",
                "produces": ["application/json"],
                "tags": ["Analytics"],
                "summary": "Query a dashboard panel",
                "parameters": [
                    {"type": "string", "description": "Tenant ID", "name": "tenantId", "in": "path", "required": true},
                    {"type": "string", "description": "Panel name", "name": "panel", "in": "path", "required": true},
                    {"type": "integer", "description": "From unix timestamp (inclusive)", "name": "from", "in": "query"},
                    {"type": "integer", "description": "To unix timestamp (inclusive)", "name": "to", "in": "query"},
                    {"type": "string", "description": "Named period: week | month | quarter | year", "name": "period", "in": "query"},
                    {"type": "string", "description": "Bucket period", "name": "granularity", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/analytics.RollupResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/analytics.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/analytics.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/analytics.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "webhooks.WebhookResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}}
        },
        "webhooks.CRCResponse": {
            "type": "object",
            "properties": {"response_token": {"type": "string"}}
        },
        "webhooks.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "message": {"type": "string"}}
        },
        "usecase.SourceStats": {
            "type": "object",
            "properties": {
                "received": {"type": "integer"},
                "handled": {"type": "integer"},
                "ignored": {"type": "integer"},
                "rejected": {"type": "integer"},
                "failed": {"type": "integer"}
            }
        },
        "analytics.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "message": {"type": "string"}}
        },
        "analytics.RollupRowResponse": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "buckets": {"type": "integer"},
                "posts": {"type": "integer"},
                "content": {"type": "object"},
                "engagement": {"type": "object"},
                "total_engagement": {"type": "integer"},
                "total_reach": {"type": "integer"},
                "impressions": {"type": "integer"},
                "engagement_rate": {"type": "number"},
                "avg_engagement_per_bucket": {"type": "number"},
                "ai_agent": {"type": "object"},
                "business": {"type": "object"},
                "last_bucket_start": {"type": "integer"},
                "last_engagement_rate": {"type": "number"}
            }
        },
        "analytics.RollupResponse": {
            "type": "object",
            "properties": {
                "tenant_id": {"type": "string"},
                "type": {"type": "string"},
                "from": {"type": "integer"},
                "to": {"type": "integer"},
                "granularity": {"type": "string"},
                "group_by": {"type": "string"},
                "rows": {"type": "array", "items": {"$ref": "#/definitions/analytics.RollupRowResponse"}}
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
	Title:            "Webhook Analytics Service API",
	Description:      "Ingests signed platform webhooks and serves tenant analytics rollups.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
