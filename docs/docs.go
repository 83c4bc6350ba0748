// Package docs 注册 Swagger 文档，由 /swagger/*any 提供
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
        "/api/v1/admin/mood-catalog/invalidate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["管理"],
                "summary": "刷新情绪维度目录",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/conversations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["对话"],
                "summary": "对话列表",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["对话"],
                "summary": "创建对话",
                "parameters": [
                    {
                        "description": "创建对话请求",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/conversation.CreateConversationRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "成功响应", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "请求参数错误", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "500": {"description": "服务器内部错误", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/conversations/{id}/analyze": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["对话"],
                "summary": "立即分析",
                "parameters": [{"type": "string", "description": "对话ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "500": {"description": "分析或保存失败，detail 为失败原因", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/conversations/{id}/messages": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["对话"],
                "summary": "对话消息",
                "parameters": [{"type": "string", "description": "对话ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["对话"],
                "summary": "发送消息",
                "parameters": [
                    {"type": "string", "description": "对话ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "消息",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/conversation.PostMessageRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "请求参数错误", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "403": {"description": "无权访问", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "对话不存在", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "429": {"description": "超过频率限制", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "500": {"description": "服务器内部错误", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/conversations/{id}/scores": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["对话"],
                "summary": "对话情绪汇总",
                "parameters": [{"type": "string", "description": "对话ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/messages": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["对话"],
                "summary": "发送消息（旧版）",
                "parameters": [
                    {
                        "description": "消息",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/conversation.CreateMessageRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "conversation.CreateConversationRequest": {
            "type": "object",
            "required": ["first_message"],
            "properties": {
                "first_message": {"description": "第一条消息", "type": "string"},
                "title": {"description": "标题（可选，默认 \"Chat on <时间>\"）", "type": "string"}
            }
        },
        "conversation.CreateMessageRequest": {
            "type": "object",
            "required": ["conversation_id", "user_input"],
            "properties": {
                "conversation_id": {"type": "string"},
                "user_input": {"type": "string"}
            }
        },
        "conversation.PostMessageRequest": {
            "type": "object",
            "required": ["user_input"],
            "properties": {
                "user_input": {"description": "用户输入", "type": "string"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"description": "错误码（非0表示错误）", "type": "integer"},
                "detail": {"description": "错误详情（可选）", "type": "string"},
                "message": {"description": "错误消息", "type": "string"}
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
	Title:            "Healthbot API",
	Description:      "Supportive conversation service with per-turn mood tracking.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
