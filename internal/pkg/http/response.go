package http

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse 错误响应（所有API共用）
type ErrorResponse struct {
	Code    int    `json:"code"`             // 错误码（非0表示错误）
	Message string `json:"message"`          // 错误消息
	Detail  string `json:"detail,omitempty"` // 错误详情（可选）
}

// SuccessResponse 成功响应（所有API共用）
type SuccessResponse struct {
	Code    int         `json:"code"`           // 0 表示成功
	Message string      `json:"message"`        // 响应消息
	Data    interface{} `json:"data,omitempty"` // 响应数据（可选）
}

// OK 写入成功响应
func OK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// Fail 写入错误响应并中止后续处理
func Fail(c *gin.Context, status, code int, message string, detail ...string) {
	resp := ErrorResponse{
		Code:    code,
		Message: message,
	}
	if len(detail) > 0 && detail[0] != "" {
		resp.Detail = detail[0]
	}
	c.AbortWithStatusJSON(status, resp)
}
