package conversation

import (
	"healthbot/internal/service/dialogue"
)

// Handler 对话处理器
// 调用方身份由认证中间件注入 context
type Handler struct {
	dialogueService *dialogue.Service
}

// NewHandler 创建对话处理器
func NewHandler(dialogueService *dialogue.Service) *Handler {
	return &Handler{
		dialogueService: dialogueService,
	}
}
