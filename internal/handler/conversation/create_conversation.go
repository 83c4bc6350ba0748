package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "healthbot/internal/pkg/http"
)

// CreateConversationRequest 创建对话请求
type CreateConversationRequest struct {
	Title        string `json:"title,omitempty"`                  // 标题（可选，默认 "Chat on <时间>"）
	FirstMessage string `json:"first_message" binding:"required"` // 第一条消息
}

// CreateConversation 创建对话
// @Summary      创建对话
// @Description  创建对话并生成第一条回复。第一条消息写入失败时对话会被删除。
// @Tags         对话
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateConversationRequest  true  "创建对话请求"
// @Success      201      {object}  map[string]interface{}  "成功响应"  "{\"code\": 0, \"message\": \"success\", \"data\": {...}}"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/conversations [post]
func (h *Handler) CreateConversation(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	conv, err := h.dialogueService.CreateConversation(c.Request.Context(), userID, req.Title, req.FirstMessage)
	if err != nil {
		writeError(c, err)
		return
	}

	httputil.OK(c, http.StatusCreated, "success", toConversationInfo(conv))
}
