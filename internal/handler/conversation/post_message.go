package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "healthbot/internal/pkg/http"
)

// PostMessageRequest 发送消息请求
type PostMessageRequest struct {
	UserInput string `json:"user_input" binding:"required"` // 用户输入
}

// CreateMessageRequest 发送消息请求（conversation_id 放在 body 中）
type CreateMessageRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	UserInput      string `json:"user_input" binding:"required"`
}

// ChatResponseData 回复内容与本窗口剩余额度
type ChatResponseData struct {
	Content            string `json:"content"`
	RemainingResponses int    `json:"remaining_responses"`
}

// PostMessage 发送消息
// @Summary      发送消息
// @Description  在对话中发送一条消息并获取回复。每 5 条消息触发一次后台情绪分析。
// @Tags         对话
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string              true  "对话ID"
// @Param        request  body      PostMessageRequest  true  "消息"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      403      {object}  ErrorResponse  "无权访问"
// @Failure      404      {object}  ErrorResponse  "对话不存在"
// @Failure      429      {object}  ErrorResponse  "超过频率限制"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/conversations/{id}/messages [post]
func (h *Handler) PostMessage(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.postMessage(c, c.Param("id"), req.UserInput)
}

// CreateMessage 发送消息（conversation_id 在请求体中）
// @Summary      发送消息（旧版）
// @Description  与 POST /conversations/{id}/messages 相同，conversation_id 放在请求体中
// @Tags         对话
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateMessageRequest  true  "消息"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      429      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /api/v1/messages [post]
func (h *Handler) CreateMessage(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.postMessage(c, req.ConversationID, req.UserInput)
}

func (h *Handler) postMessage(c *gin.Context, conversationID, input string) {
	userID, paid, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.dialogueService.PostMessage(c.Request.Context(), userID, conversationID, paid, input)
	if err != nil {
		writeError(c, err)
		return
	}

	httputil.OK(c, http.StatusOK, "success", ChatResponseData{
		Content:            res.Content,
		RemainingResponses: res.Remaining,
	})
}
