package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "healthbot/internal/pkg/http"
)

// ListConversationsResponseData 对话列表
type ListConversationsResponseData struct {
	Conversations []ConversationInfo `json:"conversations"`
	Total         int                `json:"total"`
}

// ListConversations 获取当前用户的对话列表
// @Summary      对话列表
// @Description  按创建时间倒序返回当前用户的全部对话
// @Tags         对话
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /api/v1/conversations [get]
func (h *Handler) ListConversations(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	convs, err := h.dialogueService.ListConversations(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	infos := make([]ConversationInfo, len(convs))
	for i, conv := range convs {
		infos[i] = toConversationInfo(conv)
	}

	httputil.OK(c, http.StatusOK, "success", ListConversationsResponseData{
		Conversations: infos,
		Total:         len(infos),
	})
}
