package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "healthbot/internal/pkg/http"
)

// ListMessages 获取对话消息
// @Summary      对话消息
// @Description  按时间正序返回对话中的全部消息
// @Tags         对话
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "对话ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/conversations/{id}/messages [get]
func (h *Handler) ListMessages(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	msgs, err := h.dialogueService.GetMessages(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	httputil.OK(c, http.StatusOK, "success", toMessageInfoList(msgs))
}
