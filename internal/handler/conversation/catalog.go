package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	httputil "healthbot/internal/pkg/http"
)

// InvalidateCatalog 丢弃缓存的情绪维度目录
// @Summary      刷新情绪维度目录
// @Description  删除缓存，下一次生成回复时重新读取 mood_dim
// @Tags         管理
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /api/v1/admin/mood-catalog/invalidate [post]
func (h *Handler) InvalidateCatalog(c *gin.Context) {
	if err := h.dialogueService.Catalog().Invalidate(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("failed to invalidate mood catalog")
		httputil.Fail(c, http.StatusInternalServerError, 50003, "Failed to invalidate mood catalog")
		return
	}

	httputil.OK(c, http.StatusOK, "success", gin.H{
		"dimensions": len(h.dialogueService.Catalog().Dimensions(c.Request.Context())),
	})
}
