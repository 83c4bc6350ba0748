package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"healthbot/internal/model"
	httputil "healthbot/internal/pkg/http"
	"healthbot/internal/service/dialogue"
)

// AnalyzeResponseData 立即分析的结果
type AnalyzeResponseData struct {
	Status string                `json:"status"`
	Scores *model.AggregateScore `json:"scores"`
}

// GetScores 获取对话情绪汇总
// @Summary      对话情绪汇总
// @Description  返回最近一次成功分析的结果，未分析过时 data 为空
// @Tags         对话
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "对话ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/conversations/{id}/scores [get]
func (h *Handler) GetScores(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	scores, err := h.dialogueService.GetScores(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	httputil.OK(c, http.StatusOK, "success", scores)
}

// Analyze 立即分析对话
// @Summary      立即分析
// @Description  同步分析最近的消息并保存结果
// @Tags         对话
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "对话ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse  "分析或保存失败，detail 为失败原因"
// @Router       /api/v1/conversations/{id}/analyze [post]
func (h *Handler) Analyze(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.dialogueService.AnalyzeNow(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	switch {
	case res.Success:
		httputil.OK(c, http.StatusOK, "success", AnalyzeResponseData{Status: "success", Scores: res.Scores})
	case res.Reason == dialogue.ReasonPersistFailed:
		httputil.Fail(c, http.StatusInternalServerError, 50001, "Failed to update conversation scores.", res.Reason)
	default:
		httputil.Fail(c, http.StatusInternalServerError, 50002, "Failed to analyze conversation.", res.Reason)
	}
}
