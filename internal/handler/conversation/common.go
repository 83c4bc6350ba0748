package conversation

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"healthbot/internal/model"
	"healthbot/internal/pkg/ctxutil"
	httputil "healthbot/internal/pkg/http"
	"healthbot/internal/service/dialogue"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// ConversationInfo 对话信息
type ConversationInfo struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id"`
	Title     string                `json:"title"`
	Scores    *model.AggregateScore `json:"conversation_scores,omitempty"`
	CreatedAt string                `json:"created_at"`
	UpdatedAt string                `json:"updated_at"`
}

// MessageInfo 消息信息
type MessageInfo struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	UserInput      string         `json:"user_input"`
	BotResponse    *model.BotTurn `json:"bot_response,omitempty"`
	CreatedAt      string         `json:"created_at"`
}

func toConversationInfo(conv *model.Conversation) ConversationInfo {
	return ConversationInfo{
		ID:        conv.ID,
		UserID:    conv.UserID,
		Title:     conv.Title,
		Scores:    conv.Scores,
		CreatedAt: conv.CreatedAt.Format(time.RFC3339),
		UpdatedAt: conv.UpdatedAt.Format(time.RFC3339),
	}
}

func toMessageInfoList(msgs []*model.Message) []MessageInfo {
	result := make([]MessageInfo, len(msgs))
	for i, m := range msgs {
		result[i] = MessageInfo{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			UserInput:      m.UserInput,
			BotResponse:    m.BotResponse,
			CreatedAt:      m.CreatedAt.Format(time.RFC3339),
		}
	}
	return result
}

// currentUser 读取认证中间件注入的身份
func currentUser(c *gin.Context) (string, bool, bool) {
	userID, ok := ctxutil.GetUserID(c.Request.Context())
	if !ok {
		httputil.Fail(c, http.StatusUnauthorized, 40101, "Unauthorized")
		return "", false, false
	}
	return userID, ctxutil.IsPaid(c.Request.Context()), true
}

// writeError 将服务层错误映射为 HTTP 响应
// 存储错误不向调用方暴露细节
func writeError(c *gin.Context, err error) {
	var rle *dialogue.RateLimitError
	switch {
	case errors.As(err, &rle):
		httputil.Fail(c, http.StatusTooManyRequests, 42901, rle.Error())
	case errors.Is(err, dialogue.ErrOwnershipViolation):
		httputil.Fail(c, http.StatusForbidden, 40301, "Forbidden")
	case errors.Is(err, dialogue.ErrConversationNotFound):
		httputil.Fail(c, http.StatusNotFound, 40401, "Conversation not found")
	case errors.Is(err, dialogue.ErrPersistence):
		log.Error().Err(err).Str("path", c.FullPath()).Msg("persistence failure")
		httputil.Fail(c, http.StatusInternalServerError, 50001, "Failed to save or load data")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unexpected error")
		httputil.Fail(c, http.StatusInternalServerError, 50000, "Internal Server Error")
	}
}

func badRequest(c *gin.Context, err error) {
	httputil.Fail(c, http.StatusBadRequest, 40001, "Invalid request body", err.Error())
}
