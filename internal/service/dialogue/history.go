package dialogue

import (
	"context"

	"github.com/rs/zerolog/log"

	"healthbot/internal/model"
	"healthbot/internal/repository"
)

// HistoryAssembler 读取并截断对话历史
type HistoryAssembler struct {
	messages repository.MessageRepository
}

// NewHistoryAssembler 创建历史读取器
func NewHistoryAssembler(messages repository.MessageRepository) *HistoryAssembler {
	return &HistoryAssembler{messages: messages}
}

// LoadHistory 返回最新的 limit 条消息，按时间正序（最早的在前）
// limit <= 0 表示不限。存储出错时返回空历史，回复降级为无上下文回复。
func (h *HistoryAssembler) LoadHistory(ctx context.Context, conversationID string, limit int) []*model.Message {
	recent, err := h.messages.ListRecent(ctx, conversationID, int64(limit))
	if err != nil {
		log.Warn().Err(err).
			Str("conversation_id", conversationID).
			Msg("failed to load history, continuing without context")
		return []*model.Message{}
	}

	history := make([]*model.Message, len(recent))
	for i, m := range recent {
		history[len(recent)-1-i] = m
	}
	return history
}
