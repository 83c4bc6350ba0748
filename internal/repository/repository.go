package repository

import (
	"context"
	"errors"
	"time"

	"healthbot/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// ConversationRepository 对话仓库接口
type ConversationRepository interface {
	Create(ctx context.Context, conv *model.Conversation) error
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	// ListByUser 按创建时间倒序返回用户的对话
	ListByUser(ctx context.Context, userID string) ([]*model.Conversation, error)
	UpdateScores(ctx context.Context, id string, scores *model.AggregateScore) error
	Delete(ctx context.Context, id string) error
}

// MessageRepository 消息仓库接口
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	// ListRecent 按创建时间倒序返回最新的 limit 条消息，limit <= 0 表示不限
	ListRecent(ctx context.Context, conversationID string, limit int64) ([]*model.Message, error)
	// ListByConversation 按创建时间正序返回全部消息
	ListByConversation(ctx context.Context, conversationID string) ([]*model.Message, error)
	CountByConversation(ctx context.Context, conversationID string) (int64, error)
	CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

// MoodDimensionRepository 情绪维度目录仓库接口（引擎只读）
type MoodDimensionRepository interface {
	List(ctx context.Context) ([]model.MoodDimension, error)
	Upsert(ctx context.Context, dim model.MoodDimension) error
}

// Store 引擎需要的全部仓库
type Store struct {
	Conversations ConversationRepository
	Messages      MessageRepository
	MoodDims      MoodDimensionRepository
}
