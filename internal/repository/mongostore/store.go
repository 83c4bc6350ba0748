package mongostore

import (
	"go.mongodb.org/mongo-driver/mongo"

	"healthbot/internal/repository"
)

// NewStore 基于 MongoDB 的仓库集合
func NewStore(db *mongo.Database) *repository.Store {
	return &repository.Store{
		Conversations: NewConversationRepo(db),
		Messages:      NewMessageRepo(db),
		MoodDims:      NewMoodDimensionRepo(db),
	}
}
