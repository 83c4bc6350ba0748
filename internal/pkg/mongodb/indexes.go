package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"healthbot/internal/model"
)

// EnsureIndexes 启动时为所有集合创建索引
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return EnsureAllIndexes(ctx, db,
		model.Conversation{},
		model.Message{},
		model.MoodDimension{},
	)
}
