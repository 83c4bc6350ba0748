package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"healthbot/internal/model"
)

// MoodDimensionRepo 情绪维度目录仓库
type MoodDimensionRepo struct {
	collection *mongo.Collection
}

// NewMoodDimensionRepo 创建情绪维度目录仓库
func NewMoodDimensionRepo(db *mongo.Database) *MoodDimensionRepo {
	var d model.MoodDimension
	return &MoodDimensionRepo{
		collection: db.Collection(d.Collection()),
	}
}

// List 按 order 排序返回全部维度
func (r *MoodDimensionRepo) List(ctx context.Context) ([]model.MoodDimension, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "order", Value: 1}, {Key: "name", Value: 1}}).
		SetProjection(bson.M{"_id": 0})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	dims := make([]model.MoodDimension, 0)
	if err := cursor.All(ctx, &dims); err != nil {
		return nil, err
	}
	return dims, nil
}

// Upsert 按名称写入或更新维度
func (r *MoodDimensionRepo) Upsert(ctx context.Context, dim model.MoodDimension) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"name": dim.Name}, bson.M{"$set": dim}, opts)
	return err
}
