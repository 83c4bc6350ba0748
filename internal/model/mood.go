package model

import (
	"context"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MoodDimension 情绪维度目录中的一项
// 目录是外部可变数据，prompt 构建时动态读取
type MoodDimension struct {
	Name    string  `bson:"name" json:"name" yaml:"name"`
	Min     float64 `bson:"min" json:"min" yaml:"min"`
	Max     float64 `bson:"max" json:"max" yaml:"max"`
	Anchors string  `bson:"anchors,omitempty" json:"anchors,omitempty" yaml:"anchors,omitempty"` // 刻度说明，如 "0 = no stress, 10 = extremely stressed"
	Order   int     `bson:"order" json:"order" yaml:"order"`
}

// Collection 返回集合名称
func (MoodDimension) Collection() string {
	return "mood_dim"
}

// EnsureIndexes 创建 mood_dim 索引
func (d MoodDimension) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(d.Collection()).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName("idx_name").SetUnique(true),
	})
	return err
}

// RangeText 返回 "[min, max]" 形式的取值范围
func (d MoodDimension) RangeText() string {
	return fmt.Sprintf("[%s, %s]", formatBound(d.Min), formatBound(d.Max))
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DefaultMoodDimensions 内置的八维目录，目录表为空时使用
func DefaultMoodDimensions() []MoodDimension {
	return []MoodDimension{
		{Name: "mood", Min: -5, Max: 5, Anchors: "negative = sad/depressed, positive = happy/positive", Order: 1},
		{Name: "stress", Min: 0, Max: 10, Anchors: "0 = no stress, 10 = extremely stressed", Order: 2},
		{Name: "anxiety", Min: 0, Max: 10, Anchors: "0 = calm, 10 = extremely anxious", Order: 3},
		{Name: "energy", Min: 0, Max: 10, Anchors: "0 = no energy, 10 = very energetic", Order: 4},
		{Name: "motivation", Min: 0, Max: 10, Anchors: "0 = no motivation, 10 = very motivated", Order: 5},
		{Name: "loneliness", Min: 0, Max: 10, Anchors: "0 = not lonely, 10 = very lonely", Order: 6},
		{Name: "confidence", Min: 0, Max: 10, Anchors: "0 = no confidence, 10 = very confident", Order: 7},
		{Name: "hope", Min: 0, Max: 10, Anchors: "0 = no hope, 10 = very hopeful", Order: 8},
	}
}
