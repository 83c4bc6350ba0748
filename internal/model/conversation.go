package model

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Conversation 对话实体
// ID 使用 UUID（string），归属于唯一的 UserID
type Conversation struct {
	ID        string          `bson:"_id" json:"id"`
	UserID    string          `bson:"user_id" json:"user_id"`
	Title     string          `bson:"title" json:"title"`
	Scores    *AggregateScore `bson:"conversation_scores,omitempty" json:"conversation_scores,omitempty"` // 最近一次成功分析的结果
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time       `bson:"updated_at" json:"updated_at"`
}

// Collection 返回集合名称
func (Conversation) Collection() string {
	return "conversations"
}

// EnsureIndexes 创建 conversations 索引
func (c Conversation) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(c.Collection()).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_user_created"),
		},
	})
	return err
}

// Message 消息（用户输入 + 机器人回复），写入后不可修改
type Message struct {
	ID             string    `bson:"_id" json:"id"`
	ConversationID string    `bson:"conversation_id" json:"conversation_id"`
	UserID         string    `bson:"user_id" json:"user_id"`
	UserInput      string    `bson:"user_input" json:"user_input"`
	BotResponse    *BotTurn  `bson:"bot_response,omitempty" json:"bot_response,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	Seq            int64     `bson:"seq" json:"-"` // 写入序号，created_at 相同（毫秒精度）时决定先后
}

// Collection 返回集合名称
func (Message) Collection() string {
	return "messages"
}

// EnsureIndexes 创建 messages 索引
// 对话内按时间排序读取历史；按用户+时间统计限流窗口
func (m Message) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(m.Collection()).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "seq", Value: -1}},
			Options: options.Index().SetName("idx_conversation_created_seq"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_user_created"),
		},
	})
	return err
}

// BotTurn 一次模型回复
type BotTurn struct {
	Content        string     `bson:"content" json:"content"`
	MoodDimensions MoodVector `bson:"mood_dimensions" json:"mood_dimensions"`
}

// MoodVector 固定八维情绪快照
// 取值范围仅作说明，不做校验
type MoodVector struct {
	Mood       float64 `bson:"mood" json:"mood"`             // [-5, 5]
	Stress     float64 `bson:"stress" json:"stress"`         // [0, 10]
	Anxiety    float64 `bson:"anxiety" json:"anxiety"`       // [0, 10]
	Energy     float64 `bson:"energy" json:"energy"`         // [0, 10]
	Motivation float64 `bson:"motivation" json:"motivation"` // [0, 10]
	Loneliness float64 `bson:"loneliness" json:"loneliness"` // [0, 10]
	Confidence float64 `bson:"confidence" json:"confidence"` // [0, 10]
	Hope       float64 `bson:"hope" json:"hope"`             // [0, 10]
}

// NeutralMoodVector 各维度取中值
func NeutralMoodVector() MoodVector {
	return MoodVector{
		Mood:       0,
		Stress:     5,
		Anxiety:    5,
		Energy:     5,
		Motivation: 5,
		Loneliness: 5,
		Confidence: 5,
		Hope:       5,
	}
}

// AggregateScore 对话级情绪汇总
type AggregateScore struct {
	Summary           string             `bson:"summary" json:"summary"`
	AverageMoodScores map[string]float64 `bson:"average_mood_scores" json:"average_mood_scores"`
	KeyThemes         []string           `bson:"key_themes" json:"key_themes"`
}
