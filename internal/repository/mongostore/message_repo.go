package mongostore

import (
	"context"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"healthbot/internal/model"
)

// MessageRepo 消息仓库
type MessageRepo struct {
	collection *mongo.Collection
	lastSeq    atomic.Int64
}

// NewMessageRepo 创建消息仓库
func NewMessageRepo(db *mongo.Database) *MessageRepo {
	var m model.Message
	return &MessageRepo{
		collection: db.Collection(m.Collection()),
	}
}

// Create 写入消息
func (r *MessageRepo) Create(ctx context.Context, msg *model.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Seq == 0 {
		msg.Seq = r.nextSeq(time.Now())
	}
	_, err := r.collection.InsertOne(ctx, msg)
	return err
}

// nextSeq 单调递增的写入序号，以纳秒时间为基准
func (r *MessageRepo) nextSeq(now time.Time) int64 {
	candidate := now.UnixNano()
	for {
		last := r.lastSeq.Load()
		next := candidate
		if next <= last {
			next = last + 1
		}
		if r.lastSeq.CompareAndSwap(last, next) {
			return next
		}
	}
}

// chronological 按 created_at 排序，seq 作为同一毫秒内的次级排序
// direction: 1 正序，-1 倒序
func chronological(direction int) bson.D {
	return bson.D{{Key: "created_at", Value: direction}, {Key: "seq", Value: direction}}
}

// ListRecent 最新的 limit 条消息（倒序）
func (r *MessageRepo) ListRecent(ctx context.Context, conversationID string, limit int64) ([]*model.Message, error) {
	opts := options.Find().SetSort(chronological(-1))
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, bson.M{"conversation_id": conversationID}, opts)
}

// ListByConversation 全部消息（正序）
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]*model.Message, error) {
	opts := options.Find().SetSort(chronological(1))
	return r.find(ctx, bson.M{"conversation_id": conversationID}, opts)
}

// CountByConversation 对话内消息数
func (r *MessageRepo) CountByConversation(ctx context.Context, conversationID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"conversation_id": conversationID})
}

// CountByUserSince 用户在 since 之后（含）发送的消息数
func (r *MessageRepo) CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	filter := bson.M{
		"user_id":    userID,
		"created_at": bson.M{"$gte": since},
	}
	return r.collection.CountDocuments(ctx, filter)
}

func (r *MessageRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Message, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	msgs := make([]*model.Message, 0)
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
