// Package memstore 内存版仓库，用于未配置 MongoDB 时运行以及单元测试
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"healthbot/internal/model"
	"healthbot/internal/repository"
)

// Store 内存存储，并发安全
type Store struct {
	mu            sync.RWMutex
	conversations map[string]model.Conversation
	messages      map[string][]model.Message // conversation_id -> 按写入顺序
	moodDims      map[string]model.MoodDimension
}

// New 创建内存存储
func New() *Store {
	return &Store{
		conversations: make(map[string]model.Conversation),
		messages:      make(map[string][]model.Message),
		moodDims:      make(map[string]model.MoodDimension),
	}
}

// Repositories 以仓库接口形式暴露
func (s *Store) Repositories() *repository.Store {
	return &repository.Store{
		Conversations: (*conversationRepo)(s),
		Messages:      (*messageRepo)(s),
		MoodDims:      (*moodDimRepo)(s),
	}
}

type conversationRepo Store

func (r *conversationRepo) Create(_ context.Context, conv *model.Conversation) error {
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[conv.ID] = *conv
	return nil
}

func (r *conversationRepo) FindByID(_ context.Context, id string) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &conv, nil
}

func (r *conversationRepo) ListByUser(_ context.Context, userID string) ([]*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	convs := make([]*model.Conversation, 0)
	for _, conv := range r.conversations {
		if conv.UserID == userID {
			c := conv
			convs = append(convs, &c)
		}
	}
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].CreatedAt.After(convs[j].CreatedAt)
	})
	return convs, nil
}

func (r *conversationRepo) UpdateScores(_ context.Context, id string, scores *model.AggregateScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return repository.ErrNotFound
	}
	conv.Scores = scores
	conv.UpdatedAt = time.Now().UTC()
	r.conversations[id] = conv
	return nil
}

func (r *conversationRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, id)
	return nil
}

type messageRepo Store

func (r *messageRepo) Create(_ context.Context, msg *model.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], *msg)
	return nil
}

func (r *messageRepo) ListRecent(_ context.Context, conversationID string, limit int64) ([]*model.Message, error) {
	msgs := r.sorted(conversationID)
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	if limit > 0 && int64(len(msgs)) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (r *messageRepo) ListByConversation(_ context.Context, conversationID string) ([]*model.Message, error) {
	return r.sorted(conversationID), nil
}

func (r *messageRepo) CountByConversation(_ context.Context, conversationID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.messages[conversationID])), nil
}

func (r *messageRepo) CountByUserSince(_ context.Context, userID string, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, msgs := range r.messages {
		for _, m := range msgs {
			if m.UserID == userID && !m.CreatedAt.Before(since) {
				n++
			}
		}
	}
	return n, nil
}

// sorted 按 created_at 正序复制一份，时间相同时保持写入顺序
func (r *messageRepo) sorted(conversationID string) []*model.Message {
	r.mu.RLock()
	stored := r.messages[conversationID]
	msgs := make([]*model.Message, 0, len(stored))
	for i := range stored {
		m := stored[i]
		msgs = append(msgs, &m)
	}
	r.mu.RUnlock()

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs
}

type moodDimRepo Store

func (r *moodDimRepo) List(_ context.Context) ([]model.MoodDimension, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dims := make([]model.MoodDimension, 0, len(r.moodDims))
	for _, d := range r.moodDims {
		dims = append(dims, d)
	}
	sort.Slice(dims, func(i, j int) bool {
		if dims[i].Order != dims[j].Order {
			return dims[i].Order < dims[j].Order
		}
		return dims[i].Name < dims[j].Name
	})
	return dims, nil
}

func (r *moodDimRepo) Upsert(_ context.Context, dim model.MoodDimension) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moodDims[dim.Name] = dim
	return nil
}
