package dialogue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"healthbot/internal/ai"
	"healthbot/internal/model"
	"healthbot/internal/pkg/cache"
)

const validTurnJSON = `{"content":"Sounds rough. Want to talk about it?","mood_dimensions":{"mood":-2,"stress":7,"anxiety":6,"energy":3,"motivation":4,"loneliness":5,"confidence":4,"hope":5}}`

const validScoreJSON = `{"summary":"User is stressed about work.","average_mood_scores":{"mood":-1.5,"stress":7},"key_themes":["work","sleep"]}`

type completerCall struct {
	messages []*schema.Message
	opts     ai.CompletionOptions
}

// fakeCompleter 普通模式返回 reply，JSON 模式返回 analysis
type fakeCompleter struct {
	mu       sync.Mutex
	reply    string
	analysis string
	err      error
	calls    []completerCall
}

func (f *fakeCompleter) Complete(_ context.Context, messages []*schema.Message, opts ai.CompletionOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, completerCall{messages: messages, opts: opts})
	if f.err != nil {
		return "", f.err
	}
	if opts.JSONMode {
		return f.analysis, nil
	}
	return f.reply, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCompleter) lastCall() completerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// memCache 以 JSON 往返模拟 Redis
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func message(convID, userID, input string, at time.Time) *model.Message {
	turn := FallbackBotTurn()
	return &model.Message{
		ID:             input,
		ConversationID: convID,
		UserID:         userID,
		UserInput:      input,
		BotResponse:    &turn,
		CreatedAt:      at,
	}
}
