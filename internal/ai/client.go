package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"healthbot/internal/ai/component"
	"healthbot/internal/config"
)

// ErrEmptyCompletion 模型返回空内容
var ErrEmptyCompletion = errors.New("empty response from chat model")

// DefaultCompletionTimeout 未配置时单次补全的超时
const DefaultCompletionTimeout = 30 * time.Second

// CompletionOptions 单次补全参数
type CompletionOptions struct {
	Model       string  // 为空时使用 ChatModel 的默认模型
	Temperature float64 // <= 0 时不覆盖
	MaxTokens   int     // <= 0 时不覆盖
	JSONMode    bool    // 要求只输出 JSON 对象
}

// Completer 文本补全能力
// 可能很慢、可能失败，返回的文本"形似 JSON"但不保证合法
type Completer interface {
	Complete(ctx context.Context, messages []*schema.Message, opts CompletionOptions) (string, error)
}

// Client AI 能力层客户端，基于 Eino ChatModel
// 进程内单例，可并发使用
type Client struct {
	chatModel model.BaseChatModel
	jsonModel model.BaseChatModel // 可为 nil，此时 JSONMode 退回 chatModel
	timeout   time.Duration
}

// NewClient 按配置创建 AI 客户端
func NewClient(ctx context.Context, cfg *config.AIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		log.Warn().Str("provider", cfg.Provider).Msg("AI API key not configured, completions will fail and fall back")
	}

	chatModel, err := component.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	jsonModel, err := component.NewJSONChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create json chat model: %w", err)
	}

	return NewClientWithModels(chatModel, jsonModel, cfg.CompletionTimeout), nil
}

// NewClientWithModels 使用已有的 ChatModel 创建客户端
func NewClientWithModels(chatModel, jsonModel model.BaseChatModel, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}
	return &Client{
		chatModel: chatModel,
		jsonModel: jsonModel,
		timeout:   timeout,
	}
}

// Complete 同步补全，单次调用、不重试
func (c *Client) Complete(ctx context.Context, messages []*schema.Message, opts CompletionOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	chatModel := c.chatModel
	if opts.JSONMode && c.jsonModel != nil {
		chatModel = c.jsonModel
	}
	if chatModel == nil {
		return "", errors.New("chat model is not configured")
	}

	start := time.Now()
	resp, err := chatModel.Generate(ctx, messages, modelOptions(opts)...)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}

	event := log.Debug().
		Int("messages", len(messages)).
		Bool("json_mode", opts.JSONMode).
		Dur("latency", time.Since(start))
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		event = event.
			Int("prompt_tokens", resp.ResponseMeta.Usage.PromptTokens).
			Int("completion_tokens", resp.ResponseMeta.Usage.CompletionTokens)
	}
	event.Msg("completion finished")

	return content, nil
}

func modelOptions(opts CompletionOptions) []model.Option {
	var out []model.Option
	if opts.Model != "" {
		out = append(out, model.WithModel(opts.Model))
	}
	if opts.Temperature > 0 {
		out = append(out, model.WithTemperature(float32(opts.Temperature)))
	}
	if opts.MaxTokens > 0 {
		out = append(out, model.WithMaxTokens(opts.MaxTokens))
	}
	return out
}
