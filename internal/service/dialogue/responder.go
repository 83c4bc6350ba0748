package dialogue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"healthbot/internal/ai"
	"healthbot/internal/model"
	"healthbot/internal/pkg/llmjson"
	"healthbot/internal/pkg/logger"
)

// FallbackContent 模型不可用或输出不合法时的固定回复
const FallbackContent = "I'm here to listen and support you. How are you feeling today?"

// DefaultPromptTurns prompt 中保留的历史轮数
const DefaultPromptTurns = 5

var botTurnSchema = llmjson.MustCompile("bot_turn.json", `{
	"type": "object",
	"required": ["content", "mood_dimensions"],
	"properties": {
		"content": {"type": "string"},
		"mood_dimensions": {
			"type": "object",
			"required": ["mood", "stress", "anxiety", "energy", "motivation", "loneliness", "confidence", "hope"],
			"properties": {
				"mood": {"type": "number"},
				"stress": {"type": "number"},
				"anxiety": {"type": "number"},
				"energy": {"type": "number"},
				"motivation": {"type": "number"},
				"loneliness": {"type": "number"},
				"confidence": {"type": "number"},
				"hope": {"type": "number"}
			}
		}
	}
}`)

// FallbackBotTurn 兜底回复，情绪取中值
func FallbackBotTurn() model.BotTurn {
	return model.BotTurn{
		Content:        FallbackContent,
		MoodDimensions: model.NeutralMoodVector(),
	}
}

// ParseBotTurn 解析模型输出为 BotTurn
func ParseBotTurn(content string) (model.BotTurn, error) {
	var turn model.BotTurn
	if err := llmjson.Decode(content, botTurnSchema, &turn); err != nil {
		return model.BotTurn{}, err
	}
	return turn, nil
}

// Responder 生成带情绪快照的结构化回复
// Respond 永远返回合法的 BotTurn，任何失败都降级为 FallbackBotTurn
type Responder struct {
	completer ai.Completer
	catalog   *MoodCatalog
	opts      ai.CompletionOptions
	turns     int
}

// NewResponder 创建回复器，turns <= 0 时使用 DefaultPromptTurns
func NewResponder(completer ai.Completer, catalog *MoodCatalog, opts ai.CompletionOptions, turns int) *Responder {
	if turns <= 0 {
		turns = DefaultPromptTurns
	}
	opts.JSONMode = false
	return &Responder{
		completer: completer,
		catalog:   catalog,
		opts:      opts,
		turns:     turns,
	}
}

// Respond 生成本轮回复，history 按时间正序
func (r *Responder) Respond(ctx context.Context, input string, history []*model.Message) model.BotTurn {
	log := logger.Component("responder")

	messages, err := r.BuildPrompt(ctx, input, history)
	if err != nil {
		log.Error().Err(err).Msg("failed to build prompt, using fallback")
		return FallbackBotTurn()
	}

	content, err := r.completer.Complete(ctx, messages, r.opts)
	if err != nil {
		log.Warn().Err(err).Msg("completion failed, using fallback")
		return FallbackBotTurn()
	}

	turn, err := ParseBotTurn(content)
	if err != nil {
		log.Warn().Err(err).Int("content_length", len(content)).Msg("invalid structured response, using fallback")
		return FallbackBotTurn()
	}
	return turn
}

// BuildPrompt 组装发送给模型的消息，只保留最近 turns 轮历史
func (r *Responder) BuildPrompt(ctx context.Context, input string, history []*model.Message) ([]*schema.Message, error) {
	dims := r.catalog.Dimensions(ctx)

	if len(history) > r.turns {
		history = history[len(history)-r.turns:]
	}

	turns := make([]*schema.Message, 0, len(history)*2)
	for _, m := range history {
		turns = append(turns, schema.UserMessage(m.UserInput))
		if m.BotResponse != nil {
			turns = append(turns, schema.AssistantMessage(assistantText(m.BotResponse), nil))
		}
	}

	return responderTemplate.Format(ctx, map[string]any{
		"instruction": fmt.Sprintf(responderInstruction, dimensionList(dims), exemplar(dims)),
		"history":     turns,
		"input":       input,
		"reminder":    fmt.Sprintf(responderReminder, dimensionNames(dims), exemplar(dims)),
	})
}

// assistantText 历史中的机器人回复带上当时的情绪快照
func assistantText(turn *model.BotTurn) string {
	dims, err := json.Marshal(turn.MoodDimensions)
	if err != nil {
		return turn.Content
	}
	return turn.Content + "\n\nMood Dimensions: " + string(dims)
}
