package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"healthbot/internal/ai"
	"healthbot/internal/model"
	"healthbot/internal/pkg/llmjson"
	"healthbot/internal/repository"
)

// DefaultAnalysisWindow 分析时读取的最近消息条数
const DefaultAnalysisWindow = 10

var aggregateScoreSchema = llmjson.MustCompile("aggregate_score.json", `{
	"type": "object",
	"required": ["summary", "average_mood_scores", "key_themes"],
	"properties": {
		"summary": {"type": "string"},
		"average_mood_scores": {
			"type": "object",
			"additionalProperties": {"type": "number"}
		},
		"key_themes": {
			"type": "array",
			"items": {"type": "string"}
		}
	}
}`)

// Analyzer 对最近若干条消息做对话级情绪汇总
// 只计算，不落库
type Analyzer struct {
	messages  repository.MessageRepository
	completer ai.Completer
	catalog   *MoodCatalog
	opts      ai.CompletionOptions
	window    int
}

// NewAnalyzer 创建分析器
func NewAnalyzer(messages repository.MessageRepository, completer ai.Completer, catalog *MoodCatalog, opts ai.CompletionOptions, window int) *Analyzer {
	if window <= 0 {
		window = DefaultAnalysisWindow
	}
	opts.JSONMode = true
	return &Analyzer{
		messages:  messages,
		completer: completer,
		catalog:   catalog,
		opts:      opts,
		window:    window,
	}
}

// Analyze 返回 ErrNoMessages、ErrAnalysisFailed 或持久化错误
func (a *Analyzer) Analyze(ctx context.Context, conversationID string) (*model.AggregateScore, error) {
	recent, err := a.messages.ListRecent(ctx, conversationID, int64(a.window))
	if err != nil {
		return nil, persistenceError("load messages for analysis", err)
	}
	if len(recent) == 0 {
		return nil, ErrNoMessages
	}

	dims := a.catalog.Dimensions(ctx)
	messages := []*schema.Message{
		schema.SystemMessage(analysisSystemPrompt),
		schema.UserMessage(fmt.Sprintf(analysisUserPrompt, dimensionNames(dims), Transcript(recent))),
	}

	content, err := a.completer.Complete(ctx, messages, a.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	var score model.AggregateScore
	if err := llmjson.Decode(content, aggregateScoreSchema, &score); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	if score.AverageMoodScores == nil {
		score.AverageMoodScores = map[string]float64{}
	}
	if score.KeyThemes == nil {
		score.KeyThemes = []string{}
	}
	return &score, nil
}

// Transcript 将倒序的消息渲染为正序对话文本
func Transcript(newestFirst []*model.Message) string {
	var b strings.Builder
	for i := len(newestFirst) - 1; i >= 0; i-- {
		m := newestFirst[i]
		b.WriteString("User: ")
		b.WriteString(m.UserInput)
		b.WriteString("\n")
		if m.BotResponse != nil {
			b.WriteString("Bot: ")
			b.WriteString(m.BotResponse.Content)
			b.WriteString("\n")
		}
	}
	return b.String()
}
