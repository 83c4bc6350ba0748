package dialogue

import (
	"context"
	"errors"
	"strings"
	"time"

	"healthbot/internal/ai"
	"healthbot/internal/config"
	"healthbot/internal/model"
	"healthbot/internal/pkg/id"
	"healthbot/internal/pkg/logger"
	"healthbot/internal/repository"
)

// 立即分析失败的原因
const (
	ReasonNoMessages     = "no_messages"
	ReasonAnalysisFailed = "analysis_failed"
	ReasonPersistFailed  = "persist_failed"
)

// PostResult 发送消息的结果
type PostResult struct {
	Content   string
	Remaining int
	Turn      model.BotTurn
	MessageID string
}

// AnalysisResult 立即分析的结果
type AnalysisResult struct {
	Success bool
	Scores  *model.AggregateScore
	Reason  string // 失败时为 Reason* 之一
}

// Service 对话引擎
// 所有按对话 ID 的操作都先校验归属
type Service struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository

	catalog   *MoodCatalog
	history   *HistoryAssembler
	responder *Responder
	limiter   *RateLimiter
	analyzer  *Analyzer
	queue     *AnalysisQueue

	cfg      config.DialogueConfig
	now      func() time.Time
	schedule func(conversationID string) bool
}

// NewService 创建对话引擎，cache 可为 nil
func NewService(store *repository.Store, completer ai.Completer, cache Cache, cfg config.DialogueConfig) *Service {
	catalog := NewMoodCatalog(store.MoodDims, cache, cfg.CatalogTTL)

	s := &Service{
		conversations: store.Conversations,
		messages:      store.Messages,
		catalog:       catalog,
		history:       NewHistoryAssembler(store.Messages),
		responder:     NewResponder(completer, catalog, completionOptions(cfg.ResponseModel), cfg.PromptTurns),
		limiter:       NewRateLimiter(store.Messages, cfg.RateLimit, cfg.RateWindow),
		analyzer:      NewAnalyzer(store.Messages, completer, catalog, completionOptions(cfg.AnalysisModel), cfg.AnalysisWindow),
		cfg:           cfg,
		now:           time.Now,
	}
	s.queue = NewAnalysisQueue(cfg.Queue.Size, cfg.Queue.Workers, s.runAnalysis)
	s.schedule = s.queue.Enqueue
	return s
}

func completionOptions(m config.ModelOptions) ai.CompletionOptions {
	return ai.CompletionOptions{
		Model:       m.Model,
		Temperature: m.Temperature,
		MaxTokens:   m.MaxTokens,
	}
}

// Start 启动后台分析 worker
func (s *Service) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Close 等待排队中的分析完成
func (s *Service) Close() {
	s.queue.Close()
}

// Catalog 情绪维度目录
func (s *Service) Catalog() *MoodCatalog {
	return s.catalog
}

// Analyzer 对话分析器
func (s *Service) Analyzer() *Analyzer {
	return s.analyzer
}

// CreateConversation 创建对话并写入第一条消息
// 第一条消息写入失败时删除对话，不留下空对话
func (s *Service) CreateConversation(ctx context.Context, userID, title, firstMessage string) (*model.Conversation, error) {
	log := logger.Component("dialogue").With().Str("user_id", userID).Logger()

	now := s.now().UTC()
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle(now)
	}

	conv := &model.Conversation{
		ID:        id.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, persistenceError("create conversation", err)
	}

	turn := s.responder.Respond(ctx, firstMessage, nil)

	msg := &model.Message{
		ID:             id.New(),
		ConversationID: conv.ID,
		UserID:         userID,
		UserInput:      firstMessage,
		BotResponse:    &turn,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		if delErr := s.conversations.Delete(ctx, conv.ID); delErr != nil {
			log.Error().Err(delErr).Str("conversation_id", conv.ID).Msg("failed to roll back conversation")
		}
		return nil, persistenceError("create first message", err)
	}

	log.Info().Str("conversation_id", conv.ID).Msg("conversation created")
	return conv, nil
}

// DefaultTitle 未指定标题时的默认标题
func DefaultTitle(t time.Time) string {
	return "Chat on " + t.UTC().Format("2006-01-02 15:04")
}

// PostMessage 在已有对话中发送一条消息
// 顺序：归属校验 -> 限流 -> 读取历史 -> 生成回复 -> 写入 -> 按条数触发后台分析
func (s *Service) PostMessage(ctx context.Context, userID, conversationID string, isPaid bool, input string) (*PostResult, error) {
	log := logger.Component("dialogue").With().
		Str("user_id", userID).
		Str("conversation_id", conversationID).
		Logger()

	if _, err := s.authorize(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	remaining, err := s.limiter.Admit(ctx, userID, isPaid)
	if err != nil {
		return nil, err
	}

	// 写入前的总条数决定是否触发分析
	existing, err := s.messages.CountByConversation(ctx, conversationID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count messages, analysis trigger skipped")
		existing = 0
	}

	history := s.history.LoadHistory(ctx, conversationID, s.cfg.HistoryLimit.For(isPaid))
	turn := s.responder.Respond(ctx, input, history)

	msg := &model.Message{
		ID:             id.New(),
		ConversationID: conversationID,
		UserID:         userID,
		UserInput:      input,
		BotResponse:    &turn,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, persistenceError("create message", err)
	}

	if s.shouldAnalyze(existing) {
		if s.schedule(conversationID) {
			log.Debug().Int64("messages", existing).Msg("background analysis scheduled")
		}
	}

	return &PostResult{
		Content:   turn.Content,
		Remaining: remaining,
		Turn:      turn,
		MessageID: msg.ID,
	}, nil
}

func (s *Service) shouldAnalyze(existing int64) bool {
	every := int64(s.cfg.AnalysisEvery)
	return every > 0 && existing > 0 && existing%every == 0
}

// runAnalysis 后台分析任务，失败只记日志
func (s *Service) runAnalysis(ctx context.Context, conversationID string) {
	log := logger.Component("dialogue").With().Str("conversation_id", conversationID).Logger()

	scores, err := s.analyzer.Analyze(ctx, conversationID)
	if err != nil {
		if errors.Is(err, ErrNoMessages) {
			log.Debug().Msg("no messages to analyze")
			return
		}
		log.Warn().Err(err).Msg("background analysis failed")
		return
	}

	if err := s.conversations.UpdateScores(ctx, conversationID, scores); err != nil {
		log.Error().Err(err).Msg("failed to save conversation scores")
		return
	}
	log.Info().Msg("conversation scores updated")
}

// AnalyzeNow 同步分析并保存结果
func (s *Service) AnalyzeNow(ctx context.Context, userID, conversationID string) (*AnalysisResult, error) {
	if _, err := s.authorize(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	scores, err := s.analyzer.Analyze(ctx, conversationID)
	switch {
	case errors.Is(err, ErrNoMessages):
		return &AnalysisResult{Reason: ReasonNoMessages}, nil
	case errors.Is(err, ErrAnalysisFailed):
		logger.Component("dialogue").Warn().Err(err).Str("conversation_id", conversationID).Msg("analysis failed")
		return &AnalysisResult{Reason: ReasonAnalysisFailed}, nil
	case err != nil:
		return nil, err
	}

	if err := s.conversations.UpdateScores(ctx, conversationID, scores); err != nil {
		logger.Component("dialogue").Error().Err(err).Str("conversation_id", conversationID).Msg("failed to save conversation scores")
		return &AnalysisResult{Scores: scores, Reason: ReasonPersistFailed}, nil
	}
	return &AnalysisResult{Success: true, Scores: scores}, nil
}

// GetScores 返回最近一次保存的汇总，未分析过时为 nil
func (s *Service) GetScores(ctx context.Context, userID, conversationID string) (*model.AggregateScore, error) {
	conv, err := s.authorize(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	return conv.Scores, nil
}

// GetMessages 按时间正序返回对话全部消息
func (s *Service) GetMessages(ctx context.Context, userID, conversationID string) ([]*model.Message, error) {
	if _, err := s.authorize(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, persistenceError("list messages", err)
	}
	return msgs, nil
}

// ListConversations 按创建时间倒序返回用户的对话
func (s *Service) ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	convs, err := s.conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistenceError("list conversations", err)
	}
	return convs, nil
}

// authorize 校验对话存在且属于 userID
func (s *Service) authorize(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	if !id.Valid(conversationID) {
		return nil, ErrConversationNotFound
	}
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, persistenceError("find conversation", err)
	}
	if conv.UserID != userID {
		logger.Component("dialogue").Warn().
			Str("user_id", userID).
			Str("conversation_id", conversationID).
			Msg("ownership check failed")
		return nil, ErrOwnershipViolation
	}
	return conv, nil
}
