package dialogue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"healthbot/internal/config"
	"healthbot/internal/model"
	"healthbot/internal/pkg/id"
	"healthbot/internal/repository"
	"healthbot/internal/repository/memstore"
)

type failingMessageRepo struct {
	repository.MessageRepository
}

func (failingMessageRepo) Create(context.Context, *model.Message) error {
	return errors.New("write conflict")
}

type scheduleRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *scheduleRecorder) schedule(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return true
}

func (r *scheduleRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

// newTestService 使用内存存储，时钟每次调用前进一秒
func newTestService(store *repository.Store, completer *fakeCompleter) (*Service, *scheduleRecorder) {
	svc := NewService(store, completer, nil, config.DefaultDialogueConfig())

	clock := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	var mu sync.Mutex
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	svc.limiter.now = svc.now

	rec := &scheduleRecorder{}
	svc.schedule = rec.schedule
	return svc, rec
}

func TestService_CreateConversation(t *testing.T) {
	Convey("CreateConversation", t, func() {
		ctx := context.Background()
		store := memstore.New().Repositories()
		completer := &fakeCompleter{reply: validTurnJSON}
		svc, rec := newTestService(store, completer)

		Convey("创建对话并写入第一条消息", func() {
			conv, err := svc.CreateConversation(ctx, "u1", "", "hello there")
			So(err, ShouldBeNil)
			So(conv.UserID, ShouldEqual, "u1")
			So(conv.Title, ShouldEqual, "Chat on 2024-03-01 09:30")

			msgs, err := svc.GetMessages(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)
			So(len(msgs), ShouldEqual, 1)
			So(msgs[0].UserInput, ShouldEqual, "hello there")
			So(msgs[0].BotResponse.Content, ShouldEqual, "Sounds rough. Want to talk about it?")
			So(rec.count(), ShouldEqual, 0)
		})

		Convey("使用指定标题", func() {
			conv, err := svc.CreateConversation(ctx, "u1", "Work stuff", "hi")
			So(err, ShouldBeNil)
			So(conv.Title, ShouldEqual, "Work stuff")
		})

		Convey("模型失败时仍然创建，回复为兜底内容", func() {
			completer.err = errors.New("unavailable")
			conv, err := svc.CreateConversation(ctx, "u1", "", "hi")
			So(err, ShouldBeNil)

			msgs, err := svc.GetMessages(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)
			So(*msgs[0].BotResponse, ShouldResemble, FallbackBotTurn())
		})

		Convey("第一条消息写入失败时回滚对话", func() {
			broken := &repository.Store{
				Conversations: store.Conversations,
				Messages:      failingMessageRepo{store.Messages},
				MoodDims:      store.MoodDims,
			}
			brokenSvc, _ := newTestService(broken, completer)

			_, err := brokenSvc.CreateConversation(ctx, "u1", "", "hi")
			So(errors.Is(err, ErrPersistence), ShouldBeTrue)

			convs, err := svc.ListConversations(ctx, "u1")
			So(err, ShouldBeNil)
			So(convs, ShouldBeEmpty)
		})

		Convey("ListConversations 按创建时间倒序且只含本人对话", func() {
			first, err := svc.CreateConversation(ctx, "u1", "first", "a")
			So(err, ShouldBeNil)
			second, err := svc.CreateConversation(ctx, "u1", "second", "b")
			So(err, ShouldBeNil)
			_, err = svc.CreateConversation(ctx, "u2", "theirs", "c")
			So(err, ShouldBeNil)

			convs, err := svc.ListConversations(ctx, "u1")
			So(err, ShouldBeNil)
			So(len(convs), ShouldEqual, 2)
			So(convs[0].ID, ShouldEqual, second.ID)
			So(convs[1].ID, ShouldEqual, first.ID)
		})
	})
}

func TestService_PostMessage(t *testing.T) {
	Convey("PostMessage", t, func() {
		ctx := context.Background()
		store := memstore.New().Repositories()
		completer := &fakeCompleter{reply: validTurnJSON, analysis: validScoreJSON}
		svc, rec := newTestService(store, completer)

		conv, err := svc.CreateConversation(ctx, "u1", "", "first")
		So(err, ShouldBeNil)

		Convey("返回回复和剩余额度", func() {
			res, err := svc.PostMessage(ctx, "u1", conv.ID, false, "second")
			So(err, ShouldBeNil)
			So(res.Content, ShouldEqual, "Sounds rough. Want to talk about it?")
			// 已有 1 条，上限 50
			So(res.Remaining, ShouldEqual, 48)

			prompt := completer.lastCall().messages
			So(prompt[1].Content, ShouldEqual, "first")
			So(prompt[len(prompt)-2].Content, ShouldEqual, "second")
		})

		Convey("他人的对话被拒绝，且不写入", func() {
			_, err := svc.PostMessage(ctx, "intruder", conv.ID, false, "hi")
			So(errors.Is(err, ErrOwnershipViolation), ShouldBeTrue)

			msgs, err := svc.GetMessages(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)
			So(len(msgs), ShouldEqual, 1)
		})

		Convey("对话不存在", func() {
			_, err := svc.PostMessage(ctx, "u1", "missing", false, "hi")
			So(errors.Is(err, ErrConversationNotFound), ShouldBeTrue)
		})

		Convey("超过上限时在调用模型前拒绝", func() {
			svc.limiter.limits = config.TierConfig{Free: 1, Paid: 1}
			calls := completer.callCount()

			_, err := svc.PostMessage(ctx, "u1", conv.ID, false, "hi")
			So(errors.Is(err, ErrRateLimitExceeded), ShouldBeTrue)
			So(completer.callCount(), ShouldEqual, calls)
		})

		Convey("第 5 条之后触发一次分析，第 6 条之后不触发", func() {
			for i := 0; i < 4; i++ {
				_, err := svc.PostMessage(ctx, "u1", conv.ID, false, "more")
				So(err, ShouldBeNil)
			}
			So(rec.count(), ShouldEqual, 0)

			// 对话已有 5 条
			_, err := svc.PostMessage(ctx, "u1", conv.ID, false, "sixth write")
			So(err, ShouldBeNil)
			So(rec.count(), ShouldEqual, 1)
			So(rec.ids[0], ShouldEqual, conv.ID)

			_, err = svc.PostMessage(ctx, "u1", conv.ID, false, "seventh write")
			So(err, ShouldBeNil)
			So(rec.count(), ShouldEqual, 1)
		})

		Convey("后台分析任务保存汇总", func() {
			svc.runAnalysis(ctx, conv.ID)

			scores, err := svc.GetScores(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)
			So(scores.Summary, ShouldEqual, "User is stressed about work.")
		})
	})
}

func TestService_AnalyzeNow(t *testing.T) {
	Convey("AnalyzeNow", t, func() {
		ctx := context.Background()
		store := memstore.New().Repositories()
		completer := &fakeCompleter{reply: validTurnJSON, analysis: validScoreJSON}
		svc, _ := newTestService(store, completer)

		conv, err := svc.CreateConversation(ctx, "u1", "", "first")
		So(err, ShouldBeNil)

		Convey("成功后保存，重复分析结果一致", func() {
			res, err := svc.AnalyzeNow(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)
			So(res.Success, ShouldBeTrue)
			first, err := svc.GetScores(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)

			res, err = svc.AnalyzeNow(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)
			So(res.Success, ShouldBeTrue)
			second, err := svc.GetScores(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
		})

		Convey("未分析时汇总为空", func() {
			scores, err := svc.GetScores(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)
			So(scores, ShouldBeNil)
		})

		Convey("模型失败时返回 analysis_failed，不覆盖已有汇总", func() {
			_, err := svc.AnalyzeNow(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)

			completer.err = errors.New("boom")
			res, err := svc.AnalyzeNow(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)
			So(res.Success, ShouldBeFalse)
			So(res.Reason, ShouldEqual, ReasonAnalysisFailed)

			scores, err := svc.GetScores(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)
			So(scores.Summary, ShouldEqual, "User is stressed about work.")
		})

		Convey("没有消息时返回 no_messages", func() {
			empty := &model.Conversation{ID: id.New(), UserID: "u1", Title: "t"}
			So(store.Conversations.Create(ctx, empty), ShouldBeNil)

			res, err := svc.AnalyzeNow(ctx, "u1", empty.ID)
			So(err, ShouldBeNil)
			So(res.Success, ShouldBeFalse)
			So(res.Reason, ShouldEqual, ReasonNoMessages)
		})

		Convey("归属校验", func() {
			_, err := svc.AnalyzeNow(ctx, "u2", conv.ID)
			So(errors.Is(err, ErrOwnershipViolation), ShouldBeTrue)

			_, err = svc.GetScores(ctx, "u2", conv.ID)
			So(errors.Is(err, ErrOwnershipViolation), ShouldBeTrue)

			_, err = svc.GetMessages(ctx, "u2", conv.ID)
			So(errors.Is(err, ErrOwnershipViolation), ShouldBeTrue)
		})
	})
}

func TestService_Queue(t *testing.T) {
	Convey("Start/Close 驱动真实队列", t, func() {
		ctx := context.Background()
		store := memstore.New().Repositories()
		completer := &fakeCompleter{reply: validTurnJSON, analysis: validScoreJSON}
		svc := NewService(store, completer, nil, config.DefaultDialogueConfig())

		conv, err := svc.CreateConversation(ctx, "u1", "", "first")
		So(err, ShouldBeNil)

		svc.Start(ctx)
		So(svc.queue.Enqueue(conv.ID), ShouldBeTrue)
		svc.Close()

		scores, err := svc.GetScores(ctx, "u1", conv.ID)
		So(err, ShouldBeNil)
		So(scores, ShouldNotBeNil)
		So(scores.KeyThemes, ShouldResemble, []string{"work", "sleep"})
	})
}
