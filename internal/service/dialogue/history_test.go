package dialogue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"

	"healthbot/internal/model"
	"healthbot/internal/repository"
	"healthbot/internal/repository/memstore"
)

// historyFailingRepo 读取历史失败，其余操作正常
type historyFailingRepo struct {
	repository.MessageRepository
}

func (historyFailingRepo) ListRecent(context.Context, string, int64) ([]*model.Message, error) {
	return nil, errors.New("cursor timeout")
}

func TestHistoryAssembler_LoadHistory(t *testing.T) {
	Convey("LoadHistory 返回最近的消息，按时间正序", t, func() {
		ctx := context.Background()
		repos := memstore.New().Repositories()
		h := NewHistoryAssembler(repos.Messages)
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		// 乱序写入
		for _, i := range []int{3, 0, 6, 1, 5, 2, 4} {
			So(repos.Messages.Create(ctx, message("c1", "u1", fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Minute))), ShouldBeNil)
		}
		So(repos.Messages.Create(ctx, message("c2", "u1", "other", base)), ShouldBeNil)

		Convey("limit=5", func() {
			history := h.LoadHistory(ctx, "c1", 5)
			So(len(history), ShouldEqual, 5)
			for i, m := range history {
				So(m.UserInput, ShouldEqual, fmt.Sprintf("m%d", i+2))
			}
		})

		Convey("limit 大于总数", func() {
			history := h.LoadHistory(ctx, "c1", 15)
			So(len(history), ShouldEqual, 7)
			So(history[0].UserInput, ShouldEqual, "m0")
		})

		Convey("limit<=0 不限", func() {
			So(len(h.LoadHistory(ctx, "c1", 0)), ShouldEqual, 7)
		})

		Convey("空对话", func() {
			history := h.LoadHistory(ctx, "missing", 5)
			So(history, ShouldNotBeNil)
			So(history, ShouldBeEmpty)
		})
	})
}

func TestHistoryAssembler_StorageFailure(t *testing.T) {
	Convey("读取历史失败时降级为空历史", t, func() {
		ctx := context.Background()
		store := memstore.New().Repositories()
		broken := &repository.Store{
			Conversations: store.Conversations,
			Messages:      historyFailingRepo{store.Messages},
			MoodDims:      store.MoodDims,
		}

		Convey("LoadHistory 返回非 nil 的空切片", func() {
			h := NewHistoryAssembler(broken.Messages)
			history := h.LoadHistory(ctx, "c1", 5)
			So(history, ShouldNotBeNil)
			So(history, ShouldBeEmpty)
		})

		Convey("PostMessage 仍然成功，prompt 不含历史", func() {
			completer := &fakeCompleter{reply: validTurnJSON}
			svc, _ := newTestService(store, completer)
			conv, err := svc.CreateConversation(ctx, "u1", "", "first")
			So(err, ShouldBeNil)

			brokenSvc, _ := newTestService(broken, completer)
			res, err := brokenSvc.PostMessage(ctx, "u1", conv.ID, false, "still there?")
			So(err, ShouldBeNil)
			So(res.Content, ShouldEqual, "Sounds rough. Want to talk about it?")

			var users, assistants int
			for _, m := range completer.lastCall().messages {
				switch m.Role {
				case schema.User:
					users++
				case schema.Assistant:
					assistants++
				}
			}
			So(users, ShouldEqual, 1)
			So(assistants, ShouldEqual, 0)
			So(completer.lastCall().messages[1].Content, ShouldEqual, "still there?")

			msgs, err := svc.GetMessages(ctx, "u1", conv.ID)
			So(err, ShouldBeNil)
			So(len(msgs), ShouldEqual, 2)
		})
	})
}
