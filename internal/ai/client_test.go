package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeChatModel struct {
	content string
	err     error
	delay   time.Duration

	calls    int
	lastOpts *model.Options
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	f.lastOpts = model.GetCommonOptions(&model.Options{}, opts...)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestClient_Complete(t *testing.T) {
	Convey("Client.Complete 调用 ChatModel 并返回文本", t, func() {
		ctx := context.Background()
		msgs := []*schema.Message{schema.UserMessage("hi")}

		Convey("传递温度/长度/模型参数", func() {
			chat := &fakeChatModel{content: "  hello  "}
			c := NewClientWithModels(chat, nil, time.Second)

			out, err := c.Complete(ctx, msgs, CompletionOptions{Model: "m1", Temperature: 0.5, MaxTokens: 350})
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "hello")
			So(*chat.lastOpts.Model, ShouldEqual, "m1")
			So(*chat.lastOpts.Temperature, ShouldAlmostEqual, float32(0.5))
			So(*chat.lastOpts.MaxTokens, ShouldEqual, 350)
		})

		Convey("JSONMode 优先使用 json 模型", func() {
			chat := &fakeChatModel{content: "plain"}
			jsonChat := &fakeChatModel{content: `{"a":1}`}
			c := NewClientWithModels(chat, jsonChat, time.Second)

			out, err := c.Complete(ctx, msgs, CompletionOptions{JSONMode: true})
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"a":1}`)
			So(chat.calls, ShouldEqual, 0)
		})

		Convey("没有 json 模型时退回普通模型", func() {
			chat := &fakeChatModel{content: "plain"}
			c := NewClientWithModels(chat, nil, time.Second)

			out, err := c.Complete(ctx, msgs, CompletionOptions{JSONMode: true})
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "plain")
		})

		Convey("空内容返回 ErrEmptyCompletion", func() {
			c := NewClientWithModels(&fakeChatModel{content: "   "}, nil, time.Second)
			_, err := c.Complete(ctx, msgs, CompletionOptions{})
			So(errors.Is(err, ErrEmptyCompletion), ShouldBeTrue)
		})

		Convey("provider 错误被包装返回", func() {
			boom := errors.New("boom")
			c := NewClientWithModels(&fakeChatModel{err: boom}, nil, time.Second)
			_, err := c.Complete(ctx, msgs, CompletionOptions{})
			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("超时后返回 context 错误", func() {
			c := NewClientWithModels(&fakeChatModel{content: "late", delay: time.Second}, nil, 20*time.Millisecond)
			_, err := c.Complete(ctx, msgs, CompletionOptions{})
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})
}
