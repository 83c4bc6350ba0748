package dialogue

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"healthbot/internal/config"
	"healthbot/internal/repository"
	"healthbot/internal/repository/memstore"
)

// countFailingRepo 计数查询失败
type countFailingRepo struct {
	repository.MessageRepository
}

func (countFailingRepo) CountByUserSince(context.Context, string, time.Time) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestRateLimiter_Admit(t *testing.T) {
	Convey("RateLimiter.Admit", t, func() {
		ctx := context.Background()
		repos := memstore.New().Repositories()
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		limiter := NewRateLimiter(repos.Messages, config.TierConfig{Free: 3, Paid: 5}, time.Hour)
		limiter.now = func() time.Time { return now }

		Convey("没有消息时剩余 limit-1", func() {
			remaining, err := limiter.Admit(ctx, "u1", false)
			So(err, ShouldBeNil)
			So(remaining, ShouldEqual, 2)
		})

		Convey("达到上限后拒绝", func() {
			for i := 0; i < 3; i++ {
				So(repos.Messages.Create(ctx, message("c1", "u1", "m", now.Add(-time.Duration(i)*time.Minute))), ShouldBeNil)
			}

			_, err := limiter.Admit(ctx, "u1", false)
			So(errors.Is(err, ErrRateLimitExceeded), ShouldBeTrue)

			var rle *RateLimitError
			So(errors.As(err, &rle), ShouldBeTrue)
			So(rle.Limit, ShouldEqual, 3)
			So(err.Error(), ShouldEqual, "Rate limit exceeded. Maximum 3 messages per hour.")

			Convey("付费用户使用付费上限", func() {
				remaining, err := limiter.Admit(ctx, "u1", true)
				So(err, ShouldBeNil)
				So(remaining, ShouldEqual, 1)
			})

			Convey("其他用户不受影响", func() {
				remaining, err := limiter.Admit(ctx, "u2", false)
				So(err, ShouldBeNil)
				So(remaining, ShouldEqual, 2)
			})
		})

		Convey("窗口外的消息不计数", func() {
			for i := 0; i < 3; i++ {
				So(repos.Messages.Create(ctx, message("c1", "u1", "old", now.Add(-2*time.Hour))), ShouldBeNil)
			}
			So(repos.Messages.Create(ctx, message("c1", "u1", "new", now.Add(-10*time.Minute))), ShouldBeNil)

			remaining, err := limiter.Admit(ctx, "u1", false)
			So(err, ShouldBeNil)
			So(remaining, ShouldEqual, 1)
		})

		Convey("计数失败视为存储错误", func() {
			broken := NewRateLimiter(countFailingRepo{repos.Messages}, config.TierConfig{Free: 3, Paid: 5}, time.Hour)

			_, err := broken.Admit(ctx, "u1", false)
			So(errors.Is(err, ErrPersistence), ShouldBeTrue)
			So(errors.Is(err, ErrRateLimitExceeded), ShouldBeFalse)
		})
	})
}
