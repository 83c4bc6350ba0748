package dialogue

import (
	"context"
	"time"

	"healthbot/internal/config"
	"healthbot/internal/repository"
)

// RateLimiter 按用户统计滑动窗口内的消息数
// 免费/付费两档上限由配置给出
type RateLimiter struct {
	messages repository.MessageRepository
	limits   config.TierConfig
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(messages repository.MessageRepository, limits config.TierConfig, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Hour
	}
	return &RateLimiter{
		messages: messages,
		limits:   limits,
		window:   window,
		now:      time.Now,
	}
}

// Admit 判断用户能否再发一条消息
// 通过时返回本条之后的剩余额度（limit - count - 1）；否则返回 *RateLimitError
func (l *RateLimiter) Admit(ctx context.Context, userID string, isPaid bool) (int, error) {
	limit := l.limits.For(isPaid)

	since := l.now().UTC().Add(-l.window)
	count, err := l.messages.CountByUserSince(ctx, userID, since)
	if err != nil {
		return 0, persistenceError("count recent messages", err)
	}

	if count >= int64(limit) {
		return 0, &RateLimitError{Limit: limit, Window: l.window}
	}
	return limit - int(count) - 1, nil
}
