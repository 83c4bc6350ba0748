package dialogue

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrOwnershipViolation 调用方不是对话的所有者
	ErrOwnershipViolation = errors.New("conversation does not belong to user")
	// ErrConversationNotFound 对话不存在
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrRateLimitExceeded 超过消息频率上限，具体上限见 *RateLimitError
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrPersistence 存储读写失败
	ErrPersistence = errors.New("persistence failure")
	// ErrNoMessages 对话中没有可分析的消息
	ErrNoMessages = errors.New("no messages to analyze")
	// ErrAnalysisFailed 模型调用失败或输出无法解析
	ErrAnalysisFailed = errors.New("conversation analysis failed")
)

// RateLimitError 携带配置的上限，用于提示用户
type RateLimitError struct {
	Limit  int
	Window time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Rate limit exceeded. Maximum %d messages per %s.", e.Limit, windowText(e.Window))
}

// Is 使 errors.Is(err, ErrRateLimitExceeded) 成立
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

func windowText(d time.Duration) string {
	if d == time.Hour {
		return "hour"
	}
	return d.String()
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
