package agent

import (
	"context"
	"log"
	"time"
)

// RetryPolicy 重试策略，作为数据传入而非写死在调用处
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy 默认策略
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, Delay: 3 * time.Second}
}

// Do 执行 fn，失败时按策略重试，返回最后一次的错误。
// 等待期间响应 ctx 取消。
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt < attempts {
			log.Printf("%s 失败 (尝试 %d/%d): %v，等待 %s 后重试", op, attempt, attempts, lastErr, p.Delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay):
			}
		}
	}
	return lastErr
}
