package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimiter 基于有序集合的滑动窗口限流
type RateLimiter struct {
	client *Client
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow 在一个 MULTI 中清理过期记录、登记本次请求并计数。
// 超出 limit 时撤销本次登记，被拒绝的请求不占用窗口。
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := startSpan(ctx, "ratelimit.Allow",
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
		attribute.Int64("ratelimit.window_ms", window.Milliseconds()),
	)
	defer span.End()

	now := time.Now().UnixMilli()
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()

	var count *redis.IntCmd
	_, err := l.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now-window.Milliseconds(), 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: member})
		count = pipe.ZCard(ctx, key)
		pipe.PExpire(ctx, key, window)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}

	n := count.Val()
	span.SetAttributes(attribute.Int64("ratelimit.current_count", n))
	if n <= int64(limit) {
		span.SetAttributes(attribute.Bool("ratelimit.allowed", true))
		return true, nil
	}

	if err := l.client.rdb.ZRem(ctx, key, member).Err(); err != nil {
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Bool("ratelimit.allowed", false))
	return false, nil
}

// BuildRateLimitKey 构建限流键，subject 为用户 ID 或客户端 IP
func BuildRateLimitKey(subject, endpoint string) string {
	return rateLimitKeyPrefix + subject + ":" + endpoint
}
