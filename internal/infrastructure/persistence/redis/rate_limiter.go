package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// RateLimiter 滑动窗口限流器
type RateLimiter struct {
	client *Client
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow 检查是否允许请求（滑动窗口算法）
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow")
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
		attribute.Int64("ratelimit.window_ms", window.Milliseconds()),
	)
	defer span.End()

	now := time.Now().UnixMilli()
	windowStart := now - window.Milliseconds()

	pipe := l.client.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return false, err
	}

	count := countCmd.Val()
	span.SetAttributes(attribute.Int64("ratelimit.current_count", count))
	if count >= int64(limit) {
		span.SetAttributes(attribute.Bool("ratelimit.allowed", false))
		return false, nil
	}

	// 同一毫秒内的多次请求需要不同的 member
	pipe = l.client.rdb.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: uuid.NewString()})
	pipe.Expire(ctx, key, window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return false, err
	}

	span.SetAttributes(attribute.Bool("ratelimit.allowed", true))
	return true, nil
}

// UserLimiter 按 LINE 用户限流（每 window 最多 limit 次）
type UserLimiter struct {
	limiter *RateLimiter
	limit   int
	window  time.Duration
}

// NewUserLimiter 创建用户限流器
func NewUserLimiter(l *RateLimiter, limit int, window time.Duration) *UserLimiter {
	return &UserLimiter{limiter: l, limit: limit, window: window}
}

// Allow limit <= 0 表示不限流
func (u *UserLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	if u.limit <= 0 {
		return true, nil
	}
	return u.limiter.Allow(ctx, u.limiter.client.Key("ratelimit", "user", userID), u.limit, u.window)
}

// IPLimiter HTTP 接口按来源 IP 限流
type IPLimiter struct {
	limiter *RateLimiter
	limit   int
}

// NewIPLimiter 每秒最多 perSecond 次
func NewIPLimiter(l *RateLimiter, perSecond int) *IPLimiter {
	return &IPLimiter{limiter: l, limit: perSecond}
}

// Allow limit <= 0 表示不限流
func (i *IPLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	if i.limit <= 0 {
		return true, nil
	}
	return i.limiter.Allow(ctx, i.limiter.client.Key("ratelimit", "ip", ip), i.limit, time.Second)
}
