package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"symptom-advisor-bot/pkg/logger"
)

// KeyLimiter 按 key 判断是否放行
type KeyLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit 按客户端 IP 限流；limiter 为 nil 时不限流，限流器故障时放行
func RateLimit(limiter KeyLimiter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":     http.StatusTooManyRequests,
				"message":  "rate limit exceeded",
				"trace_id": c.GetString("trace_id"),
			})
			return
		}

		c.Next()
	}
}
