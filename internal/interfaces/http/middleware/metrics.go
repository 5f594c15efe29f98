package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"symptom-advisor-bot/pkg/metrics"
)

// Metrics Prometheus 指标采集中间件
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method

		if size := float64(c.Request.ContentLength); size > 0 {
			metrics.HTTPRequestSize.WithLabelValues(method, path).Observe(size)
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := float64(c.Writer.Size()); size > 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(size)
		}
	}
}
