// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker 依赖组件的健康检查
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexSizer 返回已加载索引条目数
type IndexSizer interface {
	Size() int
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version  string
	index    IndexSizer
	backend  string
	required map[string]HealthChecker
}

// NewHealthHandler 创建健康检查处理器；required 中任一失败即未就绪
func NewHealthHandler(version, backend string, index IndexSizer, required map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{
		version:  version,
		index:    index,
		backend:  backend,
		required: required,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status       string                     `json:"status"`
	IndexBackend string                     `json:"index_backend"`
	IndexSize    int                        `json:"index_size"`
	Checks       map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Description 检查索引与依赖组件是否可用
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := readinessResponse{
		Status:       "ok",
		IndexBackend: h.backend,
		Checks:       make(map[string]*readinessCheck, len(h.required)),
	}
	if h.index != nil {
		resp.IndexSize = h.index.Size()
	}

	names := make([]string, 0, len(h.required))
	for name := range h.required {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		check := &readinessCheck{Status: "ok"}
		start := time.Now()
		err := h.required[name].HealthCheck(ctx)
		check.LatencyMs = time.Since(start).Milliseconds()
		if err != nil {
			check.Status = "error"
			check.Error = err.Error()
			resp.Status = "not_ready"
		}
		resp.Checks[name] = check
	}

	if resp.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Description 检查服务是否存活
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
