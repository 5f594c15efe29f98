package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"symptom-advisor-bot/internal/application/dispatch"
	"symptom-advisor-bot/pkg/errors"
	"symptom-advisor-bot/pkg/logger"
)

// EventParser 校验签名并解析 webhook 请求
type EventParser interface {
	ParseRequest(r *http.Request) ([]dispatch.Event, error)
}

// EventHandler 处理单个事件
type EventHandler interface {
	Handle(ctx context.Context, ev dispatch.Event) error
}

// WebhookHandler LINE webhook 处理器
type WebhookHandler struct {
	parser  EventParser
	events  EventHandler
	async   bool
	timeout time.Duration

	wg sync.WaitGroup
}

// NewWebhookHandler async 为 true 时先返回 200 再在后台处理事件
func NewWebhookHandler(parser EventParser, events EventHandler, async bool, timeout time.Duration) *WebhookHandler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &WebhookHandler{parser: parser, events: events, async: async, timeout: timeout}
}

// Webhook 接收 LINE 平台事件
// @Summary LINE webhook
// @Description 校验 X-Line-Signature 后处理文字、语音与位置消息
// @Tags Webhook
// @Accept json
// @Produce plain
// @Param X-Line-Signature header string true "签名"
// @Success 200 {string} string "OK"
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /webhook [post]
func (h *WebhookHandler) Webhook(c *gin.Context) {
	ctx := c.Request.Context()

	events, err := h.parser.ParseRequest(c.Request)
	if err != nil {
		if errors.AsAppError(err).Code == errors.CodeInvalidSignature {
			logger.Warn(ctx, "invalid webhook signature")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		logger.Error(ctx, "parse webhook failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Info(ctx, "webhook received", "events", len(events))

	if !h.async {
		for _, ev := range events {
			h.handle(ctx, ev)
		}
		c.String(http.StatusOK, "OK")
		return
	}

	// 平台要求尽快返回 200，事件在脱离请求生命周期的 context 中处理
	detached := context.WithoutCancel(ctx)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for _, ev := range events {
			h.handle(detached, ev)
		}
	}()
	c.String(http.StatusOK, "OK")
}

func (h *WebhookHandler) handle(ctx context.Context, ev dispatch.Event) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "panic while handling event", nil, "panic", r, "event_id", ev.ID)
		}
	}()

	if err := h.events.Handle(ctx, ev); err != nil {
		logger.Error(ctx, "handle event failed", err, "event_id", ev.ID, "type", string(ev.Type))
	}
}

// Wait 等待后台事件处理完成，用于优雅关闭
func (h *WebhookHandler) Wait() {
	h.wg.Wait()
}
