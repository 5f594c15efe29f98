package dispatch

import (
	"context"
	"time"

	"symptom-advisor-bot/internal/application/card"
	"symptom-advisor-bot/internal/domain/service"
	"symptom-advisor-bot/pkg/errors"
	"symptom-advisor-bot/pkg/logger"
	"symptom-advisor-bot/pkg/metrics"
	"symptom-advisor-bot/pkg/tracer"
)

// 面向用户的固定文案
const (
	MsgProcessingError   = "抱歉，處理您的訊息時發生錯誤。請稍後再試。"
	MsgTranscribeFailed  = "抱歉，無法辨識您的語音訊息，請再試一次或改用文字輸入。"
	MsgRateLimited       = "您的訊息太頻繁，請稍後再試。"
	TranscriptPrefix     = "語音辨識結果："
	audioDefaultFilename = "audio.m4a"
)

// Dispatcher 事件路由
type Dispatcher struct {
	pipeline    *Pipeline
	messenger   Messenger
	fetcher     ContentFetcher
	transcriber Transcriber
	locator     ClinicLocator
	deduper     EventDeduper
	limiter     UserLimiter
}

// Option Dispatcher 选项
type Option func(*Dispatcher)

// WithAudio 启用语音消息
func WithAudio(f ContentFetcher, t Transcriber) Option {
	return func(d *Dispatcher) {
		d.fetcher = f
		d.transcriber = t
	}
}

// WithClinicLocator 启用位置消息
func WithClinicLocator(l ClinicLocator) Option {
	return func(d *Dispatcher) { d.locator = l }
}

// WithDeduper 过滤重投事件
func WithDeduper(dd EventDeduper) Option {
	return func(d *Dispatcher) { d.deduper = dd }
}

// WithUserLimiter 按用户限流
func WithUserLimiter(l UserLimiter) Option {
	return func(d *Dispatcher) { d.limiter = l }
}

// NewDispatcher 创建 Dispatcher
func NewDispatcher(p *Pipeline, m Messenger, opts ...Option) *Dispatcher {
	d := &Dispatcher{pipeline: p, messenger: m}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle 处理单个事件；回复发送失败会作为错误返回
func (d *Dispatcher) Handle(ctx context.Context, ev Event) (err error) {
	ctx = logger.WithContext(ctx, logger.EventIDKey, ev.ID)
	ctx = logger.WithContext(ctx, logger.UserIDKey, ev.UserID)
	ctx = service.WithWorkflow(ctx, service.WorkflowWebhookReply)

	ctx, span := tracer.Start(ctx, "dispatch.Handle")
	defer func() { tracer.End(span, err) }()

	start := time.Now()
	status := "handled"
	defer func() {
		if err != nil {
			status = "failed"
		}
		metrics.WebhookEventsTotal.WithLabelValues(string(ev.Type), status).Inc()
		metrics.EventHandleDuration.WithLabelValues(string(ev.Type)).Observe(time.Since(start).Seconds())
	}()

	if !d.firstSeen(ctx, ev.ID) {
		status = "duplicate"
		logger.Info(ctx, "duplicate event dropped")
		return nil
	}
	if ev.ReplyToken == "" || ev.Type == EventOther || ev.Type == "" {
		status = "ignored"
		return nil
	}

	if ev.Type != EventLocation && !d.allow(ctx, ev.UserID) {
		status = "limited"
		return d.reply(ctx, ev, TextReply(MsgRateLimited))
	}

	switch ev.Type {
	case EventText:
		logger.Info(ctx, "received text message", "length", len([]rune(ev.Text)))
		return d.reply(ctx, ev, d.answer(ctx, ev.Text))
	case EventAudio:
		return d.handleAudio(ctx, ev)
	case EventLocation:
		return d.handleLocation(ctx, ev)
	}
	status = "ignored"
	return nil
}

// answer 检索失败时回复错误文案；卡片转换失败时回复原文
func (d *Dispatcher) answer(ctx context.Context, question string) Reply {
	ans, err := d.pipeline.Answer(ctx, question)
	if err != nil {
		logger.Error(ctx, "answer question failed", err)
		return TextReply(MsgProcessingError)
	}
	return AnswerReply(ans)
}

// AnswerReply 把问答结果转换为回复消息
func AnswerReply(ans *Answer) Reply {
	if ans.Card == nil {
		return TextReply(ans.Raw)
	}
	return Reply{Card: ans.Card, AltText: card.AltText(ans.Response), Text: ans.Raw}
}

func (d *Dispatcher) handleAudio(ctx context.Context, ev Event) error {
	text, err := d.transcribe(ctx, ev.MessageID)
	metrics.SpeechTranscriptionTotal.WithLabelValues(metrics.StatusLabel(err)).Inc()
	if err != nil {
		logger.Error(ctx, "transcribe audio failed", err, "message_id", ev.MessageID)
		return d.reply(ctx, ev, TextReply(MsgTranscribeFailed))
	}
	logger.Info(ctx, "audio transcribed", "length", len([]rune(text)))
	return d.reply(ctx, ev, TextReply(TranscriptPrefix+text), d.answer(ctx, text))
}

func (d *Dispatcher) transcribe(ctx context.Context, messageID string) (string, error) {
	if d.fetcher == nil || d.transcriber == nil {
		return "", errors.ErrTranscriptionFailed.WithDetail("audio messages are not enabled")
	}
	body, err := d.fetcher.Fetch(ctx, messageID)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeContentFetch, "fetch audio content")
	}
	defer body.Close()

	text, err := d.transcriber.Transcribe(ctx, body, audioDefaultFilename)
	if err != nil {
		return "", errors.ErrTranscriptionFailed.WithError(err)
	}
	if text == "" {
		return "", errors.ErrTranscriptionFailed.WithDetail("empty transcript")
	}
	return text, nil
}

func (d *Dispatcher) handleLocation(ctx context.Context, ev Event) error {
	if d.locator == nil {
		return nil
	}
	search := d.locator.Locate(ev.Title, ev.Address, ev.Latitude, ev.Longitude)
	return d.reply(ctx, ev, Reply{Card: card.BuildClinicCard(search), AltText: "附近診所"})
}

func (d *Dispatcher) reply(ctx context.Context, ev Event, replies ...Reply) error {
	if err := d.messenger.Reply(ctx, ev.ReplyToken, replies...); err != nil {
		return errors.Wrap(err, errors.CodeReplyFailed, "send reply")
	}
	return nil
}

// firstSeen Redis 不可用时放行
func (d *Dispatcher) firstSeen(ctx context.Context, id string) bool {
	if d.deduper == nil || id == "" {
		return true
	}
	ok, err := d.deduper.FirstSeen(ctx, id)
	if err != nil {
		logger.Warn(ctx, "event dedup check failed", "error", err.Error())
		return true
	}
	return ok
}

func (d *Dispatcher) allow(ctx context.Context, userID string) bool {
	if d.limiter == nil || userID == "" {
		return true
	}
	ok, err := d.limiter.Allow(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "rate limit check failed", "error", err.Error())
		return true
	}
	return ok
}
