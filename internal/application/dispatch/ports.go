package dispatch

import (
	"context"
	"io"

	"symptom-advisor-bot/internal/application/card"
)

// EventType 支持的事件类型
type EventType string

const (
	EventText     EventType = "text"
	EventAudio    EventType = "audio"
	EventLocation EventType = "location"
	EventOther    EventType = "other"
)

// Event 与平台无关的入站消息事件
type Event struct {
	ID         string
	Type       EventType
	ReplyToken string
	UserID     string

	Text      string
	MessageID string

	Title     string
	Address   string
	Latitude  float64
	Longitude float64
}

// Reply 出站消息；Card 非空时发送卡片，否则发送 Text
type Reply struct {
	Text    string
	Card    *card.Bubble
	AltText string
}

// TextReply 纯文本回复
func TextReply(s string) Reply { return Reply{Text: s} }

// Messenger 消息发送端口
type Messenger interface {
	Reply(ctx context.Context, replyToken string, replies ...Reply) error
}

// ContentFetcher 下载语音等二进制内容
type ContentFetcher interface {
	Fetch(ctx context.Context, messageID string) (io.ReadCloser, error)
}

// Transcriber 语音转文字
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// ClinicLocator 根据坐标生成诊所搜索信息
type ClinicLocator interface {
	Locate(title, address string, lat, lng float64) card.ClinicSearch
}

// EventDeduper 过滤平台重投的事件；首次出现返回 true
type EventDeduper interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
}

// UserLimiter 按用户限流
type UserLimiter interface {
	Allow(ctx context.Context, userID string) (bool, error)
}
