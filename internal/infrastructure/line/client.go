// Package line 封装 LINE Messaging API：webhook 解析、回复与内容下载
package line

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"symptom-advisor-bot/internal/application/dispatch"
	"symptom-advisor-bot/internal/config"
	"symptom-advisor-bot/pkg/errors"
)

const (
	// maxReplyMessages 单次 reply 最多 5 条
	maxReplyMessages = 5
	maxTextRunes     = 5000
	maxAltTextRunes  = 400
)

// Client LINE 客户端，实现 dispatch.Messenger 与 dispatch.ContentFetcher
type Client struct {
	bot    *linebot.Client
	secret string
}

var (
	_ dispatch.Messenger      = (*Client)(nil)
	_ dispatch.ContentFetcher = (*Client)(nil)
)

// NewClient 创建 LINE 客户端
func NewClient(cfg *config.LINEConfig) (*Client, error) {
	var opts []linebot.ClientOption
	if cfg.APIEndpoint != "" {
		opts = append(opts, linebot.WithEndpointBase(cfg.APIEndpoint))
	}
	if cfg.DataEndpoint != "" {
		opts = append(opts, linebot.WithEndpointBaseData(cfg.DataEndpoint))
	}
	bot, err := linebot.New(cfg.ChannelSecret, cfg.ChannelAccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create line client: %w", err)
	}
	return &Client{bot: bot, secret: cfg.ChannelSecret}, nil
}

// ParseRequest 校验签名并解析事件；签名错误返回 ErrInvalidSignature
func (c *Client) ParseRequest(r *http.Request) ([]dispatch.Event, error) {
	events, err := linebot.ParseRequest(c.secret, r)
	if err != nil {
		if err == linebot.ErrInvalidSignature {
			return nil, errors.ErrInvalidSignature
		}
		return nil, errors.Wrap(err, errors.CodeInternalError, "parse webhook request")
	}
	out := make([]dispatch.Event, 0, len(events))
	for _, ev := range events {
		out = append(out, ToEvent(ev))
	}
	return out, nil
}

// Reply 发送回复；卡片转换失败时降级为文本
func (c *Client) Reply(ctx context.Context, replyToken string, replies ...dispatch.Reply) error {
	msgs := ToSendingMessages(replies)
	if len(msgs) == 0 {
		return nil
	}
	if _, err := c.bot.ReplyMessage(replyToken, msgs...).WithContext(ctx).Do(); err != nil {
		return err
	}
	return nil
}

// Fetch 下载消息内容（语音）
func (c *Client) Fetch(ctx context.Context, messageID string) (io.ReadCloser, error) {
	resp, err := c.bot.GetMessageContent(messageID).WithContext(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Content, nil
}

// ToEvent 把 SDK 事件转换为平台无关事件
func ToEvent(ev *linebot.Event) dispatch.Event {
	out := dispatch.Event{
		ID:         ev.WebhookEventID,
		Type:       dispatch.EventOther,
		ReplyToken: ev.ReplyToken,
	}
	if ev.Source != nil {
		out.UserID = ev.Source.UserID
	}
	if ev.Type != linebot.EventTypeMessage {
		return out
	}
	switch m := ev.Message.(type) {
	case *linebot.TextMessage:
		out.Type = dispatch.EventText
		out.MessageID = m.ID
		out.Text = m.Text
	case *linebot.AudioMessage:
		out.Type = dispatch.EventAudio
		out.MessageID = m.ID
	case *linebot.LocationMessage:
		out.Type = dispatch.EventLocation
		out.MessageID = m.ID
		out.Title = m.Title
		out.Address = m.Address
		out.Latitude = m.Latitude
		out.Longitude = m.Longitude
	}
	return out
}

// ToSendingMessages 转换为 SDK 消息，最多保留 5 条
func ToSendingMessages(replies []dispatch.Reply) []linebot.SendingMessage {
	msgs := make([]linebot.SendingMessage, 0, len(replies))
	for _, r := range replies {
		if len(msgs) == maxReplyMessages {
			break
		}
		if m := toSendingMessage(r); m != nil {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

func toSendingMessage(r dispatch.Reply) linebot.SendingMessage {
	if r.Card != nil {
		if container, err := flexContainer(r); err == nil {
			alt := r.AltText
			if alt == "" {
				alt = "醫療諮詢回覆"
			}
			return linebot.NewFlexMessage(truncate(alt, maxAltTextRunes), container)
		}
	}
	if r.Text == "" {
		return nil
	}
	return linebot.NewTextMessage(truncate(r.Text, maxTextRunes))
}

func flexContainer(r dispatch.Reply) (linebot.FlexContainer, error) {
	raw, err := r.Card.JSON()
	if err != nil {
		return nil, err
	}
	return linebot.UnmarshalFlexMessageJSON(raw)
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
