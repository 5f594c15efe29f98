package redis

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// EventDeduper 用 SETNX 记录已处理的 webhook 事件
type EventDeduper struct {
	client *Client
	ttl    time.Duration
}

// NewEventDeduper 创建去重器
func NewEventDeduper(client *Client, ttl time.Duration) *EventDeduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &EventDeduper{client: client, ttl: ttl}
}

// FirstSeen 事件首次出现时返回 true
func (d *EventDeduper) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "dedup.FirstSeen")
	span.SetAttributes(attribute.String("webhook.event_id", eventID))
	defer span.End()

	ok, err := d.client.rdb.SetNX(ctx, d.client.Key("event", eventID), 1, d.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("dedup.first_seen", ok))
	return ok, nil
}
