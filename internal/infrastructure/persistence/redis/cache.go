package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"symptom-advisor-bot/internal/application/retrieval"
	"symptom-advisor-bot/pkg/logger"
	"symptom-advisor-bot/pkg/metrics"
)

// EmbeddingCache 查询向量的 Read-Through 缓存
type EmbeddingCache struct {
	client *Client
	ttl    time.Duration
	group  singleflight.Group
}

var _ retrieval.QueryCache = (*EmbeddingCache)(nil)

// NewEmbeddingCache 创建缓存，ttl <= 0 时键不过期
func NewEmbeddingCache(client *Client, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{client: client, ttl: ttl}
}

// GetOrLoad 命中时直接返回；未命中时用 singleflight 合并并发加载。
// Redis 故障不影响检索，直接调用 load。
func (c *EmbeddingCache) GetOrLoad(ctx context.Context, key string, load func(context.Context) ([]float32, error)) ([]float32, error) {
	key = c.client.Key(key)
	ctx, span := tracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	if vec, ok := c.get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.EmbeddingCallTotal.WithLabelValues("cache", "success").Inc()
		return vec, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	result, err, shared := c.group.Do(key, func() (any, error) {
		if vec, ok := c.get(ctx, key); ok {
			return vec, nil
		}
		vec, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, vec)
		return vec, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.([]float32), nil
}

func (c *EmbeddingCache) get(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !IsNil(err) {
			logger.Warn(ctx, "embedding cache read failed", "error", err.Error())
		}
		return nil, false
	}
	vec, err := decodeVector(raw)
	if err != nil {
		logger.Warn(ctx, "embedding cache entry corrupted", "key", key, "error", err.Error())
		return nil, false
	}
	return vec, true
}

func (c *EmbeddingCache) set(ctx context.Context, key string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.client.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Warn(ctx, "embedding cache write failed", "error", err.Error())
	}
}

func decodeVector(raw []byte) ([]float32, error) {
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty vector")
	}
	return vec, nil
}
