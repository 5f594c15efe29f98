// Package retrieval 提供症状问题到疾病资料切片的语义检索
package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel/attribute"

	"symptom-advisor-bot/internal/domain/entity"
	"symptom-advisor-bot/pkg/logger"
	"symptom-advisor-bot/pkg/metrics"
	"symptom-advisor-bot/pkg/tracer"
)

// DefaultTopK 未指定 k 时返回的切片数
const DefaultTopK = 3

// Retriever 语义检索器，构建后只读，可并发调用
type Retriever struct {
	embedder embedding.Embedder
	index    VectorIndex
	cache    QueryCache
	model    string
	topK     int
}

// Option 检索器选项
type Option func(*Retriever)

// WithQueryCache 启用查询向量缓存
func WithQueryCache(c QueryCache) Option {
	return func(r *Retriever) { r.cache = c }
}

// WithDefaultTopK 覆盖默认 k
func WithDefaultTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// NewRetriever 创建检索器；model 必须与构建索引时使用的 embedding 模型一致
func NewRetriever(embedder embedding.Embedder, index VectorIndex, model string, opts ...Option) *Retriever {
	r := &Retriever{
		embedder: embedder,
		index:    index,
		model:    model,
		topK:     DefaultTopK,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Size 返回索引条目数
func (r *Retriever) Size() int {
	if r == nil || r.index == nil {
		return 0
	}
	return r.index.Len()
}

// Retrieve 返回与问题最相近的切片正文，按距离升序
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]string, error) {
	hits, err := r.RetrieveChunks(ctx, question, k)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Chunk.Content
	}
	return out, nil
}

// RetrieveChunks 返回完整的检索结果（切片元数据与距离）
func (r *Retriever) RetrieveChunks(ctx context.Context, question string, k int) (hits []Hit, err error) {
	if k <= 0 {
		k = r.topK
	}

	ctx, span := tracer.Start(ctx, "retrieval.Retrieve")
	span.SetAttributes(attribute.Int("retrieval.k", k), attribute.String("retrieval.backend", r.index.Backend()))
	defer func() { tracer.End(span, err) }()

	start := time.Now()
	defer func() {
		metrics.RetrievalDuration.WithLabelValues(r.index.Backend()).Observe(time.Since(start).Seconds())
		metrics.RetrievalResults.Observe(float64(len(hits)))
	}()

	question = strings.TrimSpace(question)
	if r.index.Len() == 0 || question == "" {
		return []Hit{}, nil
	}

	vec, err := r.embedQuery(ctx, question)
	if err != nil {
		return nil, ErrRetrievalFailed.WithError(err)
	}

	hits, err = r.index.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "retrieval done", "k", k, "hits", len(hits), "elapsed_ms", time.Since(start).Milliseconds())
	return hits, nil
}

func (r *Retriever) embedQuery(ctx context.Context, question string) ([]float32, error) {
	if r.cache == nil {
		return r.embed(ctx, question)
	}
	return r.cache.GetOrLoad(ctx, r.cacheKey(question), func(ctx context.Context) ([]float32, error) {
		return r.embed(ctx, question)
	})
}

// embed 与索引构建使用相同的单位化方式
func (r *Retriever) embed(ctx context.Context, question string) ([]float32, error) {
	v64, err := r.embedder.EmbedStrings(ctx, []string{question})
	metrics.EmbeddingCallTotal.WithLabelValues("api", metrics.StatusLabel(err)).Inc()
	if err != nil {
		return nil, err
	}
	if len(v64) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	vec, ok := entity.Normalize(entity.Float64To32(v64[0]))
	if !ok {
		return nil, fmt.Errorf("embedding is a zero vector")
	}
	return vec, nil
}

func (r *Retriever) cacheKey(question string) string {
	sum := sha256.Sum256([]byte(question))
	return "embedding:" + r.model + ":" + hex.EncodeToString(sum[:])
}
