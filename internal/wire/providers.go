// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"time"

	einoembedding "github.com/cloudwego/eino/components/embedding"

	"symptom-advisor-bot/internal/application/advisor"
	"symptom-advisor-bot/internal/application/corpus"
	"symptom-advisor-bot/internal/application/dispatch"
	"symptom-advisor-bot/internal/application/retrieval"
	"symptom-advisor-bot/internal/config"
	"symptom-advisor-bot/internal/infrastructure/clinic"
	infraembedding "symptom-advisor-bot/internal/infrastructure/embedding"
	"symptom-advisor-bot/internal/infrastructure/line"
	"symptom-advisor-bot/internal/infrastructure/llm"
	"symptom-advisor-bot/internal/infrastructure/persistence/milvus"
	"symptom-advisor-bot/internal/infrastructure/persistence/redis"
	"symptom-advisor-bot/internal/infrastructure/speech"
	"symptom-advisor-bot/internal/infrastructure/vectorindex"
	"symptom-advisor-bot/internal/interfaces/http/handler"
	"symptom-advisor-bot/internal/interfaces/http/middleware"
	"symptom-advisor-bot/internal/interfaces/http/router"
	"symptom-advisor-bot/pkg/logger"
	"symptom-advisor-bot/pkg/metrics"
)

// App HTTP 服务依赖
type App struct {
	Router    *router.Router
	Webhook   *handler.WebhookHandler
	Retriever *retrieval.Retriever
}

// Chat 终端问答与检索调试依赖
type Chat struct {
	Pipeline  *dispatch.Pipeline
	Retriever *retrieval.Retriever
}

// ProvideRedisClientOptional Redis 未启用或不可达时返回 nil，依赖方按放行处理
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, cache/dedup/rate limit disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMilvusClient 仅 milvus 后端需要；不可达时启动失败
func ProvideMilvusClient(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	if cfg.Vector.Backend != "milvus" {
		return nil, func() {}, nil
	}
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideEmbedder 提供 Embedder
func ProvideEmbedder(ctx context.Context, cfg *config.Config) (einoembedding.Embedder, error) {
	return infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
}

// ProvideVectorIndex 加载已构建的索引
func ProvideVectorIndex(ctx context.Context, cfg *config.Config, milvusClient *milvus.Client) (retrieval.VectorIndex, error) {
	if cfg.Vector.Backend == "milvus" {
		repo := milvus.NewRepository(milvusClient)
		if err := repo.Open(ctx, cfg.Embedding.Model); err != nil {
			return nil, err
		}
		logger.Info(ctx, "milvus index opened", "entries", repo.Len())
		metrics.IndexSize.Set(float64(repo.Len()))
		return repo, nil
	}

	indexPath, metadataPath := cfg.IndexPaths()
	snap, err := vectorindex.NewFileStore(indexPath, metadataPath).Load(cfg.Embedding.Model)
	if err != nil {
		return nil, err
	}
	flat, err := vectorindex.NewFlat(snap)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "flat index loaded", "entries", flat.Len(), "path", indexPath)
	metrics.IndexSize.Set(float64(flat.Len()))
	return flat, nil
}

// ProvideIndexSink 离线构建的写入端，与 vector.backend 一致
func ProvideIndexSink(cfg *config.Config, milvusClient *milvus.Client) corpus.IndexSink {
	if cfg.Vector.Backend == "milvus" {
		return milvus.NewRepository(milvusClient)
	}
	indexPath, metadataPath := cfg.IndexPaths()
	return vectorindex.NewFileStore(indexPath, metadataPath)
}

// ProvideIndexer 提供语料索引构建器
func ProvideIndexer(cfg *config.Config, embedder einoembedding.Embedder, sink corpus.IndexSink) *corpus.Indexer {
	return corpus.NewIndexer(embedder, sink, corpus.Options{
		Model:       cfg.Embedding.Model,
		ChunkSize:   cfg.Indexer.ChunkSize,
		MinDocChars: cfg.Indexer.MinDocChars,
		Concurrency: cfg.Indexer.Concurrency,
	})
}

// ProvideRetriever 提供检索器；Redis 可用且 cache_ttl > 0 时缓存查询向量
func ProvideRetriever(cfg *config.Config, embedder einoembedding.Embedder, index retrieval.VectorIndex, redisClient *redis.Client) *retrieval.Retriever {
	opts := []retrieval.Option{retrieval.WithDefaultTopK(cfg.Retrieval.TopK)}
	if redisClient != nil && cfg.Embedding.CacheTTL > 0 {
		opts = append(opts, retrieval.WithQueryCache(redis.NewEmbeddingCache(redisClient, cfg.Embedding.CacheTTL)))
	}
	return retrieval.NewRetriever(embedder, index, cfg.Embedding.Model, opts...)
}

// ProvideGenerator 提供建议生成器
func ProvideGenerator(cfg *config.Config, factory *llm.EinoFactory) *advisor.Generator {
	opts := advisor.Options{Provider: cfg.LLM.DefaultProvider}
	if p, ok := cfg.LLM.DefaultProviderConfig(); ok {
		opts.Temperature = float32(p.Temperature)
		opts.MaxTokens = p.MaxTokens
	}
	return advisor.NewGenerator(factory, opts)
}

// ProvidePipeline 提供问答流水线
func ProvidePipeline(cfg *config.Config, r *retrieval.Retriever, g *advisor.Generator) *dispatch.Pipeline {
	return dispatch.NewPipeline(r, g, cfg.Retrieval.TopK)
}

// ProvideLINEClient 提供 LINE 客户端
func ProvideLINEClient(cfg *config.Config) (*line.Client, error) {
	return line.NewClient(&cfg.LINE)
}

// ProvideDispatcher 组装事件路由；语音、去重与限流均为可选能力
func ProvideDispatcher(ctx context.Context, cfg *config.Config, p *dispatch.Pipeline, lineClient *line.Client, redisClient *redis.Client) (*dispatch.Dispatcher, error) {
	opts := []dispatch.Option{
		dispatch.WithClinicLocator(clinic.NewMapsLocator(&cfg.Clinic)),
	}

	if cfg.Speech.Enabled {
		whisper, err := speech.NewWhisper(&cfg.Speech)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dispatch.WithAudio(lineClient, whisper))
	} else {
		logger.Info(ctx, "speech transcription disabled")
	}

	if redisClient != nil {
		opts = append(opts, dispatch.WithDeduper(redis.NewEventDeduper(redisClient, cfg.LINE.DedupTTL)))
		if cfg.Security.RateLimit.Enabled {
			limiter := redis.NewUserLimiter(redis.NewRateLimiter(redisClient), cfg.Security.RateLimit.PerUserPerMinute, time.Minute)
			opts = append(opts, dispatch.WithUserLimiter(limiter))
		}
	}

	return dispatch.NewDispatcher(p, lineClient, opts...), nil
}

// ProvideWebhookHandler 提供 webhook 处理器
func ProvideWebhookHandler(cfg *config.Config, lineClient *line.Client, d *dispatch.Dispatcher) *handler.WebhookHandler {
	return handler.NewWebhookHandler(lineClient, d, cfg.LINE.AsyncEvents, cfg.LINE.EventTimeout)
}

// ProvideHealthHandler 已启用的外部依赖均纳入就绪检查
func ProvideHealthHandler(cfg *config.Config, r *retrieval.Retriever, redisClient *redis.Client, milvusClient *milvus.Client) *handler.HealthHandler {
	required := make(map[string]handler.HealthChecker)
	if redisClient != nil {
		required["redis"] = redisClient
	}
	if milvusClient != nil {
		required["milvus"] = milvusClient
	}
	return handler.NewHealthHandler(cfg.App.Version, cfg.Vector.Backend, r, required)
}

// ProvideAdviceHandler 提供调试接口处理器
func ProvideAdviceHandler(g *advisor.Generator, p *dispatch.Pipeline) *handler.AdviceHandler {
	return handler.NewAdviceHandler(g, p)
}

// ProvideIPLimiter 调试接口按 IP 限流，Redis 不可用时不限流
func ProvideIPLimiter(cfg *config.Config, redisClient *redis.Client) middleware.KeyLimiter {
	if redisClient == nil {
		return nil
	}
	return redis.NewIPLimiter(redis.NewRateLimiter(redisClient), cfg.Security.RateLimit.RequestsPerSecond)
}
