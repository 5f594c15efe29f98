//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"symptom-advisor-bot/internal/application/corpus"
	"symptom-advisor-bot/internal/config"
	"symptom-advisor-bot/internal/infrastructure/llm"
	"symptom-advisor-bot/internal/interfaces/http/router"
)

// InitializeApp 初始化 HTTP 服务
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		StorageSet,
		RetrievalSet,
		AdvisorSet,
		WebhookSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeChat 初始化终端问答
func InitializeChat(ctx context.Context, cfg *config.Config) (*Chat, func(), error) {
	wire.Build(
		StorageSet,
		RetrievalSet,
		AdvisorSet,
		wire.Struct(new(Chat), "*"),
	)
	return nil, nil, nil
}

// InitializeIndexer 初始化离线索引构建
func InitializeIndexer(ctx context.Context, cfg *config.Config) (*corpus.Indexer, func(), error) {
	wire.Build(
		ProvideMilvusClient,
		ProvideEmbedder,
		ProvideIndexSink,
		ProvideIndexer,
	)
	return nil, nil, nil
}

// StorageSet Redis 与 Milvus 客户端
var StorageSet = wire.NewSet(
	ProvideRedisClientOptional,
	ProvideMilvusClient,
)

// RetrievalSet 检索
var RetrievalSet = wire.NewSet(
	ProvideEmbedder,
	ProvideVectorIndex,
	ProvideRetriever,
)

// AdvisorSet 生成与流水线
var AdvisorSet = wire.NewSet(
	llm.NewEinoFactory,
	ProvideGenerator,
	ProvidePipeline,
)

// WebhookSet LINE 事件处理
var WebhookSet = wire.NewSet(
	ProvideLINEClient,
	ProvideDispatcher,
	ProvideWebhookHandler,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideAdviceHandler,
	ProvideIPLimiter,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
