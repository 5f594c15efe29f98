package retrieval

import (
	"context"

	"symptom-advisor-bot/internal/domain/entity"
)

// VectorIndex 定义应用层对“相似度索引”的最小依赖（port）。
// 由基础设施层提供具体实现（本地 flat 索引或 Milvus）。
type VectorIndex interface {
	// Search 返回距离最近的至多 k 个条目，按距离升序，距离相同时位置靠前者优先
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	// Len 返回索引条目数
	Len() int
	// Backend 用于指标与日志的后端名称
	Backend() string
}

// Hit 一条检索结果
type Hit struct {
	Chunk entity.Chunk `json:"chunk"`
	// Distance 单位向量间的欧氏距离平方，取值 [0, 4]
	Distance float32 `json:"distance"`
	// Position 条目在索引中的位置
	Position int `json:"position"`
}

// QueryCache 查询向量缓存；缓存不可用时实现方应直接调用 load
type QueryCache interface {
	GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) ([]float32, error)) ([]float32, error)
}
