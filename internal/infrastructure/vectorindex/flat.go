// Package vectorindex 提供进程内的精确相似度索引及其文件存储
package vectorindex

import (
	"context"
	"fmt"
	"sort"

	"symptom-advisor-bot/internal/application/retrieval"
	"symptom-advisor-bot/internal/domain/entity"
	"symptom-advisor-bot/pkg/errors"
)

// Flat 暴力扫描的 L2 索引，构建后只读
type Flat struct {
	snap *entity.IndexSnapshot
}

var _ retrieval.VectorIndex = (*Flat)(nil)

// NewFlat 基于快照创建索引；snap 为 nil 时视为空语料
func NewFlat(snap *entity.IndexSnapshot) (*Flat, error) {
	if snap == nil {
		return &Flat{snap: &entity.IndexSnapshot{}}, nil
	}
	if err := snap.Validate(); err != nil {
		return nil, errors.ErrIndexCorrupted.WithError(err)
	}
	return &Flat{snap: snap}, nil
}

// Len 返回条目数
func (f *Flat) Len() int { return f.snap.Len() }

// Backend 后端名称
func (f *Flat) Backend() string { return "flat" }

// Search 精确检索；k 超过条目数时返回全部
func (f *Flat) Search(_ context.Context, query []float32, k int) ([]retrieval.Hit, error) {
	n := f.snap.Len()
	if n == 0 || k <= 0 {
		return []retrieval.Hit{}, nil
	}
	if len(query) != f.snap.Dimension {
		return nil, errors.ErrDimensionMismatch.WithDetail(
			fmt.Sprintf("query has dimension %d, index has %d", len(query), f.snap.Dimension))
	}

	hits := make([]retrieval.Hit, n)
	for i, vec := range f.snap.Vectors {
		hits[i] = retrieval.Hit{
			Chunk:    f.snap.Chunks[i],
			Distance: squaredL2(query, vec),
			Position: i,
		}
	}
	// 稳定排序保证距离相同时位置靠前者优先
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Distance < hits[b].Distance })

	if k > n {
		k = n
	}
	return hits[:k:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
