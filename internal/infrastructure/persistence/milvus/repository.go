package milvus

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"symptom-advisor-bot/internal/application/corpus"
	"symptom-advisor-bot/internal/application/retrieval"
	domain "symptom-advisor-bot/internal/domain/entity"
	"symptom-advisor-bot/pkg/errors"
	"symptom-advisor-bot/pkg/logger"
	"symptom-advisor-bot/pkg/metrics"
)

// Repository 疾病切片向量仓储，同时充当索引写入端与检索端
type Repository struct {
	client *Client

	mu    sync.RWMutex
	count int
	dim   int
}

// NewRepository 创建向量仓储
func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) ready() error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	return nil
}

func (r *Repository) collection() string {
	return r.client.CollectionName(CollectionDiseaseChunks)
}

// Backend 检索后端名称
func (r *Repository) Backend() string { return "milvus" }

// Len 已加载集合的条目数
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Save 全量重建集合：删除旧集合，按批插入，建 FLAT/L2 索引后加载
func (r *Repository) Save(ctx context.Context, snap *domain.IndexSnapshot) error {
	if err := r.ready(); err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return errors.ErrIndexCorrupted.WithError(err)
	}

	collName := r.collection()
	ctx, span := tracer.Start(ctx, "milvus.Save",
		trace.WithAttributes(
			attribute.String("collection", collName),
			attribute.Int("count", snap.Len()),
		))
	defer span.End()

	if err := r.dropIfExists(ctx, collName); err != nil {
		span.RecordError(err)
		return err
	}

	schema := DiseaseChunksSchema(collName, snap.Dimension, snap.Model)
	if err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}

	batch := r.client.insertBatchSize()
	for start := 0; start < snap.Len(); start += batch {
		end := min(start+batch, snap.Len())
		if err := r.insert(ctx, collName, snap, start, end); err != nil {
			span.RecordError(err)
			return err
		}
	}

	if err := r.client.milvus.Flush(ctx, collName, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to flush collection: %w", err)
	}

	idx, err := entity.NewIndexFlat(entity.L2)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := r.client.milvus.CreateIndex(ctx, collName, fieldVector, idx, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := r.client.milvus.LoadCollection(ctx, collName, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to load collection: %w", err)
	}

	r.mu.Lock()
	r.count, r.dim = snap.Len(), snap.Dimension
	r.mu.Unlock()

	logger.Info(ctx, "milvus collection rebuilt", "collection", collName, "count", snap.Len(), "dimension", snap.Dimension)
	return nil
}

func (r *Repository) dropIfExists(ctx context.Context, collName string) error {
	has, err := r.client.milvus.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !has {
		return nil
	}
	if err := r.client.milvus.DropCollection(ctx, collName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

func (r *Repository) insert(ctx context.Context, collName string, snap *domain.IndexSnapshot, start, end int) error {
	n := end - start
	positions := make([]int64, n)
	filenames := make([]string, n)
	chunkIDs := make([]int64, n)
	contents := make([]string, n)
	for i := 0; i < n; i++ {
		c := snap.Chunks[start+i]
		positions[i] = int64(start + i)
		filenames[i] = c.Filename
		chunkIDs[i] = int64(c.ChunkID)
		contents[i] = c.Content
	}

	_, err := r.client.milvus.Insert(ctx, collName, "",
		entity.NewColumnInt64(fieldPosition, positions),
		entity.NewColumnFloatVector(fieldVector, snap.Dimension, snap.Vectors[start:end]),
		entity.NewColumnVarChar(fieldFilename, filenames),
		entity.NewColumnInt64(fieldChunkID, chunkIDs),
		entity.NewColumnVarChar(fieldContent, contents),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunks [%d,%d): %w", start, end, err)
	}
	return nil
}

// Open 检查集合存在且与配置的模型一致，并加载到内存
func (r *Repository) Open(ctx context.Context, expectedModel string) error {
	if err := r.ready(); err != nil {
		return err
	}
	collName := r.collection()
	ctx, span := tracer.Start(ctx, "milvus.Open", trace.WithAttributes(attribute.String("collection", collName)))
	defer span.End()

	has, err := r.client.milvus.HasCollection(ctx, collName)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, errors.CodeVectorDBError, "check collection")
	}
	if !has {
		return errors.ErrIndexNotFound.WithDetail(collName)
	}

	coll, err := r.client.milvus.DescribeCollection(ctx, collName)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, errors.CodeVectorDBError, "describe collection")
	}
	model, ok := modelFromDescription(coll.Schema.Description)
	if !ok {
		return errors.ErrIndexCorrupted.WithDetail("collection description has no model: " + collName)
	}
	if expectedModel != "" && model != expectedModel {
		return errors.ErrIndexMismatch.WithDetail(
			fmt.Sprintf("collection built with %q, configured model is %q", model, expectedModel))
	}

	stats, err := r.client.milvus.GetCollectionStatistics(ctx, collName)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, errors.CodeVectorDBError, "collection statistics")
	}
	count, _ := strconv.Atoi(stats["row_count"])

	if err := r.client.milvus.LoadCollection(ctx, collName, false); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, errors.CodeVectorDBError, "load collection")
	}

	r.mu.Lock()
	r.count, r.dim = count, dimensionFromSchema(coll.Schema)
	r.mu.Unlock()
	return nil
}

// Search 返回 L2 距离最近的 k 个切片，距离相同时位置靠前者优先
func (r *Repository) Search(ctx context.Context, query []float32, k int) (hits []retrieval.Hit, err error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	count, dim := r.count, r.dim
	r.mu.RUnlock()
	if k <= 0 || count == 0 {
		return []retrieval.Hit{}, nil
	}
	if dim > 0 && len(query) != dim {
		return nil, errors.ErrDimensionMismatch.WithDetail(fmt.Sprintf("query has %d dimensions, index has %d", len(query), dim))
	}
	k = min(k, count)

	collName := r.collection()
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(attribute.String("collection", collName), attribute.Int("top_k", k)))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.MilvusSearchDuration.WithLabelValues(CollectionDiseaseChunks).Observe(time.Since(start).Seconds())
		metrics.MilvusSearchTotal.WithLabelValues(CollectionDiseaseChunks, metrics.StatusLabel(err)).Inc()
	}()

	sp, err := entity.NewIndexFlatSearchParam()
	if err != nil {
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := r.client.milvus.Search(ctx,
		collName,
		nil,
		"",
		[]string{fieldPosition, fieldFilename, fieldChunkID, fieldContent},
		[]entity.Vector{entity.FloatVector(query)},
		fieldVector,
		entity.L2,
		k,
		sp,
	)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeVectorDBError, "search")
	}

	hits = hitsFromResults(results)
	span.SetAttributes(attribute.Int("result_count", len(hits)))
	return hits, nil
}

// hitsFromResults 解析单查询结果并按 (距离, 位置) 排序
func hitsFromResults(results []client.SearchResult) []retrieval.Hit {
	hits := []retrieval.Hit{}
	for _, result := range results {
		posCol, _ := result.Fields.GetColumn(fieldPosition).(*entity.ColumnInt64)
		fileCol, _ := result.Fields.GetColumn(fieldFilename).(*entity.ColumnVarChar)
		idCol, _ := result.Fields.GetColumn(fieldChunkID).(*entity.ColumnInt64)
		textCol, _ := result.Fields.GetColumn(fieldContent).(*entity.ColumnVarChar)

		for i := 0; i < result.ResultCount; i++ {
			h := retrieval.Hit{Distance: result.Scores[i]}
			if posCol != nil {
				h.Position = int(posCol.Data()[i])
			}
			if fileCol != nil {
				h.Chunk.Filename = fileCol.Data()[i]
			}
			if idCol != nil {
				h.Chunk.ChunkID = int(idCol.Data()[i])
			}
			if textCol != nil {
				h.Chunk.Content = textCol.Data()[i]
			}
			hits = append(hits, h)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Position < hits[j].Position
	})
	return hits
}

var (
	_ retrieval.VectorIndex = (*Repository)(nil)
	_ corpus.IndexSink      = (*Repository)(nil)
)
