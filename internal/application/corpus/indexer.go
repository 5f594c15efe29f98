package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"golang.org/x/sync/errgroup"

	"symptom-advisor-bot/internal/domain/entity"
	"symptom-advisor-bot/pkg/errors"
	"symptom-advisor-bot/pkg/logger"
	"symptom-advisor-bot/pkg/metrics"
)

const (
	defaultChunkSize   = 300
	defaultMinDocChars = 50
	defaultConcurrency = 4
)

// IndexSink 索引产物的写入端（本地文件或 Milvus）
type IndexSink interface {
	Save(ctx context.Context, snap *entity.IndexSnapshot) error
}

// Options 索引构建参数
type Options struct {
	Model       string
	ChunkSize   int
	MinDocChars int
	Concurrency int
}

// Indexer 语料索引构建器
type Indexer struct {
	embedder embedding.Embedder
	sink     IndexSink

	model       string
	chunkSize   int
	minDocChars int
	concurrency int
}

// NewIndexer 创建索引构建器，sink 为 nil 时只能调用 Build
func NewIndexer(embedder embedding.Embedder, sink IndexSink, opts Options) *Indexer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.MinDocChars <= 0 {
		opts.MinDocChars = defaultMinDocChars
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Indexer{
		embedder:    embedder,
		sink:        sink,
		model:       opts.Model,
		chunkSize:   opts.ChunkSize,
		minDocChars: opts.MinDocChars,
		concurrency: opts.Concurrency,
	}
}

// Run 构建索引并写入 sink；没有任何切片存活时不写入
func (i *Indexer) Run(ctx context.Context, sourceDir string) (*entity.IndexSnapshot, error) {
	if i.sink == nil {
		return nil, fmt.Errorf("index sink is not configured")
	}
	snap, err := i.Build(ctx, sourceDir)
	if err != nil {
		return nil, err
	}
	if err := i.sink.Save(ctx, snap); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "save index")
	}
	logger.Info(ctx, "index saved", "chunks", snap.Len(), "dimension", snap.Dimension, "model", snap.Model)
	return snap, nil
}

// Build 读取、切分并向量化语料，返回单位化后的索引快照
func (i *Indexer) Build(ctx context.Context, sourceDir string) (*entity.IndexSnapshot, error) {
	docs, skipped, err := LoadDocuments(sourceDir, i.minDocChars)
	if err != nil {
		return nil, err
	}
	for _, name := range skipped {
		logger.Info(ctx, "document too short, skipped", "file", name, "min_chars", i.minDocChars)
	}

	var chunks []entity.Chunk
	for _, doc := range docs {
		for idx, part := range splitByRunes(doc.Content, i.chunkSize) {
			chunks = append(chunks, entity.Chunk{Filename: doc.Name, ChunkID: idx, Content: part})
		}
	}
	logger.Info(ctx, "corpus loaded", "documents", len(docs), "skipped", len(skipped), "chunks", len(chunks))

	vectors, err := i.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	snap := &entity.IndexSnapshot{Model: i.model, BuiltAt: time.Now().UTC()}
	for idx, vec := range vectors {
		if vec == nil {
			continue
		}
		if snap.Dimension == 0 {
			snap.Dimension = len(vec)
		}
		if len(vec) != snap.Dimension {
			return nil, errors.ErrDimensionMismatch.WithDetail(
				fmt.Sprintf("%s has dimension %d, want %d", chunks[idx], len(vec), snap.Dimension))
		}
		snap.Vectors = append(snap.Vectors, vec)
		snap.Chunks = append(snap.Chunks, chunks[idx])
	}

	if snap.Len() == 0 {
		return nil, errors.ErrCorpusEmpty.WithDetail(sourceDir)
	}
	return snap, nil
}

// embedChunks 并发向量化；结果按输入位置对齐，失败的切片位置为 nil
func (i *Indexer) embedChunks(ctx context.Context, chunks []entity.Chunk) ([][]float32, error) {
	out := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vec, err := i.embedOne(gctx, chunks[idx].Content)
			if err != nil {
				metrics.IndexerChunksTotal.WithLabelValues("skipped").Inc()
				logger.Error(gctx, "embedding chunk failed, skipped", err,
					"file", chunks[idx].Filename, "chunk_id", chunks[idx].ChunkID)
				return nil
			}
			metrics.IndexerChunksTotal.WithLabelValues("embedded").Inc()
			out[idx] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (i *Indexer) embedOne(ctx context.Context, text string) ([]float32, error) {
	v64, err := i.embedder.EmbedStrings(ctx, []string{text})
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
