package retrieval_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/embedding"

	"symptom-advisor-bot/internal/application/retrieval"
	"symptom-advisor-bot/internal/domain/entity"
	"symptom-advisor-bot/internal/infrastructure/vectorindex"
	apperrors "symptom-advisor-bot/pkg/errors"
)

// keywordEmbedder 以关键词出现次数作为向量分量
type keywordEmbedder struct {
	keywords []string
	err      error

	mu    sync.Mutex
	calls int
}

func (e *keywordEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		vec := make([]float64, len(e.keywords)+1)
		for j, kw := range e.keywords {
			vec[j] = float64(strings.Count(t, kw))
		}
		vec[len(e.keywords)] = 0.1
		out[i] = vec
	}
	return out, nil
}

func buildIndex(t *testing.T, emb embedding.Embedder, chunks []entity.Chunk) *vectorindex.Flat {
	t.Helper()
	snap := &entity.IndexSnapshot{Model: "kw"}
	for _, c := range chunks {
		v64, err := emb.EmbedStrings(context.Background(), []string{c.Content})
		if err != nil {
			t.Fatal(err)
		}
		vec, ok := entity.Normalize(entity.Float64To32(v64[0]))
		if !ok {
			t.Fatal("zero vector")
		}
		snap.Dimension = len(vec)
		snap.Vectors = append(snap.Vectors, vec)
		snap.Chunks = append(snap.Chunks, c)
	}
	idx, err := vectorindex.NewFlat(snap)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

var corpus = []entity.Chunk{
	{Filename: "flu.md", ChunkID: 0, Content: "流感會發燒、咳嗽、全身痠痛"},
	{Filename: "diabetes.md", ChunkID: 0, Content: "糖尿病症狀包括多尿、多飲、很渴"},
	{Filename: "cold.md", ChunkID: 0, Content: "感冒會咳嗽、流鼻水"},
	{Filename: "gout.md", ChunkID: 0, Content: "痛風關節紅腫"},
}

func TestRetrieveOrdersByDistance(t *testing.T) {
	emb := &keywordEmbedder{keywords: []string{"渴", "多", "咳嗽", "發燒"}}
	r := retrieval.NewRetriever(emb, buildIndex(t, emb, corpus), "kw")

	got, err := r.Retrieve(context.Background(), "我一直很渴而且多尿", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != retrieval.DefaultTopK {
		t.Fatalf("results = %d, want %d", len(got), retrieval.DefaultTopK)
	}
	if !strings.Contains(got[0], "糖尿病") {
		t.Errorf("top result = %q", got[0])
	}

	hits, err := r.RetrieveChunks(context.Background(), "咳嗽", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != len(corpus) {
		t.Errorf("k above corpus size returned %d hits", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Distance < hits[i-1].Distance {
			t.Fatalf("hits not ordered: %+v", hits)
		}
	}
	if hits[0].Chunk.Filename != "cold.md" {
		t.Errorf("top hit = %v", hits[0].Chunk)
	}
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	emb := &keywordEmbedder{keywords: []string{"渴"}}
	empty, err := vectorindex.NewFlat(nil)
	if err != nil {
		t.Fatal(err)
	}
	r := retrieval.NewRetriever(emb, empty, "kw")

	got, err := r.Retrieve(context.Background(), "無關問題", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times for empty corpus", emb.calls)
	}
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	good := &keywordEmbedder{keywords: []string{"渴"}}
	idx := buildIndex(t, good, corpus)

	bad := &keywordEmbedder{keywords: []string{"渴"}, err: errors.New("rate limited")}
	r := retrieval.NewRetriever(bad, idx, "kw")

	_, err := r.Retrieve(context.Background(), "很渴", 3)
	if !errors.Is(err, apperrors.ErrRetrievalFailed) {
		t.Fatalf("err = %v, want ErrRetrievalFailed", err)
	}
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]float32
	keys []string
}

func (c *mapCache) GetOrLoad(ctx context.Context, key string, load func(context.Context) ([]float32, error)) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.data[key] = v
	return v, nil
}

func TestRetrieveUsesQueryCache(t *testing.T) {
	emb := &keywordEmbedder{keywords: []string{"渴", "多", "咳嗽", "發燒"}}
	idx := buildIndex(t, emb, corpus)
	before := emb.calls

	cache := &mapCache{data: map[string][]float32{}}
	r := retrieval.NewRetriever(emb, idx, "kw", retrieval.WithQueryCache(cache), retrieval.WithDefaultTopK(1))

	for i := 0; i < 3; i++ {
		got, err := r.Retrieve(context.Background(), "發燒咳嗽", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Fatalf("default k override ignored: %d results", len(got))
		}
	}
	if emb.calls-before != 1 {
		t.Errorf("embedder called %d times, want 1", emb.calls-before)
	}
	if !strings.HasPrefix(cache.keys[0], "embedding:kw:") {
		t.Errorf("cache key = %q", cache.keys[0])
	}
}
