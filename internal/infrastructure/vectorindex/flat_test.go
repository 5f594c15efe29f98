package vectorindex

import (
	"context"
	"errors"
	"testing"

	"symptom-advisor-bot/internal/domain/entity"
	apperrors "symptom-advisor-bot/pkg/errors"
)

func testSnapshot() *entity.IndexSnapshot {
	return &entity.IndexSnapshot{
		Model:     "test-model",
		Dimension: 2,
		Vectors: [][]float32{
			{1, 0},
			{0, 1},
			{0.6, 0.8},
			{0, 1}, // 与位置 1 完全相同
		},
		Chunks: []entity.Chunk{
			{Filename: "a.md", ChunkID: 0, Content: "a0"},
			{Filename: "b.md", ChunkID: 0, Content: "b0"},
			{Filename: "c.md", ChunkID: 0, Content: "c0"},
			{Filename: "b.md", ChunkID: 1, Content: "b1"},
		},
	}
}

func TestFlatSearchOrdering(t *testing.T) {
	f, err := NewFlat(testSnapshot())
	if err != nil {
		t.Fatal(err)
	}

	hits, err := f.Search(context.Background(), []float32{0, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Fatalf("hits = %d", len(hits))
	}
	// 两个距离为 0 的条目按位置排序
	if hits[0].Position != 1 || hits[1].Position != 3 || hits[2].Position != 2 {
		t.Errorf("positions = %d,%d,%d", hits[0].Position, hits[1].Position, hits[2].Position)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Distance < hits[i-1].Distance {
			t.Errorf("distances not non-decreasing: %v", hits)
		}
	}
}

func TestFlatSearchCapsK(t *testing.T) {
	f, _ := NewFlat(testSnapshot())
	hits, err := f.Search(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 4 {
		t.Errorf("hits = %d, want all 4", len(hits))
	}
	if hits[0].Chunk.Content != "a0" || hits[0].Distance != 0 {
		t.Errorf("nearest = %+v", hits[0])
	}
}

func TestFlatEmptyAndMismatch(t *testing.T) {
	empty, err := NewFlat(nil)
	if err != nil {
		t.Fatal(err)
	}
	hits, err := empty.Search(context.Background(), []float32{1, 0, 0}, 3)
	if err != nil || len(hits) != 0 {
		t.Errorf("empty search = %v, %v", hits, err)
	}

	f, _ := NewFlat(testSnapshot())
	if _, err := f.Search(context.Background(), []float32{1, 0, 0}, 1); !errors.Is(err, apperrors.ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestNewFlatRejectsBadSnapshot(t *testing.T) {
	snap := testSnapshot()
	snap.Vectors[0] = []float32{3, 4}
	if _, err := NewFlat(snap); !errors.Is(err, apperrors.ErrIndexCorrupted) {
		t.Errorf("err = %v, want ErrIndexCorrupted", err)
	}
}
