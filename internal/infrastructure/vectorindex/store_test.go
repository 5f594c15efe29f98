package vectorindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	apperrors "symptom-advisor-bot/pkg/errors"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "index")
	return NewFileStore(filepath.Join(dir, "disease_index.gob"), filepath.Join(dir, "disease_metadata.json"))
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	snap := testSnapshot()
	snap.BuiltAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := store.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load("test-model")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded.Chunks, snap.Chunks) || !reflect.DeepEqual(loaded.Vectors, snap.Vectors) {
		t.Error("loaded snapshot differs")
	}
	if !loaded.BuiltAt.Equal(snap.BuiltAt) || loaded.Dimension != 2 {
		t.Errorf("header = %+v", loaded)
	}

	// 不应残留临时文件
	idx, _ := store.Paths()
	entries, _ := os.ReadDir(filepath.Dir(idx))
	if len(entries) != 2 {
		t.Errorf("dir has %d entries, want 2", len(entries))
	}
}

func TestFileStoreLoadErrors(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load(""); !errors.Is(err, apperrors.ErrIndexNotFound) {
		t.Fatalf("err = %v, want ErrIndexNotFound", err)
	}

	if err := store.Save(context.Background(), testSnapshot()); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load("text-embedding-3-small"); !errors.Is(err, apperrors.ErrIndexMismatch) {
		t.Errorf("err = %v, want ErrIndexMismatch", err)
	}

	_, meta := store.Paths()
	if err := os.WriteFile(meta, []byte(`[{"filename":"a.md","chunk_id":0,"content":"a0"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load("test-model"); !errors.Is(err, apperrors.ErrIndexCorrupted) {
		t.Errorf("err = %v, want ErrIndexCorrupted for misaligned metadata", err)
	}

	if err := os.WriteFile(meta, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load("test-model"); !errors.Is(err, apperrors.ErrIndexCorrupted) {
		t.Errorf("err = %v, want ErrIndexCorrupted for bad JSON", err)
	}
}
