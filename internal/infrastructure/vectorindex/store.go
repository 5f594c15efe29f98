package vectorindex

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"symptom-advisor-bot/internal/domain/entity"
	"symptom-advisor-bot/pkg/errors"
)

const indexFormatVersion = 1

// indexFile 向量文件的 gob 结构
type indexFile struct {
	Version   int
	Model     string
	Dimension int
	Count     int
	Vectors   [][]float32
	BuiltAt   time.Time
}

// FileStore 以两个对齐文件保存索引：向量（gob）与切片元数据（JSON）
type FileStore struct {
	indexPath    string
	metadataPath string
}

// NewFileStore 创建文件存储
func NewFileStore(indexPath, metadataPath string) *FileStore {
	return &FileStore{indexPath: indexPath, metadataPath: metadataPath}
}

// Paths 返回两个产物的路径
func (s *FileStore) Paths() (indexPath, metadataPath string) {
	return s.indexPath, s.metadataPath
}

// Save 原子写入两个产物（先写临时文件再 rename）
func (s *FileStore) Save(_ context.Context, snap *entity.IndexSnapshot) error {
	if err := snap.Validate(); err != nil {
		return errors.ErrIndexCorrupted.WithError(err)
	}

	idx := indexFile{
		Version:   indexFormatVersion,
		Model:     snap.Model,
		Dimension: snap.Dimension,
		Count:     snap.Len(),
		Vectors:   snap.Vectors,
		BuiltAt:   snap.BuiltAt,
	}
	if err := writeAtomic(s.indexPath, func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(&idx)
	}); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	if err := writeAtomic(s.metadataPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Chunks)
	}); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Load 读取并校验两个产物；expectedModel 非空时必须与构建模型一致
func (s *FileStore) Load(expectedModel string) (*entity.IndexSnapshot, error) {
	var idx indexFile
	if err := readFile(s.indexPath, func(r io.Reader) error {
		return gob.NewDecoder(r).Decode(&idx)
	}); err != nil {
		return nil, err
	}

	var chunks []entity.Chunk
	if err := readFile(s.metadataPath, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&chunks)
	}); err != nil {
		return nil, err
	}

	if idx.Version != indexFormatVersion {
		return nil, errors.ErrIndexCorrupted.WithDetail(fmt.Sprintf("unsupported index version %d", idx.Version))
	}
	if idx.Count != len(idx.Vectors) || len(idx.Vectors) != len(chunks) {
		return nil, errors.ErrIndexCorrupted.WithDetail(
			fmt.Sprintf("index has %d vectors (header %d), metadata has %d chunks", len(idx.Vectors), idx.Count, len(chunks)))
	}
	if expectedModel != "" && idx.Model != expectedModel {
		return nil, errors.ErrIndexMismatch.WithDetail(
			fmt.Sprintf("index built with %q, configured model is %q", idx.Model, expectedModel))
	}

	snap := &entity.IndexSnapshot{
		Model:     idx.Model,
		Dimension: idx.Dimension,
		Vectors:   idx.Vectors,
		Chunks:    chunks,
		BuiltAt:   idx.BuiltAt,
	}
	if err := snap.Validate(); err != nil {
		return nil, errors.ErrIndexCorrupted.WithError(err)
	}
	return snap, nil
}

func readFile(path string, decode func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.ErrIndexNotFound.WithDetail(path)
		}
		return errors.Wrap(err, errors.CodeStorageError, "open "+path)
	}
	defer f.Close()

	if err := decode(f); err != nil {
		return errors.ErrIndexCorrupted.WithDetail(path).WithError(err)
	}
	return nil
}

func writeAtomic(path string, encode func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
