package entity

import (
	"fmt"
	"math"
	"time"
)

// Chunk 语料切片，索引构建后不可变
type Chunk struct {
	Filename string `json:"filename" yaml:"filename"`
	ChunkID  int    `json:"chunk_id" yaml:"chunk_id"` // 文件内从 0 开始
	Content  string `json:"content" yaml:"content"`
}

// String 返回 filename#chunk_id
func (c Chunk) String() string {
	return fmt.Sprintf("%s#%d", c.Filename, c.ChunkID)
}

// IndexSnapshot 一次构建得到的索引快照，Vectors 与 Chunks 按位置对齐
type IndexSnapshot struct {
	Model     string      `json:"model"`
	Dimension int         `json:"dimension"`
	Vectors   [][]float32 `json:"-"`
	Chunks    []Chunk     `json:"chunks"`
	BuiltAt   time.Time   `json:"built_at"`
}

// Len 返回索引条目数
func (s *IndexSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Chunks)
}

// Validate 校验快照内部一致性：条目对齐、维度一致、单位向量
func (s *IndexSnapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if len(s.Vectors) != len(s.Chunks) {
		return fmt.Errorf("vectors (%d) and chunks (%d) are not aligned", len(s.Vectors), len(s.Chunks))
	}
	for i, v := range s.Vectors {
		if len(v) != s.Dimension {
			return fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), s.Dimension)
		}
		if n := L2Norm(v); math.Abs(n-1) > 1e-3 {
			return fmt.Errorf("vector %d is not unit length (norm=%f)", i, n)
		}
	}
	return nil
}

// L2Norm 计算向量的欧氏范数
func L2Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize 返回单位化后的新向量；零向量或含 NaN/Inf 时返回 false
func Normalize(v []float32) ([]float32, bool) {
	n := L2Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, false
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out, true
}

// Float64To32 将 eino 返回的 float64 向量转换为 float32
func Float64To32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
