package milvus

import (
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// CollectionDiseaseChunks 疾病切片集合
const CollectionDiseaseChunks = "disease_chunks"

// 字段名
const (
	fieldPosition = "position"
	fieldVector   = "vector"
	fieldFilename = "filename"
	fieldChunkID  = "chunk_id"
	fieldContent  = "content"
)

// descriptionPrefix 集合描述中记录构建所用的 embedding 模型
const descriptionPrefix = "disease chunks; model="

// DiseaseChunksSchema 疾病切片 Collection Schema；position 即切片在语料中的顺序
func DiseaseChunksSchema(name string, dim int, model string) *entity.Schema {
	return &entity.Schema{
		CollectionName: name,
		Description:    descriptionPrefix + model,
		Fields: []*entity.Field{
			{
				Name:       fieldPosition,
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     false,
			},
			{
				Name:     fieldVector,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(dim),
				},
			},
			{
				Name:     fieldFilename,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     fieldChunkID,
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     fieldContent,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
		},
	}
}

// modelFromDescription 解析集合描述中的模型名
func modelFromDescription(desc string) (string, bool) {
	if !strings.HasPrefix(desc, descriptionPrefix) {
		return "", false
	}
	return strings.TrimPrefix(desc, descriptionPrefix), true
}

// dimensionFromSchema 读取向量字段维度
func dimensionFromSchema(s *entity.Schema) int {
	if s == nil {
		return 0
	}
	for _, f := range s.Fields {
		if f.Name == fieldVector {
			dim, _ := strconv.Atoi(f.TypeParams["dim"])
			return dim
		}
	}
	return 0
}
