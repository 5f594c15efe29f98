package dto

import (
	"encoding/json"

	"symptom-advisor-bot/internal/application/dispatch"
)

// TestGPTRequest /test-gpt 请求体；字段缺失时返回 400
type TestGPTRequest struct {
	Paragraph *string `json:"paragraph"`
	Question  *string `json:"question"`
}

// TestGPTResponse /test-gpt 响应体
type TestGPTResponse struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}

// AdviceRequest /v1/advice 请求体
type AdviceRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k" binding:"omitempty,min=1,max=20"`
}

// RetrievedChunk 检索命中
type RetrievedChunk struct {
	Filename string  `json:"filename"`
	ChunkID  int     `json:"chunk_id"`
	Distance float32 `json:"distance"`
	Content  string  `json:"content"`
}

// AdviceResponse /v1/advice 响应数据
type AdviceResponse struct {
	Question string           `json:"question"`
	Chunks   []RetrievedChunk `json:"chunks"`
	Raw      string           `json:"raw"`
	Type     string           `json:"type,omitempty"`
	AltText  string           `json:"alt_text,omitempty"`
	Card     json.RawMessage  `json:"card,omitempty"`
}

// NewAdviceResponse 从问答结果构建响应
func NewAdviceResponse(ans *dispatch.Answer) (*AdviceResponse, error) {
	resp := &AdviceResponse{
		Question: ans.Question,
		Chunks:   make([]RetrievedChunk, 0, len(ans.Hits)),
		Raw:      ans.Raw,
	}
	for _, h := range ans.Hits {
		resp.Chunks = append(resp.Chunks, RetrievedChunk{
			Filename: h.Chunk.Filename,
			ChunkID:  h.Chunk.ChunkID,
			Distance: h.Distance,
			Content:  h.Chunk.Content,
		})
	}
	if ans.Response != nil {
		resp.Type = string(ans.Response.Kind)
	}
	if ans.Card != nil {
		raw, err := ans.Card.JSON()
		if err != nil {
			return nil, err
		}
		resp.Card = raw
		resp.AltText = dispatch.AnswerReply(ans).AltText
	}
	return resp, nil
}
