// Package dispatch 把聊天事件路由到检索、生成与卡片转换流水线
package dispatch

import (
	"context"
	"strings"

	"symptom-advisor-bot/internal/application/advisor"
	"symptom-advisor-bot/internal/application/card"
	"symptom-advisor-bot/internal/application/retrieval"
	"symptom-advisor-bot/internal/domain/entity"
	"symptom-advisor-bot/pkg/logger"
)

// ChunkRetriever 检索端口
type ChunkRetriever interface {
	RetrieveChunks(ctx context.Context, question string, k int) ([]retrieval.Hit, error)
}

// AdviceGenerator 生成端口，失败时返回兜底文案而非错误
type AdviceGenerator interface {
	Generate(ctx context.Context, paragraph, question string) string
}

// Answer 一次问答的完整结果
type Answer struct {
	Question string
	Hits     []retrieval.Hit
	Raw      string
	Response *entity.MedicalResponse
	// Card 为 nil 表示模型输出无法转换，应回复 Raw
	Card *card.Bubble
}

// Chunks 返回检索到的切片正文
func (a *Answer) Chunks() []string {
	out := make([]string, len(a.Hits))
	for i, h := range a.Hits {
		out[i] = h.Chunk.Content
	}
	return out
}

// Pipeline 检索 → 生成 → 转换
type Pipeline struct {
	retriever ChunkRetriever
	generator AdviceGenerator
	topK      int
}

// NewPipeline 创建流水线；topK <= 0 时交给检索器默认值
func NewPipeline(r ChunkRetriever, g AdviceGenerator, topK int) *Pipeline {
	return &Pipeline{retriever: r, generator: g, topK: topK}
}

// Answer 每个问题只检索一次
func (p *Pipeline) Answer(ctx context.Context, question string) (*Answer, error) {
	return p.AnswerK(ctx, question, p.topK)
}

// AnswerK 同 Answer，可覆盖 k
func (p *Pipeline) AnswerK(ctx context.Context, question string, k int) (*Answer, error) {
	question = strings.TrimSpace(question)

	hits, err := p.retriever.RetrieveChunks(ctx, question, k)
	if err != nil {
		return nil, err
	}
	ans := &Answer{Question: question, Hits: hits}
	logger.Info(ctx, "retrieved context", "chunks", len(hits))

	ans.Raw = p.generator.Generate(ctx, advisor.JoinContext(ans.Chunks()), question)
	ans.Card, ans.Response = card.ConvertResponse(ans.Raw)
	return ans, nil
}
