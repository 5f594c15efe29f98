// Package advisor 基于检索到的疾病资料调用大模型生成结构化医疗建议
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"symptom-advisor-bot/internal/domain/service"
	"symptom-advisor-bot/pkg/logger"
)

// FallbackAnswer 模型调用失败时返回的固定文案
const FallbackAnswer = "抱歉，我現在無法回答這個問題。"

const (
	defaultTemperature float32 = 0.7
	defaultMaxTokens           = 500
)

// ChatModelFactory 定义对 LLM ChatModel 的最小依赖（port）。
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}

// Options 生成参数
type Options struct {
	// Provider 为空时使用工厂的默认提供商
	Provider    string
	Temperature float32
	MaxTokens   int
}

// Generator 医疗建议生成器
type Generator struct {
	factory   ChatModelFactory
	prompts   *PromptRegistry
	provider  string
	temp      float32
	maxTokens int
}

// NewGenerator 创建生成器
func NewGenerator(factory ChatModelFactory, opts Options) *Generator {
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	return &Generator{
		factory:   factory,
		prompts:   NewPromptRegistry(),
		provider:  opts.Provider,
		temp:      opts.Temperature,
		maxTokens: opts.MaxTokens,
	}
}

// JoinContext 以空行拼接检索到的切片
func JoinContext(chunks []string) string {
	return strings.Join(chunks, "\n\n")
}

// Generate 返回模型原始输出；任何失败都降级为 FallbackAnswer，不返回错误。
// ctx 中已有 workflow 时沿用，否则记为 advice_generate。
func (g *Generator) Generate(ctx context.Context, paragraph, question string) string {
	workflow := service.WorkflowFromContext(ctx)
	if workflow == "unknown" {
		workflow = service.WorkflowAdviceGenerate
	}
	ctx = service.WithWorkflowProvider(ctx, workflow, g.provider)

	out, err := g.generate(ctx, paragraph, question)
	if err != nil {
		logger.Error(ctx, "generate medical advice failed", err, "workflow", workflow)
		return FallbackAnswer
	}
	return out
}

func (g *Generator) generate(ctx context.Context, paragraph, question string) (string, error) {
	if g.factory == nil {
		return "", fmt.Errorf("llm factory not configured")
	}
	msgs, err := g.Messages(ctx, paragraph, question)
	if err != nil {
		return "", err
	}
	chatModel, err := g.factory.Get(ctx, g.provider)
	if err != nil {
		return "", err
	}

	outMsg, err := chatModel.Generate(ctx, msgs,
		model.WithTemperature(g.temp),
		model.WithMaxTokens(g.maxTokens),
	)
	if err != nil {
		return "", err
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return "", fmt.Errorf("empty llm response")
	}
	return outMsg.Content, nil
}

// Messages 渲染 system 与 user 两段消息
func (g *Generator) Messages(ctx context.Context, paragraph, question string) ([]*schema.Message, error) {
	tpl, err := g.prompts.ChatTemplate(PromptMedicalAdvisorV1)
	if err != nil {
		return nil, err
	}
	return tpl.Format(ctx, map[string]any{
		"paragraph": paragraph,
		"question":  question,
	})
}
