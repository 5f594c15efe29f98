package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"symptom-advisor-bot/internal/application/dispatch"
	"symptom-advisor-bot/internal/domain/service"
	"symptom-advisor-bot/internal/interfaces/http/dto"
	"symptom-advisor-bot/pkg/logger"
)

// Generator 直接调用生成器（不经过检索）
type Generator interface {
	Generate(ctx context.Context, paragraph, question string) string
}

// Answerer 完整问答流水线
type Answerer interface {
	AnswerK(ctx context.Context, question string, k int) (*dispatch.Answer, error)
}

// AdviceHandler 调试接口
type AdviceHandler struct {
	generator Generator
	pipeline  Answerer
}

// NewAdviceHandler 创建调试接口处理器
func NewAdviceHandler(g Generator, p Answerer) *AdviceHandler {
	return &AdviceHandler{generator: g, pipeline: p}
}

// TestGPT 用给定资料与问题直接调用模型
// @Summary 测试模型输出
// @Description 使用请求中的疾病资料与问题直接调用生成器，返回模型原始输出
// @Tags Debug
// @Accept json
// @Produce json
// @Param body body dto.TestGPTRequest true "资料与问题"
// @Success 200 {object} dto.TestGPTResponse
// @Failure 400 {object} map[string]string
// @Router /test-gpt [post]
func (h *AdviceHandler) TestGPT(c *gin.Context) {
	var req dto.TestGPTRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Paragraph == nil || req.Question == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide paragraph and question"})
		return
	}

	ctx := service.WithWorkflow(c.Request.Context(), service.WorkflowConnectivity)
	out := h.generator.Generate(ctx, *req.Paragraph, *req.Question)
	c.JSON(http.StatusOK, dto.TestGPTResponse{Status: "success", Response: out})
}

// Advice 走完整检索与生成流程
// @Summary 症状问答
// @Description 检索疾病资料、生成建议并返回卡片 JSON
// @Tags Advice
// @Accept json
// @Produce json
// @Param body body dto.AdviceRequest true "问题"
// @Success 200 {object} dto.Response[dto.AdviceResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/advice [post]
func (h *AdviceHandler) Advice(c *gin.Context) {
	var req dto.AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		dto.BadRequest(c, "question is required")
		return
	}

	ctx := service.WithWorkflow(c.Request.Context(), service.WorkflowAdviceAPI)
	ans, err := h.pipeline.AnswerK(ctx, req.Question, req.TopK)
	if err != nil {
		logger.Error(ctx, "advice pipeline failed", err)
		dto.FromError(c, err)
		return
	}

	resp, err := dto.NewAdviceResponse(ans)
	if err != nil {
		dto.InternalError(c, "failed to encode card")
		return
	}
	dto.Success(c, resp)
}
