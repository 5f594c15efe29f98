package card

import (
	"context"

	"symptom-advisor-bot/internal/domain/entity"
	"symptom-advisor-bot/pkg/logger"
	"symptom-advisor-bot/pkg/metrics"
)

// Convert 解析模型输出并构建卡片；无法解析时返回 nil，由调用方回退为纯文本
func Convert(raw string) *Bubble {
	bubble, _ := ConvertResponse(raw)
	return bubble
}

// ConvertResponse 同 Convert，同时返回解析出的联合体
func ConvertResponse(raw string) (*Bubble, *entity.MedicalResponse) {
	resp, err := entity.ParseMedicalResponse(raw)
	if err != nil {
		metrics.CardConversionTotal.WithLabelValues("invalid").Inc()
		logger.Warn(context.Background(), "convert model output to card failed", "error", err.Error())
		return nil, nil
	}
	bubble := Build(resp)
	if bubble == nil {
		metrics.CardConversionTotal.WithLabelValues("invalid").Inc()
		return nil, resp
	}
	metrics.CardConversionTotal.WithLabelValues(string(resp.Kind)).Inc()
	return bubble, resp
}
