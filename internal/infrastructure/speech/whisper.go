// Package speech 提供语音转文字
package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"symptom-advisor-bot/internal/application/dispatch"
	"symptom-advisor-bot/internal/config"
)

// Whisper 调用 OpenAI 兼容的 /audio/transcriptions 接口
type Whisper struct {
	client   *openai.Client
	model    string
	language string
}

var _ dispatch.Transcriber = (*Whisper)(nil)

// NewWhisper 创建转写客户端
func NewWhisper(cfg *config.SpeechConfig) (*Whisper, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("speech api key is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{
		client:   openai.NewClientWithConfig(oc),
		model:    model,
		language: cfg.Language,
	}, nil
}

// Transcribe filename 的扩展名决定服务端识别的音频格式
func (w *Whisper) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		Reader:   audio,
		FilePath: filename,
		Language: w.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
