package llm

import (
	"context"
	"testing"

	"symptom-advisor-bot/internal/config"
)

func newTestFactory() *EinoFactory {
	return NewEinoFactory(&config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "openai",
			Providers: map[string]config.ProviderConfig{
				"openai": {APIKey: "sk-test", BaseURL: "http://127.0.0.1:1", Model: "gpt-3.5-turbo", MaxTokens: 500, Temperature: 0.7},
				"local":  {Model: "qwen"},
			},
		},
	})
}

func TestFactoryCachesModels(t *testing.T) {
	f := newTestFactory()
	a, err := f.Default(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.Get(context.Background(), "openai")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected cached model instance")
	}
}

func TestFactoryErrors(t *testing.T) {
	f := newTestFactory()
	if _, err := f.Get(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := f.Get(context.Background(), "local"); err == nil {
		t.Error("expected error for provider without api key")
	}
}

func TestFactoryModelName(t *testing.T) {
	f := newTestFactory()
	if got := f.ModelName(""); got != "gpt-3.5-turbo" {
		t.Errorf("ModelName = %q", got)
	}
	if got := f.Providers(); len(got) != 2 || got[0] != "local" {
		t.Errorf("Providers = %v", got)
	}
}
