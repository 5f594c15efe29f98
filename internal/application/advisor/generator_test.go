package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"symptom-advisor-bot/internal/domain/service"
)

type fakeChatModel struct {
	reply string
	err   error

	gotMsgs  []*schema.Message
	gotOpts  *model.Options
	workflow string
}

func (m *fakeChatModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.gotMsgs = msgs
	m.gotOpts = model.GetCommonOptions(&model.Options{}, opts...)
	m.workflow = service.WorkflowFromContext(ctx)
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

type fakeFactory struct {
	m   model.BaseChatModel
	err error

	gotName string
}

func (f *fakeFactory) Get(_ context.Context, name string) (model.BaseChatModel, error) {
	f.gotName = name
	if f.err != nil {
		return nil, f.err
	}
	return f.m, nil
}

func TestGenerateRendersPromptAndOptions(t *testing.T) {
	cm := &fakeChatModel{reply: `{"type":"matched","disease":"糖尿病"}`}
	f := &fakeFactory{m: cm}
	g := NewGenerator(f, Options{Provider: "openai"})

	got := g.Generate(context.Background(), "糖尿病介紹", "我一直很渴")
	if got != cm.reply {
		t.Fatalf("Generate = %q", got)
	}
	if f.gotName != "openai" {
		t.Errorf("provider = %q", f.gotName)
	}
	if len(cm.gotMsgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(cm.gotMsgs))
	}
	if cm.gotMsgs[0].Role != schema.System || cm.gotMsgs[1].Role != schema.User {
		t.Errorf("roles = %s,%s", cm.gotMsgs[0].Role, cm.gotMsgs[1].Role)
	}
	user := cm.gotMsgs[1].Content
	if !strings.Contains(user, "糖尿病介紹") || !strings.Contains(user, "我一直很渴") {
		t.Errorf("user message missing context or question: %q", user)
	}
	if cm.gotOpts.Temperature == nil || *cm.gotOpts.Temperature != 0.7 {
		t.Errorf("temperature = %v", cm.gotOpts.Temperature)
	}
	if cm.gotOpts.MaxTokens == nil || *cm.gotOpts.MaxTokens != 500 {
		t.Errorf("max tokens = %v", cm.gotOpts.MaxTokens)
	}
	if cm.workflow != service.WorkflowAdviceGenerate {
		t.Errorf("workflow = %q", cm.workflow)
	}
}

func TestGenerateKeepsCallerWorkflow(t *testing.T) {
	cm := &fakeChatModel{reply: "{}"}
	g := NewGenerator(&fakeFactory{m: cm}, Options{})
	ctx := service.WithWorkflow(context.Background(), service.WorkflowWebhookReply)
	g.Generate(ctx, "", "頭痛")
	if cm.workflow != service.WorkflowWebhookReply {
		t.Errorf("workflow = %q", cm.workflow)
	}
}

func TestGenerateFallsBack(t *testing.T) {
	cases := map[string]*fakeFactory{
		"factory error": {err: errors.New("no key")},
		"model error":   {m: &fakeChatModel{err: errors.New("timeout")}},
		"empty reply":   {m: &fakeChatModel{reply: "  \n"}},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			g := NewGenerator(f, Options{})
			if got := g.Generate(context.Background(), "", "頭痛"); got != FallbackAnswer {
				t.Errorf("Generate = %q, want fallback", got)
			}
		})
	}
}

func TestGenerateNilFactory(t *testing.T) {
	if got := NewGenerator(nil, Options{}).Generate(context.Background(), "x", "y"); got != FallbackAnswer {
		t.Errorf("Generate = %q", got)
	}
}

func TestJoinContext(t *testing.T) {
	if got := JoinContext([]string{"a", "b"}); got != "a\n\nb" {
		t.Errorf("JoinContext = %q", got)
	}
	if got := JoinContext(nil); got != "" {
		t.Errorf("JoinContext(nil) = %q", got)
	}
}
