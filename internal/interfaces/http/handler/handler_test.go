package handler

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"symptom-advisor-bot/internal/application/dispatch"
	"symptom-advisor-bot/internal/application/retrieval"
	"symptom-advisor-bot/internal/domain/entity"
	"symptom-advisor-bot/internal/domain/service"
	"symptom-advisor-bot/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeParser struct {
	events []dispatch.Event
	err    error
}

func (f *fakeParser) ParseRequest(*http.Request) ([]dispatch.Event, error) {
	return f.events, f.err
}

type recordingEvents struct {
	mu      sync.Mutex
	handled []string
	err     error
}

func (r *recordingEvents) Handle(ctx context.Context, ev dispatch.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		return stderrors.New("no deadline")
	}
	r.handled = append(r.handled, ev.ID)
	return r.err
}

func (r *recordingEvents) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.handled...)
}

func doRequest(h gin.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	engine := gin.New()
	engine.Handle(method, path, h)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	return w
}

func TestWebhook_InvalidSignature(t *testing.T) {
	events := &recordingEvents{}
	h := NewWebhookHandler(&fakeParser{err: errors.ErrInvalidSignature}, events, false, time.Second)

	w := doRequest(h.Webhook, http.MethodPost, "/webhook", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Invalid signature" {
		t.Errorf("error = %q", body["error"])
	}
	if len(events.ids()) != 0 {
		t.Errorf("events handled despite bad signature")
	}
}

func TestWebhook_ParseFailure(t *testing.T) {
	h := NewWebhookHandler(&fakeParser{err: stderrors.New("bad json")}, &recordingEvents{}, false, time.Second)

	w := doRequest(h.Webhook, http.MethodPost, "/webhook", `{`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestWebhook_SyncHandlesEveryEvent(t *testing.T) {
	events := &recordingEvents{err: stderrors.New("reply failed")}
	parser := &fakeParser{events: []dispatch.Event{{ID: "e1"}, {ID: "e2"}}}
	h := NewWebhookHandler(parser, events, false, time.Second)

	w := doRequest(h.Webhook, http.MethodPost, "/webhook", `{}`)
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("got %d %q, want 200 OK", w.Code, w.Body.String())
	}
	got := events.ids()
	if len(got) != 2 || got[0] != "e1" || got[1] != "e2" {
		t.Errorf("handled = %v", got)
	}
}

func TestWebhook_AsyncRespondsThenHandles(t *testing.T) {
	events := &recordingEvents{}
	parser := &fakeParser{events: []dispatch.Event{{ID: "e1"}}}
	h := NewWebhookHandler(parser, events, true, time.Second)

	w := doRequest(h.Webhook, http.MethodPost, "/webhook", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	h.Wait()
	if got := events.ids(); len(got) != 1 || got[0] != "e1" {
		t.Errorf("handled = %v", got)
	}
}

type fakeGenerator struct {
	workflow string
	out      string
}

func (f *fakeGenerator) Generate(ctx context.Context, paragraph, question string) string {
	f.workflow = service.WorkflowFromContext(ctx)
	return f.out
}

func TestTestGPT(t *testing.T) {
	t.Run("missing field", func(t *testing.T) {
		h := NewAdviceHandler(&fakeGenerator{}, nil)
		for _, body := range []string{`{"paragraph":"x"}`, `{"question":"y"}`, `not json`} {
			w := doRequest(h.TestGPT, http.MethodPost, "/test-gpt", body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", body, w.Code)
			}
			if !strings.Contains(w.Body.String(), "Please provide paragraph and question") {
				t.Errorf("%s: body = %s", body, w.Body.String())
			}
		}
	})

	t.Run("success", func(t *testing.T) {
		gen := &fakeGenerator{out: `{"type":"unrelated","message":"hi"}`}
		h := NewAdviceHandler(gen, nil)

		w := doRequest(h.TestGPT, http.MethodPost, "/test-gpt", `{"paragraph":"","question":"你好"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var resp struct {
			Status   string `json:"status"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "success" || resp.Response != gen.out {
			t.Errorf("resp = %+v", resp)
		}
		if gen.workflow != service.WorkflowConnectivity {
			t.Errorf("workflow = %q", gen.workflow)
		}
	})
}

type fakeRetriever struct {
	k int
}

func (f *fakeRetriever) RetrieveChunks(_ context.Context, _ string, k int) ([]retrieval.Hit, error) {
	f.k = k
	return []retrieval.Hit{{
		Chunk:    entity.Chunk{Filename: "糖尿病.md", ChunkID: 0, Content: "糖尿病介紹"},
		Distance: 0.12,
	}}, nil
}

func TestAdvice(t *testing.T) {
	raw := `{"type":"matched","disease":"糖尿病","symptoms":["口渴"],"suggestions":["就醫"],"need_doctor":true,"urgency":"medium","additional_info":{}}`
	r := &fakeRetriever{}
	pipeline := dispatch.NewPipeline(r, &fakeGenerator{out: raw}, 3)
	h := NewAdviceHandler(nil, pipeline)

	w := doRequest(h.Advice, http.MethodPost, "/v1/advice", `{"question":"一直口渴","top_k":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if r.k != 2 {
		t.Errorf("top_k passed = %d, want 2", r.k)
	}

	var resp struct {
		Data struct {
			Chunks  []map[string]any `json:"chunks"`
			Type    string           `json:"type"`
			AltText string           `json:"alt_text"`
			Card    map[string]any   `json:"card"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Type != "matched" || len(resp.Data.Chunks) != 1 {
		t.Errorf("data = %+v", resp.Data)
	}
	if resp.Data.Card["type"] != "bubble" {
		t.Errorf("card type = %v", resp.Data.Card["type"])
	}
	if resp.Data.AltText != "分析結果：糖尿病" {
		t.Errorf("alt text = %q", resp.Data.AltText)
	}
}

func TestAdvice_Validation(t *testing.T) {
	h := NewAdviceHandler(nil, dispatch.NewPipeline(&fakeRetriever{}, &fakeGenerator{}, 3))
	for _, body := range []string{`{}`, `{"question":"   "}`, `{"question":"q","top_k":99}`} {
		w := doRequest(h.Advice, http.MethodPost, "/v1/advice", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, w.Code)
		}
	}
}

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(context.Context) error { return f.err }

type fixedSize int

func (f fixedSize) Size() int { return int(f) }

func TestReady(t *testing.T) {
	ok := NewHealthHandler("v1", "flat", fixedSize(7), map[string]HealthChecker{"redis": fakeChecker{}})
	w := doRequest(ok.Ready, http.MethodGet, "/ready", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"index_size":7`) {
		t.Errorf("body = %s", w.Body.String())
	}

	bad := NewHealthHandler("v1", "milvus", fixedSize(0), map[string]HealthChecker{
		"milvus": fakeChecker{err: stderrors.New("down")},
	})
	w = doRequest(bad.Ready, http.MethodGet, "/ready", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}
