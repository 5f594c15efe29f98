package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"symptom-advisor-bot/internal/config"
)

func TestClientEmbedStringsBatches(t *testing.T) {
	var batches [][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		batches = append(batches, req.Texts)
		resp := embedResponse{}
		for _, text := range req.Texts {
			resp.Embeddings = append(resp.Embeddings, []float64{float64(len([]rune(text))), 1})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(&config.EmbeddingConfig{Endpoint: srv.URL, Model: "bge", BatchSize: 2})
	out, err := c.EmbedStrings(context.Background(), []string{"一", "二二", "三三三"})
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	if len(out) != 3 || out[2][0] != 3 {
		t.Errorf("out = %v", out)
	}
}

func TestClientEmbedStringsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(&config.EmbeddingConfig{Endpoint: srv.URL})
	if _, err := c.EmbedStrings(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestNewEinoEmbedderRejectsUnknownProvider(t *testing.T) {
	if _, err := NewEinoEmbedder(context.Background(), &config.EmbeddingConfig{Provider: "bogus"}); err == nil {
		t.Fatal("expected error")
	}
}
