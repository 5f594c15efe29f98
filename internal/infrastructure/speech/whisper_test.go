package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"symptom-advisor-bot/internal/config"
)

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart: %v", err)
		}
		if got := r.FormValue("language"); got != "zh" {
			t.Errorf("language = %q", got)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":" 我一直咳嗽 "}`))
	}))
	defer srv.Close()

	wh, err := NewWhisper(&config.SpeechConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", Language: "zh"})
	if err != nil {
		t.Fatal(err)
	}
	text, err := wh.Transcribe(context.Background(), strings.NewReader("m4a"), "audio.m4a")
	if err != nil {
		t.Fatal(err)
	}
	if text != "我一直咳嗽" {
		t.Errorf("text = %q", text)
	}
}

func TestWhisperErrors(t *testing.T) {
	if _, err := NewWhisper(&config.SpeechConfig{}); err == nil {
		t.Error("expected missing key error")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad audio","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	wh, _ := NewWhisper(&config.SpeechConfig{APIKey: "sk-test", BaseURL: srv.URL})
	if _, err := wh.Transcribe(context.Background(), strings.NewReader("x"), "audio.m4a"); err == nil {
		t.Error("expected api error")
	}
}
