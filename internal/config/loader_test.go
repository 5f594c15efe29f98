package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("SYMPTOM_TEST_SET", "value")

	tests := []struct {
		in   string
		want string
	}{
		{"key: ${SYMPTOM_TEST_SET}", "key: value"},
		{"key: ${SYMPTOM_TEST_SET:other}", "key: value"},
		{"key: ${SYMPTOM_TEST_UNSET:fallback}", "key: fallback"},
		{"key: ${SYMPTOM_TEST_UNSET:}", "key: "},
		{"key: ${SYMPTOM_TEST_UNSET}", "key: ${SYMPTOM_TEST_UNSET}"},
	}
	for _, tt := range tests {
		if got := expandEnv(tt.in); got != tt.want {
			t.Errorf("expandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Indexer.ChunkSize != 300 || cfg.Indexer.MinDocChars != 50 {
		t.Errorf("indexer defaults = %+v", cfg.Indexer)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("top_k = %d, want 3", cfg.Retrieval.TopK)
	}
	p, ok := cfg.LLM.DefaultProviderConfig()
	if !ok {
		t.Fatal("default provider missing")
	}
	if p.Temperature != 0.7 || p.MaxTokens != 500 {
		t.Errorf("provider defaults = %+v", p)
	}
	if cfg.LINE.EventTimeout != time.Minute || cfg.LINE.DedupTTL != 10*time.Minute {
		t.Errorf("line defaults = %+v", cfg.LINE)
	}
	if cfg.Clinic.SearchKeyword != "診所" {
		t.Errorf("clinic keyword = %q", cfg.Clinic.SearchKeyword)
	}
}

func TestLoadFromFileAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	base := "retrieval:\n  top_k: 5\nindexer:\n  source_dir: ${SYMPTOM_TEST_CORPUS:corpus}\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(base), 0o644); err != nil {
		t.Fatal(err)
	}
	overlay := "retrieval:\n  top_k: 7\n"
	if err := os.WriteFile(filepath.Join(dir, "config.staging.yaml"), []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_ENV", "staging")
	t.Setenv("SYMPTOM_TEST_CORPUS", "/srv/diseases")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Retrieval.TopK != 7 {
		t.Errorf("top_k = %d, want overlay value 7", cfg.Retrieval.TopK)
	}
	if cfg.Indexer.SourceDir != "/srv/diseases" {
		t.Errorf("source_dir = %q", cfg.Indexer.SourceDir)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("vector:\n  backend: faiss\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(dir); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestIndexPaths(t *testing.T) {
	cfg := &Config{Index: IndexConfig{Dir: "data", IndexFile: "a.gob", MetadataFile: "b.json"}}
	idx, meta := cfg.IndexPaths()
	if idx != filepath.Join("data", "a.gob") || meta != filepath.Join("data", "b.json") {
		t.Errorf("IndexPaths = %q, %q", idx, meta)
	}
}
